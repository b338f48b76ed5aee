package users

import (
	"context"
	"time"

	"gorm.io/gorm"

	"postboard/internal/dbx"
	"postboard/internal/models"
)

const userNotFound = "User not found."

type GormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// Create inserts u. A duplicate email surfaces as a validation error on
// the "email" field.
func (r *GormRepository) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if err := r.db.WithContext(ctx).Create(u).Error; err != nil {
		return nil, dbx.Classify(err, "create user", userNotFound, "email")
	}
	return u, nil
}

func (r *GormRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, dbx.Classify(err, "get user", userNotFound, "")
	}
	return &u, nil
}

func (r *GormRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, dbx.Classify(err, "get user by email", userNotFound, "")
	}
	return &u, nil
}

func (r *GormRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&n).Error; err != nil {
		return false, dbx.Classify(err, "count users", "", "")
	}
	return n > 0, nil
}

// MarkEmailVerified stamps email_verified_at unless it is already set.
func (r *GormRepository) MarkEmailVerified(ctx context.Context, id uint, at time.Time) error {
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND email_verified_at IS NULL", id).
		Update("email_verified_at", at).Error
	return dbx.Classify(err, "verify email", userNotFound, "")
}
