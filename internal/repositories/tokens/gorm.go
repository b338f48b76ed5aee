package tokens

import (
	"context"

	"gorm.io/gorm"

	"postboard/internal/apperr"
	"postboard/internal/dbx"
	"postboard/internal/models"
)

const tokenNotFound = "Token not found."

type GormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) Create(ctx context.Context, t *models.AccessToken) error {
	err := r.db.WithContext(ctx).Create(t).Error
	return dbx.Classify(err, "create token", tokenNotFound, "")
}

func (r *GormRepository) Find(ctx context.Context, id string) (*models.AccessToken, error) {
	var t models.AccessToken
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&t).Error; err != nil {
		return nil, dbx.Classify(err, "find token", tokenNotFound, "")
	}
	return &t, nil
}

// Revoke flips revoked in a single conditional UPDATE, so concurrent
// revocations of one token see exactly one winner. A token that is unknown
// or already revoked yields NotFound.
func (r *GormRepository) Revoke(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Model(&models.AccessToken{}).
		Where("id = ? AND revoked = ?", id, false).
		Update("revoked", true)
	if res.Error != nil {
		return dbx.Classify(res.Error, "revoke token", tokenNotFound, "")
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound(tokenNotFound)
	}
	return nil
}
