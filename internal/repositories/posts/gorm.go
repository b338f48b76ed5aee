package posts

import (
	"context"

	"gorm.io/gorm"

	"postboard/internal/apperr"
	"postboard/internal/dbx"
	"postboard/internal/models"
)

const postNotFound = "Post not found."

type GormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) withUser(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("User").Order("posts.id ASC")
}

// FindAll returns live posts in creation order.
func (r *GormRepository) FindAll(ctx context.Context) ([]models.Post, error) {
	posts := []models.Post{}
	if err := r.withUser(ctx).Find(&posts).Error; err != nil {
		return nil, dbx.Classify(err, "list posts", postNotFound, "")
	}
	return posts, nil
}

// FindByID looks a post up by id. With includeDeleted the soft-delete scope
// is dropped.
func (r *GormRepository) FindByID(ctx context.Context, id uint, includeDeleted bool) (*models.Post, error) {
	q := r.withUser(ctx)
	if includeDeleted {
		q = q.Unscoped()
	}
	var p models.Post
	if err := q.Where("posts.id = ?", id).First(&p).Error; err != nil {
		return nil, dbx.Classify(err, "get post", postNotFound, "")
	}
	return &p, nil
}

// FindByUser returns every post owned by userID, soft-deleted ones included.
func (r *GormRepository) FindByUser(ctx context.Context, userID uint) ([]models.Post, error) {
	posts := []models.Post{}
	if err := r.withUser(ctx).Unscoped().Where("posts.user_id = ?", userID).Find(&posts).Error; err != nil {
		return nil, dbx.Classify(err, "list user posts", postNotFound, "")
	}
	return posts, nil
}

// Insert stores p and loads its owner.
func (r *GormRepository) Insert(ctx context.Context, p *models.Post) error {
	db := r.db.WithContext(ctx)
	if err := db.Omit("User").Create(p).Error; err != nil {
		return dbx.Classify(err, "create post", postNotFound, "")
	}
	if err := db.First(&p.User, p.UserID).Error; err != nil {
		return dbx.Classify(err, "load post owner", "User not found.", "")
	}
	return nil
}

// Update writes title and description of a live post; updated_at is
// refreshed by gorm.
func (r *GormRepository) Update(ctx context.Context, p *models.Post) error {
	res := r.db.WithContext(ctx).Model(p).Omit("User").Updates(map[string]any{
		"title":       p.Title,
		"description": p.Description,
	})
	if res.Error != nil {
		return dbx.Classify(res.Error, "update post", postNotFound, "")
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound(postNotFound)
	}
	return nil
}

// SoftDelete sets deleted_at on a live post.
func (r *GormRepository) SoftDelete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Post{}, id)
	if res.Error != nil {
		return dbx.Classify(res.Error, "delete post", postNotFound, "")
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound(postNotFound)
	}
	return nil
}
