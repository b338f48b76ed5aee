package services

import (
	"context"
	"strings"

	"postboard/internal/apperr"
	"postboard/internal/auth"
	"postboard/internal/logging"
	"postboard/internal/models"
)

type PostStore interface {
	FindAll(ctx context.Context) ([]models.Post, error)
	FindByID(ctx context.Context, id uint, includeDeleted bool) (*models.Post, error)
	FindByUser(ctx context.Context, userID uint) ([]models.Post, error)
	Insert(ctx context.Context, p *models.Post) error
	Update(ctx context.Context, p *models.Post) error
	SoftDelete(ctx context.Context, id uint) error
}

type PostInput struct {
	Title       string `json:"title" validate:"required,max=30"`
	Description string `json:"description" validate:"required,max=255"`
}

// PostService implements post CRUD for authenticated callers.
//
// Update and Delete do not compare the caller with the post owner, and
// single-post and per-user reads include soft-deleted rows.
type PostService struct {
	posts PostStore
	log   logging.Logger
}

func NewPostService(posts PostStore, log logging.Logger) *PostService {
	return &PostService{posts: posts, log: log.With("component", "posts")}
}

func caller(ctx context.Context) (*auth.Identity, error) {
	id, ok := auth.IdentityFrom(ctx)
	if !ok {
		return nil, apperr.Authentication(unauthenticated)
	}
	return id, nil
}

func normalizePost(in PostInput) (PostInput, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	return in, validateStruct(in)
}

// List returns live posts in creation order.
func (s *PostService) List(ctx context.Context) ([]models.Post, error) {
	if _, err := caller(ctx); err != nil {
		return nil, err
	}
	return s.posts.FindAll(ctx)
}

// GetByID returns a post, soft-deleted or not.
func (s *PostService) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	if _, err := caller(ctx); err != nil {
		return nil, err
	}
	return s.posts.FindByID(ctx, id, true)
}

func (s *PostService) ListByUser(ctx context.Context, userID uint) ([]models.Post, error) {
	if _, err := caller(ctx); err != nil {
		return nil, err
	}
	return s.posts.FindByUser(ctx, userID)
}

// Create stores a post owned by the caller.
func (s *PostService) Create(ctx context.Context, in PostInput) (*models.Post, error) {
	id, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	in, err = normalizePost(in)
	if err != nil {
		return nil, err
	}

	p := &models.Post{Title: in.Title, Description: in.Description, UserID: id.User.ID}
	if err := s.posts.Insert(ctx, p); err != nil {
		return nil, err
	}
	s.log.Info(ctx, "post created", "post_id", p.ID, "user_id", id.User.ID)
	return p, nil
}

// Update overwrites title and description of a live post.
func (s *PostService) Update(ctx context.Context, postID uint, in PostInput) (*models.Post, error) {
	id, err := caller(ctx)
	if err != nil {
		return nil, err
	}

	p, err := s.posts.FindByID(ctx, postID, false)
	if err != nil {
		return nil, err
	}
	in, err = normalizePost(in)
	if err != nil {
		return nil, err
	}

	p.Title = in.Title
	p.Description = in.Description
	if err := s.posts.Update(ctx, p); err != nil {
		return nil, err
	}
	if p.UserID != id.User.ID {
		s.log.Warn(ctx, "post updated by non-owner", "post_id", p.ID, "owner_id", p.UserID, "user_id", id.User.ID)
	}

	return s.posts.FindByID(ctx, postID, false)
}

// Delete soft-deletes a live post.
func (s *PostService) Delete(ctx context.Context, postID uint) error {
	id, err := caller(ctx)
	if err != nil {
		return err
	}
	if err := s.posts.SoftDelete(ctx, postID); err != nil {
		return err
	}
	s.log.Info(ctx, "post deleted", "post_id", postID, "user_id", id.User.ID)
	return nil
}
