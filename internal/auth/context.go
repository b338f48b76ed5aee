package auth

import (
	"context"

	"postboard/internal/models"
)

// Identity is the caller resolved from a bearer token.
type Identity struct {
	User    *models.User
	TokenID string
}

type ctxKeyIdentity struct{}

func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, ctxKeyIdentity{}, id)
}

func IdentityFrom(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(ctxKeyIdentity{}).(*Identity)
	if !ok || id == nil || id.User == nil {
		return nil, false
	}
	return id, true
}
