package tokens

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"postboard/internal/apperr"
	"postboard/internal/models"
	"postboard/internal/testutil"
)

func newToken(userID uint, expiresAt *time.Time) *models.AccessToken {
	return &models.AccessToken{ID: uuid.NewString(), UserID: userID, Name: "Personal Access Token", ExpiresAt: expiresAt}
}

func TestCreateFindRevoke(t *testing.T) {
	gdb := testutil.NewSQLite(t)
	repo := NewGormRepository(gdb)
	ctx := context.Background()
	u := testutil.CreateUser(t, gdb, "Example", "user@example.com")

	exp := time.Now().Add(time.Hour)
	tok := newToken(u.ID, &exp)
	require.NoError(t, repo.Create(ctx, tok))

	got, err := repo.Find(ctx, tok.ID)
	require.NoError(t, err)
	assert.False(t, got.Revoked)
	assert.Equal(t, u.ID, got.UserID)
	require.NotNil(t, got.ExpiresAt)

	require.NoError(t, repo.Revoke(ctx, tok.ID))

	got, err = repo.Find(ctx, tok.ID)
	require.NoError(t, err)
	assert.True(t, got.Revoked)
}

func TestRevoke_Twice(t *testing.T) {
	gdb := testutil.NewSQLite(t)
	repo := NewGormRepository(gdb)
	ctx := context.Background()
	u := testutil.CreateUser(t, gdb, "Example", "user@example.com")

	tok := newToken(u.ID, nil)
	require.NoError(t, repo.Create(ctx, tok))

	require.NoError(t, repo.Revoke(ctx, tok.ID))
	assert.ErrorIs(t, repo.Revoke(ctx, tok.ID), apperr.ErrNotFound)
}

func TestRevoke_OnlyTargetToken(t *testing.T) {
	gdb := testutil.NewSQLite(t)
	repo := NewGormRepository(gdb)
	ctx := context.Background()
	u := testutil.CreateUser(t, gdb, "Example", "user@example.com")

	a, b := newToken(u.ID, nil), newToken(u.ID, nil)
	require.NoError(t, repo.Create(ctx, a))
	require.NoError(t, repo.Create(ctx, b))

	require.NoError(t, repo.Revoke(ctx, a.ID))

	got, err := repo.Find(ctx, b.ID)
	require.NoError(t, err)
	assert.False(t, got.Revoked)
}

func TestRevoke_Unknown(t *testing.T) {
	repo := NewGormRepository(testutil.NewSQLite(t))
	assert.ErrorIs(t, repo.Revoke(context.Background(), "missing"), apperr.ErrNotFound)
}

func TestFind_Unknown(t *testing.T) {
	repo := NewGormRepository(testutil.NewSQLite(t))
	_, err := repo.Find(context.Background(), "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestRevoke_ConcurrentSingleWinner(t *testing.T) {
	gdb := testutil.NewSQLite(t)
	repo := NewGormRepository(gdb)
	ctx := context.Background()
	u := testutil.CreateUser(t, gdb, "Example", "user@example.com")

	tok := newToken(u.ID, nil)
	require.NoError(t, repo.Create(ctx, tok))

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if repo.Revoke(ctx, tok.ID) == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
}
