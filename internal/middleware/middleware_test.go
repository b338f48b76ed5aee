package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"postboard/internal/apperr"
	"postboard/internal/auth"
	"postboard/internal/logging"
	"postboard/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubAuth struct {
	token string
	user  *models.User
	err   error
}

func (s stubAuth) Authenticate(_ context.Context, bearer string) (*auth.Identity, error) {
	if s.err != nil {
		return nil, s.err
	}
	if bearer != s.token {
		return nil, apperr.Authentication("Unauthenticated.")
	}
	return &auth.Identity{User: s.user, TokenID: "tok"}, nil
}

func do(r *gin.Engine, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireAuth(t *testing.T) {
	user := &models.User{ID: 7, Email: "a@b.io"}
	r := gin.New()
	r.GET("/", RequireAuth(stubAuth{token: "good", user: user}, logging.Nop{}), func(c *gin.Context) {
		id, ok := auth.IdentityFrom(c.Request.Context())
		require.True(t, ok)
		assert.Same(t, user, id.User)
		c.String(http.StatusOK, "%d", id.User.ID)
	})

	w := do(r, "Bearer good")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "7", w.Body.String())

	assert.Equal(t, http.StatusOK, do(r, "bearer good").Code)

	for _, h := range []string{"", "good", "Bearer", "Bearer bad", "Basic good"} {
		w := do(r, h)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "header %q", h)
		assert.JSONEq(t, `{"status":"error","message":"Unauthenticated."}`, w.Body.String())
	}
}

func TestRequireAuth_StorageFailure(t *testing.T) {
	r := gin.New()
	r.GET("/", RequireAuth(stubAuth{err: apperr.Storage("find token", errors.New("down"))}, logging.Nop{}), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	assert.Equal(t, http.StatusInternalServerError, do(r, "Bearer x").Code)
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", bearerToken("Bearer abc"))
	assert.Equal(t, "abc", bearerToken("Bearer  abc "))
	assert.Empty(t, bearerToken("Token abc"))
	assert.Empty(t, bearerToken(""))
}

func TestTimeout(t *testing.T) {
	r := gin.New()
	r.GET("/", Timeout(50*time.Millisecond), func(c *gin.Context) {
		deadline, ok := c.Request.Context().Deadline()
		require.True(t, ok)
		assert.WithinDuration(t, time.Now().Add(50*time.Millisecond), deadline, 50*time.Millisecond)

		<-c.Request.Context().Done()
		assert.ErrorIs(t, c.Request.Context().Err(), context.DeadlineExceeded)
		c.Status(http.StatusOK)
	})
	do(r, "")
}

func TestTimeout_Disabled(t *testing.T) {
	r := gin.New()
	r.GET("/", Timeout(0), func(c *gin.Context) {
		_, ok := c.Request.Context().Deadline()
		assert.False(t, ok)
		c.Status(http.StatusOK)
	})
	do(r, "")
}

func TestRequestLogger_SetsRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogger(logging.Nop{}))
	r.GET("/", func(c *gin.Context) {
		assert.NotEmpty(t, c.GetString(RequestIDKey))
		c.Status(http.StatusOK)
	})

	w := do(r, "")
	assert.Len(t, w.Header().Get(RequestIDHeader), 36)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(3)
	now := time.Now()
	rl.now = func() time.Time { return now }

	r := gin.New()
	r.GET("/", rl.Middleware(ByClientIP), func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, do(r, "").Code)
	}
	w := do(r, "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"error"`)

	// one token refills every 20s at 3/min
	now = now.Add(21 * time.Second)
	assert.Equal(t, http.StatusOK, do(r, "").Code)
}

func TestRateLimiter_PerClientAndSweep(t *testing.T) {
	rl := NewRateLimiter(1)
	now := time.Now()
	rl.now = func() time.Time { return now }

	assert.True(t, rl.allow("ip:10.0.0.1"))
	assert.False(t, rl.allow("ip:10.0.0.1"))
	assert.True(t, rl.allow("ip:10.0.0.2"))

	now = now.Add(limiterIdle + time.Second)
	assert.True(t, rl.allow("ip:10.0.0.3"))
	rl.mu.Lock()
	_, kept := rl.visitors["ip:10.0.0.1"]
	rl.mu.Unlock()
	assert.False(t, kept)
}

func TestRateLimiter_ByUser(t *testing.T) {
	rl := NewRateLimiter(1)
	alice := &models.User{ID: 1}
	bob := &models.User{ID: 2}

	r := gin.New()
	r.GET("/", func(c *gin.Context) {
		u := alice
		if c.GetHeader("Authorization") == "bob" {
			u = bob
		}
		c.Request = c.Request.WithContext(auth.WithIdentity(c.Request.Context(), &auth.Identity{User: u}))
		c.Next()
	}, rl.Middleware(ByUser), func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, do(r, "alice").Code)
	assert.Equal(t, http.StatusTooManyRequests, do(r, "alice").Code)
	// same address, different user
	assert.Equal(t, http.StatusOK, do(r, "bob").Code)
}

func TestByClientIP_IgnoresUntrustedForwardedFor(t *testing.T) {
	r := gin.New()
	require.NoError(t, r.SetTrustedProxies(nil))
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, ByClientIP(c)) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.9")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "ip:192.0.2.1", w.Body.String())
}
