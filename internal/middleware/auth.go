package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"postboard/internal/apperr"
	"postboard/internal/auth"
	"postboard/internal/logging"
)

type Authenticator interface {
	Authenticate(ctx context.Context, bearer string) (*auth.Identity, error)
}

// RequireAuth resolves the bearer token and stores the caller on the request
// context, where handlers read it with auth.IdentityFrom.
func RequireAuth(a Authenticator, log logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			abort(c, http.StatusUnauthorized, "Unauthenticated.")
			return
		}

		id, err := a.Authenticate(c.Request.Context(), token)
		if err != nil {
			if apperr.KindOf(err) == apperr.KindAuthentication {
				abort(c, http.StatusUnauthorized, "Unauthenticated.")
				return
			}
			log.Error(c.Request.Context(), "authenticate", "error", err)
			abort(c, http.StatusInternalServerError, "Server Error")
			return
		}

		c.Request = c.Request.WithContext(auth.WithIdentity(c.Request.Context(), id))
		c.Next()
	}
}

func bearerToken(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func abort(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"status": "error", "message": msg})
}
