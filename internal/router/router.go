package router

import (
	"context"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"

	"postboard/internal/config"
	"postboard/internal/controllers"
	"postboard/internal/logging"
	"postboard/internal/middleware"
	"postboard/internal/services"
)

// HealthCheck reports whether a backing service is reachable.
type HealthCheck func(ctx context.Context) error

type Deps struct {
	Log      logging.Logger
	Identity *services.IdentityService
	Posts    *services.PostService
	Checks   map[string]HealthCheck
}

// SetupRouter configures the gin engine with the API routes.
func SetupRouter(cfg *config.Config, d Deps) *gin.Engine {
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}
	r := gin.New()
	// with no trusted proxies ClientIP ignores X-Forwarded-For
	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		d.Log.Warn(context.Background(), "invalid trusted proxies, trusting none", "error", err)
		_ = r.SetTrustedProxies(nil)
	}
	r.Use(middleware.RequestLogger(d.Log), gin.Recovery())

	r.GET("/healthz", healthz(d.Checks, d.Log))

	authCtl := controllers.NewAuthController(d.Identity, d.Log, cfg.ExposeInternalErrors)
	postCtl := controllers.NewPostController(d.Posts, d.Log, cfg.ExposeInternalErrors)

	api := r.Group("/api")
	api.Use(middleware.Timeout(cfg.RequestTimeout))

	limiter := middleware.NewRateLimiter(cfg.LoginRatePerMin)
	api.POST("/login", limiter.Middleware(middleware.ByClientIP), authCtl.Login)
	api.POST("/signup", limiter.Middleware(middleware.ByClientIP), authCtl.SignUp)

	verifyLimiter := middleware.NewRateLimiter(cfg.VerifyRatePerMin).Middleware(middleware.ByUser)

	protected := api.Group("")
	protected.Use(middleware.RequireAuth(d.Identity, d.Log))
	{
		protected.GET("/logout", authCtl.Logout)
		protected.GET("/user", authCtl.User)
		protected.POST("/email/verify", verifyLimiter, authCtl.VerifyEmail)
		protected.POST("/email/resend", verifyLimiter, authCtl.ResendVerification)

		protected.GET("/posts", postCtl.List)
		protected.GET("/post/:id", postCtl.Get)
		protected.GET("/user/:id/posts", postCtl.ListByUser)
		protected.POST("/post", postCtl.Create)
		protected.PUT("/post/:id", postCtl.Update)
		protected.DELETE("/post/:id", postCtl.Delete)
	}

	return r
}

func healthz(checks map[string]HealthCheck, log logging.Logger) gin.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		failed := gin.H{}
		for _, name := range names {
			if err := checks[name](ctx); err != nil {
				log.Warn(ctx, "health check failed", "check", name, "error", err)
				failed[name] = "unavailable"
			}
		}
		if len(failed) > 0 {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "message": "Service Unavailable", "errors": failed})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
