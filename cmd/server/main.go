package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"postboard/internal/config"
	"postboard/internal/db"
	"postboard/internal/logging"
	"postboard/internal/redis"
	"postboard/internal/repositories/posts"
	"postboard/internal/repositories/tokens"
	"postboard/internal/repositories/users"
	"postboard/internal/router"
	"postboard/internal/services"
	"postboard/internal/utils"
)

func main() {
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	ctx := context.Background()

	dbConn, err := db.Init(cfg)
	if err != nil {
		logger.Error(ctx, "database init failed", "error", err)
		os.Exit(1)
	}
	defer db.Close(dbConn)

	rdb, err := redis.Init(ctx, cfg)
	if err != nil {
		logger.Error(ctx, "redis init failed", "error", err)
		os.Exit(1)
	}
	defer rdb.Close()

	var mailer utils.Mailer
	smtp := utils.NewSMTPClient(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.FromEmail)
	if smtp.Configured() {
		mailer = smtp
	} else {
		logger.Warn(ctx, "SMTP not configured, outgoing mail disabled")
	}

	identity := services.NewIdentityService(
		users.NewGormRepository(dbConn),
		tokens.NewGormRepository(dbConn),
		redis.NewCodeStore(rdb, ""),
		mailer,
		logger,
		cfg,
	)
	postSvc := services.NewPostService(posts.NewGormRepository(dbConn), logger)

	r := router.SetupRouter(cfg, router.Deps{
		Log:      logger,
		Identity: identity,
		Posts:    postSvc,
		Checks: map[string]router.HealthCheck{
			"database": func(ctx context.Context) error { return db.Ping(ctx, dbConn) },
			"redis":    func(ctx context.Context) error { return redisPing(ctx, rdb) },
		},
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info(ctx, "server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(ctx, "server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "shutdown failed", "error", err)
		return
	}
	logger.Info(ctx, "server exited")
}

func redisPing(ctx context.Context, rdb *goredis.Client) error {
	return rdb.Ping(ctx).Err()
}
