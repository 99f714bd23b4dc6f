package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/worktrack/worktrack/internal/app"
	"github.com/worktrack/worktrack/internal/auth"
	"github.com/worktrack/worktrack/internal/authz"
	"github.com/worktrack/worktrack/internal/comments"
	"github.com/worktrack/worktrack/internal/observability"
	"github.com/worktrack/worktrack/internal/platform/cache"
	"github.com/worktrack/worktrack/internal/platform/db"
	"github.com/worktrack/worktrack/internal/users"
	"github.com/worktrack/worktrack/internal/worksessions"
	"github.com/worktrack/worktrack/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	jobsClient := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr}, cfg.BaseURL)
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()

	engine := authz.NewEngine(authz.NewPGLookups(pool), authz.NewRegistry())

	usersRepo := users.NewRepository(pool)
	tokens := users.NewVerificationTokens(redisClient, cfg.EmailTokenTTL)
	usersService := users.NewService(usersRepo, tokens, jobsClient, logger, "WorkTrack")
	usersHandler := users.NewHandler(logger, usersService)

	authService := auth.NewService(usersRepo, cfg.JWTSecret, cfg.JWTTTL)
	authHandler := auth.NewHandler(logger, authService)
	authMiddleware := auth.Middleware{Service: authService, Logger: logger}

	sessionsRepo := worksessions.NewRepository(pool)
	sessionsService := worksessions.NewService(sessionsRepo)
	sessionsHandler := worksessions.NewHandler(logger, sessionsService, engine)

	commentsRepo := comments.NewRepository(pool)
	commentsService := comments.NewService(commentsRepo)
	commentsHandler := comments.NewHandler(logger, commentsService, sessionsService, engine)

	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:              logger,
		Config:              cfg,
		AuthHandler:         authHandler,
		AuthMiddleware:      authMiddleware,
		UsersHandler:        usersHandler,
		WorkSessionsHandler: sessionsHandler,
		CommentsHandler:     commentsHandler,
		Metrics:             metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
