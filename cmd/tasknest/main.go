package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tasknest/tasknest/internal/app"
	"github.com/tasknest/tasknest/internal/auth"
	"github.com/tasknest/tasknest/internal/observability"
	"github.com/tasknest/tasknest/internal/platform/cache"
	"github.com/tasknest/tasknest/internal/platform/db"
	"github.com/tasknest/tasknest/internal/tasks"
)

const authRateLimitPerMinute = 20

type stores struct {
	users   auth.Repository
	tasks   tasks.Repository
	closeFn func()
}

func openStores(ctx context.Context, cfg *app.Config, logger *slog.Logger) (*stores, error) {
	if path, ok := db.IsSQLiteURL(cfg.DatabaseURL); ok {
		sqlDB, err := db.OpenSQLite(ctx, path)
		if err != nil {
			return nil, err
		}
		if err := db.EnsureSQLiteSchema(ctx, sqlDB); err != nil {
			_ = sqlDB.Close()
			return nil, err
		}
		logger.Info("using sqlite store", slog.String("path", path))
		return &stores{
			users: auth.NewSQLiteRepository(sqlDB),
			tasks: tasks.NewSQLiteRepository(sqlDB),
			closeFn: func() {
				if err := sqlDB.Close(); err != nil {
					logger.Warn("sqlite close", slog.Any("error", err))
				}
			},
		}, nil
	}

	pool, err := db.New(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns)
	if err != nil {
		return nil, err
	}
	if err := db.EnsurePostgresSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	logger.Info("using postgres store")
	return &stores{
		users:   auth.NewRepository(pool),
		tasks:   tasks.NewRepository(pool),
		closeFn: pool.Close,
	}, nil
}

func run(ctx context.Context, cfg *app.Config, logger *slog.Logger) error {
	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open stores: %w", err)
	}
	defer st.closeFn()

	var throttle auth.Throttle
	if cfg.RedisAddr != "" {
		redisClient, err := cache.New(ctx, cfg.RedisAddr)
		if err != nil {
			logger.Warn("redis unavailable, login throttle disabled", slog.Any("error", err))
		} else {
			defer func() {
				if err := redisClient.Close(); err != nil {
					logger.Warn("redis close", slog.Any("error", err))
				}
			}()
			throttle = auth.NewLoginThrottle(redisClient, logger, cfg.LoginMaxAttempts, cfg.LoginLockout)
		}
	}

	tokenService, err := auth.NewTokenService(cfg.JWTSecret, cfg.JWTAlgorithm, time.Now)
	if err != nil {
		return err
	}
	authService := auth.NewService(st.users, auth.NewBcryptHasher(cfg.BcryptCost), tokenService, auth.ServiceConfig{
		TokenTTL: cfg.TokenTTL(),
		Throttle: throttle,
	})
	taskService := tasks.NewService(st.tasks, time.Now)
	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:                 logger,
		Config:                 cfg,
		AuthHandler:            auth.NewHandler(logger, authService),
		TaskHandler:            tasks.NewHandler(logger, taskService),
		TokenVerifier:          tokenService,
		Metrics:                metrics,
		AuthRateLimitPerMinute: authRateLimitPerMinute,
		RequestLogging:         true,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		return nil
	})
	return g.Wait()
}

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
	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("tasknest exited", slog.Any("error", err))
		os.Exit(1)
	}
}
