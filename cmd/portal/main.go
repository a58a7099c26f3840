package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/melalfey/schoolos-admin-portal/internal/cache"
	"github.com/melalfey/schoolos-admin-portal/internal/config"
	"github.com/melalfey/schoolos-admin-portal/internal/database"
	"github.com/melalfey/schoolos-admin-portal/internal/handlers"
	"github.com/melalfey/schoolos-admin-portal/internal/jobs"
	"github.com/melalfey/schoolos-admin-portal/internal/log"
	"github.com/melalfey/schoolos-admin-portal/internal/server"
	"github.com/melalfey/schoolos-admin-portal/internal/storage"
	"github.com/melalfey/schoolos-admin-portal/internal/views"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment, "portal")

	ctx := context.Background()

	kv, closeStorage, err := openStorage(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.Storage.Driver).Msg("failed to open session storage")
	}

	var scheduler *jobs.Scheduler
	if sweeper, ok := kv.(storage.Sweeper); ok {
		scheduler = jobs.NewScheduler(sweeper, cfg.Session.SweepSchedule, cfg.Session.Lifetime, logger)
		if err := scheduler.Start(); err != nil {
			logger.Error().Err(err).Msg("scheduler start failed")
		}
	}

	handlerSet := handlers.NewHandlerSet(logger, storage.WithPrefix(kv, cfg.Storage.Prefix), &http.Client{Timeout: cfg.API.Timeout}, cfg)
	httpServer := server.NewHTTPServer(
		fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		cfg, logger, handlerSet,
		func(engine *gin.Engine) { engine.SetHTMLTemplate(views.Templates()) },
	)

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdown(logger, httpServer, scheduler, closeStorage)
}

// openStorage returns the configured session storage and a func releasing
// its connections.
func openStorage(ctx context.Context, cfg *config.AppConfig, logger zerolog.Logger) (storage.KV, func(), error) {
	switch cfg.Storage.Driver {
	case config.StorageFile:
		return storage.NewFile(cfg.Storage.FilePath), func() {}, nil
	case config.StorageRedis:
		client, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		return storage.NewRedis(client, cfg.Session.Lifetime), func() {
			if err := client.Close(); err != nil {
				logger.Error().Err(err).Msg("redis close error")
			}
		}, nil
	case config.StoragePostgres:
		pool, err := database.NewPostgresPool(ctx, cfg.Postgres)
		if err != nil {
			return nil, nil, err
		}
		store := storage.NewPostgres(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return store, pool.Close, nil
	default:
		return storage.NewMemory(), func() {}, nil
	}
}

func waitForShutdown(logger zerolog.Logger, srv *server.HTTPServer, scheduler *jobs.Scheduler, closeStorage func()) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	if scheduler != nil {
		select {
		case <-scheduler.Stop().Done():
		case <-shutdownCtx.Done():
			logger.Warn().Msg("session sweep still running at shutdown")
		}
	}

	closeStorage()

	logger.Info().Msg("portal exited cleanly")
}
