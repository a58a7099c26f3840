// Command mock-api serves an in-memory stand-in for the SchoolOS REST API
// for local development of the portal and schoolctl.
//
// It is a development and test tool only, not the SchoolOS backend. Data
// lives in memory and is lost on exit. Never point a production portal at it.
package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/melalfey/schoolos-admin-portal/internal/backend"
	"github.com/melalfey/schoolos-admin-portal/internal/config"
	"github.com/melalfey/schoolos-admin-portal/internal/log"
	"github.com/melalfey/schoolos-admin-portal/internal/security"
	"github.com/melalfey/schoolos-admin-portal/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment, "mock-api")

	api, err := backend.NewFromConfig(context.Background(), cfg.MockAPI, security.DefaultParams, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to seed directory")
	}
	logger.Info().Str("email", cfg.MockAPI.AdminEmail).Msg("seeded super admin account")
	if cfg.Environment == "production" {
		logger.Warn().Msg("mock-api is a development stand-in and keeps data in memory only")
	}

	httpServer := server.NewHTTPServer(fmt.Sprintf("%s:%d", cfg.MockAPI.Host, cfg.MockAPI.Port), cfg, logger, api)

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}
