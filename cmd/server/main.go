package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/vanshika/hubnet/internal/backend"
	"github.com/vanshika/hubnet/internal/config"
	"github.com/vanshika/hubnet/internal/logging"
	"github.com/vanshika/hubnet/internal/server"
	"github.com/vanshika/hubnet/internal/service"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging)

	store, err := backend.Open(ctx, logger, cfg)
	if err != nil {
		logger.Error("failed to open hub store", "backend", cfg.Store.Backend, "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			logger.Warn("closing hub store failed", "error", err)
		}
	}()

	hubService := service.NewHubService(store, logger)
	hubService.WithStrictIntegrity(cfg.Store.StrictIntegrity)

	router := server.NewRouter(logger, server.RouterDependencies{
		Health:           server.StoreHealthService{Store: store},
		API:              server.NewAPIHandlers(logger, hubService),
		AllowedOrigins:   cfg.HTTP.AllowedOrigins(),
		AllowCredentials: true,
		MetricsEnabled:   cfg.HTTP.MetricsEnabled,
	})

	srv := server.New(logger, cfg.HTTP, router)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig.String())
	case err := <-errCh:
		if err != nil {
			logger.Error("server stopped unexpectedly", "error", err)
		}
	}

	if err := srv.Shutdown(context.Background()); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}
