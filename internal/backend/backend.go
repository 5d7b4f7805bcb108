// Package backend opens the hub store selected by configuration.
package backend

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vanshika/hubnet/internal/config"
	"github.com/vanshika/hubnet/internal/docstore"
	"github.com/vanshika/hubnet/internal/graph"
	"github.com/vanshika/hubnet/internal/repository"
	"github.com/vanshika/hubnet/internal/service"
)

// Store is a hub repository the process owns from start to shutdown.
type Store interface {
	service.HubRepository
	Probe(ctx context.Context) error
	Close(ctx context.Context) error
}

// Open returns the store named by cfg.Store.Backend. The Neo4j backend is
// verified and has its uniqueness constraints ensured before returning.
func Open(ctx context.Context, logger *slog.Logger, cfg config.Config) (Store, error) {
	switch cfg.Store.Backend {
	case config.BackendBadger, "":
		store, err := docstore.Open(docstore.Options{
			Path:       cfg.Store.BadgerPath,
			InMemory:   cfg.Store.BadgerInMemory,
			MaxRetries: cfg.Store.MaxRetries,
			Logger:     logger,
		})
		if err != nil {
			return nil, err
		}
		logger.Info("opened badger store", "path", cfg.Store.BadgerPath, "in_memory", cfg.Store.BadgerInMemory)
		return store, nil
	case config.BackendNeo4j:
		return openNeo4j(ctx, logger, cfg.Graph)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

func openNeo4j(ctx context.Context, logger *slog.Logger, cfg config.GraphConfig) (Store, error) {
	if cfg.URI == "" {
		return nil, graph.ErrMissingURI
	}
	client, err := graph.NewNeo4jClient(ctx, graph.Options{
		URI:            cfg.URI,
		Database:       cfg.Database,
		Username:       cfg.Username,
		Password:       cfg.Password,
		MaxConnections: cfg.MaxConnections,
	})
	if err != nil {
		return nil, err
	}
	return connectRepository(ctx, logger, client, cfg)
}

func connectRepository(ctx context.Context, logger *slog.Logger, client graph.Client, cfg config.GraphConfig) (Store, error) {
	if err := client.VerifyConnectivity(ctx); err != nil {
		_ = client.Close(ctx)
		return nil, fmt.Errorf("verify graph connectivity: %w", err)
	}
	repo := repository.New(client)
	if err := repo.EnsureSchema(ctx); err != nil {
		_ = client.Close(ctx)
		return nil, err
	}
	logger.Info("connected to graph", "uri", cfg.URI, "database", cfg.Database)
	return repo, nil
}
