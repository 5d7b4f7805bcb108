package backend

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/vanshika/hubnet/internal/config"
	"github.com/vanshika/hubnet/internal/docstore"
	"github.com/vanshika/hubnet/internal/domain"
	"github.com/vanshika/hubnet/internal/graph"
	"github.com/vanshika/hubnet/internal/repository"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestOpenBadgerInMemory(t *testing.T) {
	cfg := config.Default()
	cfg.Store.BadgerInMemory = true

	store, err := Open(context.Background(), discardLogger(), cfg)
	if err != nil {
		t.Fatalf("expected store, got %v", err)
	}
	defer store.Close(context.Background())

	if _, ok := store.(*docstore.Store); !ok {
		t.Fatalf("expected badger store, got %T", store)
	}
	if err := store.Probe(context.Background()); err != nil {
		t.Fatalf("expected healthy store, got %v", err)
	}
	if _, err := store.CreateHub(context.Background(), domain.Hub{ID: "A", Name: "Alpha"}); err != nil {
		t.Fatalf("create hub: %v", err)
	}
}

func TestOpenRejectsBadBackends(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Backend = "sqlite"
	if _, err := Open(context.Background(), discardLogger(), cfg); err == nil {
		t.Fatalf("expected unknown backend error")
	}

	cfg.Store.Backend = config.BackendNeo4j
	cfg.Graph.URI = ""
	if _, err := Open(context.Background(), discardLogger(), cfg); !errors.Is(err, graph.ErrMissingURI) {
		t.Fatalf("expected missing uri error, got %v", err)
	}
}

func TestConnectRepositoryEnsuresSchema(t *testing.T) {
	client := graph.NewMemoryClient()
	store, err := connectRepository(context.Background(), discardLogger(), client, config.GraphConfig{URI: "bolt://test"})
	if err != nil {
		t.Fatalf("expected repository, got %v", err)
	}
	if _, ok := store.(*repository.Repository); !ok {
		t.Fatalf("expected neo4j repository, got %T", store)
	}
	if len(client.WriteCalls()) == 0 {
		t.Fatalf("expected schema statements to run")
	}
}

func TestConnectRepositoryFailsOnConnectivity(t *testing.T) {
	client := graph.NewMemoryClient().WithConnectivityError(errors.New("refused"))
	if _, err := connectRepository(context.Background(), discardLogger(), client, config.GraphConfig{}); err == nil {
		t.Fatalf("expected connectivity error")
	}
}
