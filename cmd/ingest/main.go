package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/vanshika/hubnet/internal/backend"
	"github.com/vanshika/hubnet/internal/config"
	"github.com/vanshika/hubnet/internal/generator"
	"github.com/vanshika/hubnet/internal/logging"
	"github.com/vanshika/hubnet/internal/service"
)

func main() {
	var (
		datasetPath = flag.String("dataset", "./seed-data/hubs.json", "Path to the hub dataset file")
		workers     = flag.Int("workers", 4, "Number of concurrent workers for ingestion")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging).With("component", "ingest")
	if err := run(logger, cfg, *datasetPath, *workers); err != nil {
		logger.Error("ingestion failed", "error", err)
		os.Exit(1)
	}
}

// run owns the store for the whole ingestion so it is closed on every exit path.
func run(logger *slog.Logger, cfg config.Config, datasetPath string, workers int) error {
	dataset, err := generator.LoadDataset(datasetPath)
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}
	if len(dataset.Hubs) == 0 {
		return fmt.Errorf("hub dataset empty: %s", datasetPath)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, err := backend.Open(ctx, logger, cfg)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.Store.Backend, err)
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			logger.Warn("closing hub store failed", "error", err)
		}
	}()

	svc := service.NewHubService(store, logger)
	ingestor := service.NewBulkIngestor(svc, workers)

	hubs := make([]service.CreateHubInput, 0, len(dataset.Hubs))
	for _, h := range dataset.Hubs {
		hubs = append(hubs, service.CreateHubInput{ID: h.HubID, Name: h.Name})
	}
	edges := make([]service.EdgeInput, 0, len(dataset.Connections))
	for _, c := range dataset.Connections {
		edges = append(edges, service.EdgeInput{A: c.A, B: c.B})
	}

	start := time.Now()
	logger.Info("ingesting hubs", "count", humanize.Comma(int64(len(hubs))), "workers", workers)
	hubReport, err := ingestor.IngestHubs(ctx, hubs)
	if err != nil {
		logger.Warn("hub ingestion stopped", "created", hubReport.Created, "failed", hubReport.Failed)
		return fmt.Errorf("ingest hubs: %w", err)
	}

	logger.Info("ingesting connections", "count", humanize.Comma(int64(len(edges))))
	edgeReport, err := ingestor.IngestConnections(ctx, edges)
	if err != nil {
		logger.Warn("connection ingestion stopped", "created", edgeReport.Created, "failed", edgeReport.Failed)
		return fmt.Errorf("ingest connections: %w", err)
	}

	logger.Info("ingestion complete",
		"duration", time.Since(start).Round(time.Millisecond).String(),
		"hubs_created", humanize.Comma(int64(hubReport.Created)),
		"hubs_skipped", humanize.Comma(int64(hubReport.Skipped)),
		"connections_created", humanize.Comma(int64(edgeReport.Created)),
		"connections_skipped", humanize.Comma(int64(edgeReport.Skipped)),
	)
	return nil
}
