package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/vanshika/hubnet/internal/domain"
)

// TaskError accumulates multiple errors produced during bulk ingestion.
type TaskError struct {
	Errors []error
}

func (e *TaskError) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msg := fmt.Sprintf("%d errors:", len(e.Errors))
	for _, err := range e.Errors {
		msg += " " + err.Error() + ";"
	}
	return msg
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (e *TaskError) Unwrap() []error {
	return e.Errors
}

func (e *TaskError) append(err error) {
	if err == nil {
		return
	}
	e.Errors = append(e.Errors, err)
}

func (e *TaskError) asError() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e
}

// IngestReport counts what a bulk run did.
type IngestReport struct {
	Created int
	Skipped int
	Failed  int
}

// BulkIngestor seeds hubs and connections with bounded concurrency.
type BulkIngestor struct {
	service *HubService
	workers int
}

// NewBulkIngestor creates a new BulkIngestor instance with the provided concurrency.
func NewBulkIngestor(service *HubService, workers int) *BulkIngestor {
	if workers <= 0 {
		workers = 4
	}
	return &BulkIngestor{
		service: service,
		workers: workers,
	}
}

// IngestHubs creates the given hubs. Hubs whose id or name already exists are skipped.
func (bi *BulkIngestor) IngestHubs(ctx context.Context, hubs []CreateHubInput) (IngestReport, error) {
	return bi.run(ctx, len(hubs), func(ctx context.Context, idx int) error {
		_, err := bi.service.CreateHub(ctx, hubs[idx])
		if err != nil {
			return fmt.Errorf("hub %s: %w", hubs[idx].ID, err)
		}
		return nil
	})
}

// IngestConnections creates the given edges. Edges that already exist are skipped.
func (bi *BulkIngestor) IngestConnections(ctx context.Context, edges []EdgeInput) (IngestReport, error) {
	return bi.run(ctx, len(edges), func(ctx context.Context, idx int) error {
		_, _, err := bi.service.Connect(ctx, edges[idx].A, edges[idx].B)
		if err != nil {
			return fmt.Errorf("connection %s-%s: %w", edges[idx].A, edges[idx].B, err)
		}
		return nil
	})
}

func (bi *BulkIngestor) run(ctx context.Context, total int, workerFn func(ctx context.Context, idx int) error) (IngestReport, error) {
	var (
		report  IngestReport
		taskErr TaskError
		mu      sync.Mutex
	)
	if total == 0 {
		return report, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bi.workers)

	for i := 0; i < total; i++ {
		if gctx.Err() != nil {
			break
		}
		idx := i
		g.Go(func() error {
			err := workerFn(gctx, idx)
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				report.Created++
			case isSkippable(err):
				report.Skipped++
			default:
				report.Failed++
				taskErr.append(err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return report, err
	}
	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, taskErr.asError()
}

func isSkippable(err error) bool {
	return errors.Is(err, domain.ErrDuplicateID) ||
		errors.Is(err, domain.ErrDuplicateName) ||
		errors.Is(err, domain.ErrAlreadyConnected)
}
