package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vanshika/hubnet/internal/domain"
	"github.com/vanshika/hubnet/internal/graphindex"
	"github.com/vanshika/hubnet/internal/metrics"
)

// HubRepository is the storage contract required by the hub service. Both the
// Neo4j repository and the Badger document store satisfy it.
type HubRepository interface {
	CreateHub(ctx context.Context, hub domain.Hub) (domain.Hub, error)
	GetHub(ctx context.Context, id string) (domain.Hub, error)
	ListHubs(ctx context.Context) ([]domain.Hub, error)
	Connect(ctx context.Context, a, b string) (domain.Hub, domain.Hub, error)
	Disconnect(ctx context.Context, a, b string) (domain.Hub, domain.Hub, error)
}

// HubService validates input, delegates persistence to the repository and
// answers graph queries from a freshly built index.
type HubService struct {
	repo   HubRepository
	logger *slog.Logger
	nowFn  func() time.Time
	strict bool
}

// NewHubService constructs a HubService. A nil logger falls back to slog.Default.
func NewHubService(repo HubRepository, logger *slog.Logger) *HubService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HubService{
		repo:   repo,
		logger: logger.With("component", "hub_service"),
		nowFn:  time.Now,
	}
}

// WithClock overrides the time provider (used primarily in tests).
func (s *HubService) WithClock(nowFn func() time.Time) {
	if nowFn != nil {
		s.nowFn = nowFn
	}
}

// WithStrictIntegrity makes path queries fail when the loaded graph violates
// its invariants instead of answering from the tolerated view.
func (s *HubService) WithStrictIntegrity(strict bool) {
	s.strict = strict
}

// CreateHub registers a new hub with no connections.
func (s *HubService) CreateHub(ctx context.Context, input CreateHubInput) (domain.Hub, error) {
	id := sanitizeID(input.ID)
	name := sanitizeString(input.Name)
	if id == "" || name == "" {
		return domain.Hub{}, fmt.Errorf("%w: hubId and name are required", domain.ErrInvalidInput)
	}

	now := s.nowFn().UTC()
	hub, err := s.repo.CreateHub(ctx, domain.Hub{
		ID:          id,
		Name:        name,
		Connections: []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return domain.Hub{}, err
	}
	s.logger.Info("hub created", "hub_id", hub.ID, "name", hub.Name)
	return hub, nil
}

// GetHub returns a single hub.
func (s *HubService) GetHub(ctx context.Context, id string) (domain.Hub, error) {
	id = sanitizeID(id)
	if id == "" {
		return domain.Hub{}, fmt.Errorf("%w: hubId is required", domain.ErrInvalidInput)
	}
	return s.repo.GetHub(ctx, id)
}

// ListHubs returns all hubs ordered by id together with network stats.
func (s *HubService) ListHubs(ctx context.Context) (HubsPage, error) {
	hubs, err := s.repo.ListHubs(ctx)
	if err != nil {
		return HubsPage{}, err
	}
	sortHubs(hubs)
	return HubsPage{
		Hubs:  hubs,
		Stats: graphindex.Build(hubs).Stats(),
	}, nil
}

// Connect creates the undirected edge a-b.
func (s *HubService) Connect(ctx context.Context, a, b string) (domain.Hub, domain.Hub, error) {
	ha, hb, err := s.mutateEdge(ctx, "connect", a, b, s.repo.Connect)
	if err == nil {
		s.logger.Info("hubs connected", "a", ha.ID, "b", hb.ID)
	}
	return ha, hb, err
}

// Disconnect removes the undirected edge a-b; removing a missing edge succeeds.
func (s *HubService) Disconnect(ctx context.Context, a, b string) (domain.Hub, domain.Hub, error) {
	ha, hb, err := s.mutateEdge(ctx, "disconnect", a, b, s.repo.Disconnect)
	if err == nil {
		s.logger.Info("hubs disconnected", "a", ha.ID, "b", hb.ID)
	}
	return ha, hb, err
}

func (s *HubService) mutateEdge(
	ctx context.Context,
	op, a, b string,
	fn func(ctx context.Context, a, b string) (domain.Hub, domain.Hub, error),
) (ha, hb domain.Hub, err error) {
	defer func() { metrics.ObserveEdgeMutation(op, err) }()

	a, b = sanitizeID(a), sanitizeID(b)
	if a == "" || b == "" {
		return domain.Hub{}, domain.Hub{}, fmt.Errorf("%w: both hub ids are required", domain.ErrInvalidInput)
	}
	if op == "connect" && a == b {
		return domain.Hub{}, domain.Hub{}, domain.ErrSelfLoop
	}
	return fn(ctx, a, b)
}

// ShortestPath returns the fewest-hop path between two hubs. found is false
// when both hubs exist but no path connects them.
func (s *HubService) ShortestPath(ctx context.Context, source, destination string) (path domain.Path, found bool, err error) {
	start := time.Now()
	defer func() { metrics.ObservePathQuery(path, found, err, time.Since(start)) }()

	source, destination = sanitizeID(source), sanitizeID(destination)
	if source == "" || destination == "" {
		return domain.Path{}, false, fmt.Errorf("%w: source and destination are required", domain.ErrInvalidInput)
	}

	ix, err := s.loadIndex(ctx)
	if err != nil {
		return domain.Path{}, false, err
	}
	if s.strict {
		if ierr := ix.Err(); ierr != nil {
			return domain.Path{}, false, ierr
		}
	}
	return ix.ShortestPath(source, destination)
}

// Graph returns the node/edge view of the network.
func (s *HubService) Graph(ctx context.Context) (domain.GraphSnapshot, error) {
	ix, err := s.loadIndex(ctx)
	if err != nil {
		return domain.GraphSnapshot{}, err
	}
	return ix.Snapshot(), nil
}

// Integrity lists every invariant violation in the stored graph.
func (s *HubService) Integrity(ctx context.Context) ([]domain.IntegrityIssue, error) {
	ix, err := s.loadIndex(ctx)
	if err != nil {
		return nil, err
	}
	issues := ix.Issues()
	if issues == nil {
		issues = []domain.IntegrityIssue{}
	}
	return issues, nil
}

func (s *HubService) loadIndex(ctx context.Context) (*graphindex.Index, error) {
	hubs, err := s.repo.ListHubs(ctx)
	if err != nil {
		return nil, fmt.Errorf("load graph: %w", err)
	}
	ix := graphindex.Build(hubs)
	metrics.SetIntegrityIssues(len(ix.Issues()))
	if ierr := ix.Err(); ierr != nil {
		s.logger.Error("stored graph violates invariants", "issues", len(ix.Issues()), "error", ierr)
	}
	return ix, nil
}
