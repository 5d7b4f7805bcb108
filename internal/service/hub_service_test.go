package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/vanshika/hubnet/internal/domain"
)

// stubRepository keeps hubs in a map and mimics the store contract.
type stubRepository struct {
	mu           sync.Mutex
	hubs         map[string]domain.Hub
	order        []string
	createCalls  int
	connectCalls int
	listErr      error
	createErr    error
}

func newStubRepository(hubs ...domain.Hub) *stubRepository {
	repo := &stubRepository{hubs: map[string]domain.Hub{}}
	for _, h := range hubs {
		if h.Connections == nil {
			h.Connections = []string{}
		}
		repo.hubs[h.ID] = h
		repo.order = append(repo.order, h.ID)
	}
	return repo
}

func (s *stubRepository) CreateHub(ctx context.Context, hub domain.Hub) (domain.Hub, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.createCalls++
	if s.createErr != nil {
		return domain.Hub{}, s.createErr
	}
	if _, ok := s.hubs[hub.ID]; ok {
		return domain.Hub{}, domain.ErrDuplicateID
	}
	for _, h := range s.hubs {
		if h.Name == hub.Name {
			return domain.Hub{}, domain.ErrDuplicateName
		}
	}
	s.hubs[hub.ID] = hub
	s.order = append(s.order, hub.ID)
	return hub, nil
}

func (s *stubRepository) GetHub(ctx context.Context, id string) (domain.Hub, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	hub, ok := s.hubs[id]
	if !ok {
		return domain.Hub{}, domain.NewNodeNotFoundError(id)
	}
	return hub, nil
}

func (s *stubRepository) ListHubs(ctx context.Context) ([]domain.Hub, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]domain.Hub, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.hubs[id])
	}
	return out, nil
}

func (s *stubRepository) Connect(ctx context.Context, a, b string) (domain.Hub, domain.Hub, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connectCalls++
	ha, hb, err := s.pair(a, b)
	if err != nil {
		return domain.Hub{}, domain.Hub{}, err
	}
	if ha.IsConnected(b) {
		return domain.Hub{}, domain.Hub{}, domain.ErrAlreadyConnected
	}
	ha.Connections = append(append([]string{}, ha.Connections...), b)
	hb.Connections = append(append([]string{}, hb.Connections...), a)
	s.hubs[a], s.hubs[b] = ha, hb
	return ha, hb, nil
}

func (s *stubRepository) Disconnect(ctx context.Context, a, b string) (domain.Hub, domain.Hub, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ha, hb, err := s.pair(a, b)
	if err != nil {
		return domain.Hub{}, domain.Hub{}, err
	}
	ha.Connections = remove(ha.Connections, b)
	hb.Connections = remove(hb.Connections, a)
	s.hubs[a], s.hubs[b] = ha, hb
	return ha, hb, nil
}

func (s *stubRepository) pair(a, b string) (domain.Hub, domain.Hub, error) {
	var missing []string
	ha, ok := s.hubs[a]
	if !ok {
		missing = append(missing, a)
	}
	hb, ok := s.hubs[b]
	if !ok {
		missing = append(missing, b)
	}
	if err := domain.NewNodeNotFoundError(missing...); err != nil {
		return domain.Hub{}, domain.Hub{}, err
	}
	return ha, hb, nil
}

func remove(list []string, id string) []string {
	out := []string{}
	for _, v := range list {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func newTestService(repo HubRepository) *HubService {
	return NewHubService(repo, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestHubService_CreateHub(t *testing.T) {
	repo := newStubRepository()
	svc := newTestService(repo)
	now := time.Date(2024, 4, 20, 12, 0, 0, 0, time.UTC)
	svc.WithClock(func() time.Time { return now })

	hub, err := svc.CreateHub(context.Background(), CreateHubInput{ID: "  HUB-1 ", Name: " Central   Station "})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if hub.ID != "HUB-1" {
		t.Errorf("expected trimmed id, got %q", hub.ID)
	}
	if hub.Name != "Central Station" {
		t.Errorf("expected collapsed name, got %q", hub.Name)
	}
	if !hub.CreatedAt.Equal(now) || !hub.UpdatedAt.Equal(now) {
		t.Errorf("expected timestamps from the service clock, got %v / %v", hub.CreatedAt, hub.UpdatedAt)
	}

	if _, err := svc.CreateHub(context.Background(), CreateHubInput{ID: "HUB-2", Name: "Central Station"}); !errors.Is(err, domain.ErrDuplicateName) {
		t.Fatalf("expected ErrDuplicateName, got %v", err)
	}
}

func TestHubService_IDsKeepInnerWhitespace(t *testing.T) {
	repo := newStubRepository()
	svc := newTestService(repo)
	ctx := context.Background()

	ids := []string{"A  B", "A B", "A\tB"}
	for i, id := range ids {
		hub, err := svc.CreateHub(ctx, CreateHubInput{ID: " " + id + " ", Name: fmt.Sprintf("Hub %d", i)})
		if err != nil {
			t.Fatalf("create %q: expected no error, got %v", id, err)
		}
		if hub.ID != id {
			t.Errorf("expected id %q to be stored verbatim, got %q", id, hub.ID)
		}
	}

	got, err := svc.GetHub(ctx, "A  B")
	if err != nil || got.Name != "Hub 0" {
		t.Fatalf("expected lookup by exact id, got %+v, %v", got, err)
	}
	if _, _, err := svc.Connect(ctx, "A  B", "A B"); err != nil {
		t.Fatalf("expected distinct ids to connect, got %v", err)
	}
}

func TestHubService_CreateHubRejectsBlankInput(t *testing.T) {
	repo := newStubRepository()
	svc := newTestService(repo)

	for _, in := range []CreateHubInput{{ID: "", Name: "x"}, {ID: "x", Name: "   "}} {
		if _, err := svc.CreateHub(context.Background(), in); !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput for %+v, got %v", in, err)
		}
	}
	if repo.createCalls != 0 {
		t.Errorf("expected repository to be untouched, got %d calls", repo.createCalls)
	}
}

func TestHubService_ConnectRejectsSelfLoopBeforeStore(t *testing.T) {
	repo := newStubRepository(domain.Hub{ID: "A", Name: "Alpha"})
	svc := newTestService(repo)

	_, _, err := svc.Connect(context.Background(), "A", " A ")
	if !errors.Is(err, domain.ErrSelfLoop) {
		t.Fatalf("expected ErrSelfLoop, got %v", err)
	}
	if repo.connectCalls != 0 {
		t.Errorf("expected repository to be untouched, got %d calls", repo.connectCalls)
	}
}

func TestHubService_ShortestPathScenarios(t *testing.T) {
	ctx := context.Background()
	repo := newStubRepository(
		domain.Hub{ID: "A", Name: "Alpha"},
		domain.Hub{ID: "B", Name: "Beta"},
		domain.Hub{ID: "C", Name: "Gamma"},
	)
	svc := newTestService(repo)

	if _, _, err := svc.Connect(ctx, "A", "B"); err != nil {
		t.Fatalf("connect A-B: %v", err)
	}
	if _, _, err := svc.Connect(ctx, "B", "C"); err != nil {
		t.Fatalf("connect B-C: %v", err)
	}

	path, found, err := svc.ShortestPath(ctx, "A", "C")
	if err != nil || !found {
		t.Fatalf("expected a path, got found=%v err=%v", found, err)
	}
	if !reflect.DeepEqual(path.Nodes, []string{"A", "B", "C"}) || path.Distance != 2 {
		t.Errorf("unexpected path %v (distance %d)", path.Nodes, path.Distance)
	}

	if _, _, err := svc.Disconnect(ctx, "B", "C"); err != nil {
		t.Fatalf("disconnect B-C: %v", err)
	}
	_, found, err = svc.ShortestPath(ctx, "A", "C")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if found {
		t.Errorf("expected no path after disconnect")
	}

	_, _, err = svc.ShortestPath(ctx, "A", "Z")
	var nf *domain.NodeNotFoundError
	if !errors.As(err, &nf) || !reflect.DeepEqual(nf.IDs, []string{"Z"}) {
		t.Fatalf("expected NodeNotFoundError for Z, got %v", err)
	}

	if _, _, err := svc.ShortestPath(ctx, "", "A"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestHubService_StrictIntegrity(t *testing.T) {
	ctx := context.Background()
	repo := newStubRepository(
		domain.Hub{ID: "A", Name: "Alpha", Connections: []string{"B"}},
		domain.Hub{ID: "B", Name: "Beta"},
	)
	svc := newTestService(repo)

	path, found, err := svc.ShortestPath(ctx, "A", "B")
	if err != nil || !found || path.Distance != 1 {
		t.Fatalf("expected tolerated path, got %v found=%v err=%v", path, found, err)
	}

	svc.WithStrictIntegrity(true)
	_, _, err = svc.ShortestPath(ctx, "A", "B")
	if !errors.Is(err, domain.ErrIntegrity) {
		t.Fatalf("expected ErrIntegrity in strict mode, got %v", err)
	}

	issues, err := svc.Integrity(ctx)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	want := []domain.IntegrityIssue{{Kind: domain.IssueAsymmetricEdge, HubID: "A", NeighborID: "B"}}
	if !reflect.DeepEqual(issues, want) {
		t.Errorf("unexpected issues %v", issues)
	}
}

func TestHubService_ListHubs(t *testing.T) {
	repo := newStubRepository(
		domain.Hub{ID: "C", Name: "Gamma", Connections: []string{"A"}},
		domain.Hub{ID: "A", Name: "Alpha", Connections: []string{"C"}},
		domain.Hub{ID: "B", Name: "Beta"},
	)
	svc := newTestService(repo)

	page, err := svc.ListHubs(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got := []string{page.Hubs[0].ID, page.Hubs[1].ID, page.Hubs[2].ID}; !reflect.DeepEqual(got, []string{"A", "B", "C"}) {
		t.Errorf("expected hubs sorted by id, got %v", got)
	}
	if page.Stats != (domain.HubStats{Hubs: 3, Connections: 1, AvgPerHub: 0.67}) {
		t.Errorf("unexpected stats %+v", page.Stats)
	}

	issues, err := svc.Integrity(context.Background())
	if err != nil || issues == nil || len(issues) != 0 {
		t.Errorf("expected empty non-nil issues, got %v (err %v)", issues, err)
	}
}

func TestHubService_LoadFailureIsWrapped(t *testing.T) {
	boom := errors.New("store offline")
	repo := newStubRepository()
	repo.listErr = boom
	svc := newTestService(repo)

	if _, err := svc.Graph(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}

func TestBulkIngestorSkipsDuplicates(t *testing.T) {
	repo := newStubRepository(domain.Hub{ID: "HUB-1", Name: "Existing"})
	svc := newTestService(repo)
	ingestor := NewBulkIngestor(svc, 3)
	ctx := context.Background()

	report, err := ingestor.IngestHubs(ctx, []CreateHubInput{
		{ID: "HUB-1", Name: "Dup"},
		{ID: "HUB-2", Name: "Second"},
		{ID: "HUB-3", Name: "Third"},
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if report != (IngestReport{Created: 2, Skipped: 1}) {
		t.Errorf("unexpected hub report %+v", report)
	}

	report, err = ingestor.IngestConnections(ctx, []EdgeInput{
		{A: "HUB-1", B: "HUB-2"},
		{A: "HUB-2", B: "HUB-1"},
		{A: "HUB-2", B: "HUB-3"},
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if report.Created+report.Skipped != 3 || report.Skipped != 1 {
		t.Errorf("unexpected connection report %+v", report)
	}
}

func TestBulkIngestorAggregatesErrors(t *testing.T) {
	repo := newStubRepository()
	repo.createErr = errors.New("boom")
	svc := newTestService(repo)
	ingestor := NewBulkIngestor(svc, 2)

	report, err := ingestor.IngestHubs(context.Background(), []CreateHubInput{
		{ID: "HUB-1", Name: "One"},
		{ID: "HUB-2", Name: "Two"},
	})
	if err == nil {
		t.Fatalf("expected aggregated error, got nil")
	}
	var taskErr *TaskError
	if !errors.As(err, &taskErr) {
		t.Fatalf("expected TaskError type, got %T", err)
	}
	if len(taskErr.Errors) != 2 || report.Failed != 2 {
		t.Fatalf("expected 2 collected errors, got %d (report %+v)", len(taskErr.Errors), report)
	}
}

func TestBulkIngestorHonoursCancellation(t *testing.T) {
	svc := newTestService(newStubRepository())
	ingestor := NewBulkIngestor(svc, 2)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ingestor.IngestHubs(ctx, []CreateHubInput{{ID: "HUB-1", Name: "One"}})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
