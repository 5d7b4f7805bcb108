package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/vanshika/hubnet/internal/domain"
	"github.com/vanshika/hubnet/internal/graph"
)

const constraintViolationCode = "Neo.ClientError.Schema.ConstraintValidationFailed"

// errUnchanged rolls back a transaction that turned out to be a no-op.
var errUnchanged = errors.New("no change")

// Repository stores hubs as :Hub nodes whose connections live in a list
// property, mirroring the document layout the API exposes.
type Repository struct {
	client graph.Client
	nowFn  func() time.Time
}

// New instantiates a Repository backed by the supplied graph client.
func New(client graph.Client) *Repository {
	return &Repository{client: client, nowFn: time.Now}
}

// WithClock overrides the time provider (used primarily in tests).
func (r *Repository) WithClock(nowFn func() time.Time) {
	if nowFn != nil {
		r.nowFn = nowFn
	}
}

// EnsureSchema creates the uniqueness constraints on hub id and name.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaCypher {
		if _, err := r.client.ExecuteWrite(ctx, stmt, nil); err != nil {
			return fmt.Errorf("ensure hub schema: %w", err)
		}
	}
	return nil
}

// Probe checks connectivity to the graph database.
func (r *Repository) Probe(ctx context.Context) error {
	return r.client.VerifyConnectivity(ctx)
}

// Close releases the underlying driver.
func (r *Repository) Close(ctx context.Context) error {
	return r.client.Close(ctx)
}

// CreateHub inserts a hub with no connections.
func (r *Repository) CreateHub(ctx context.Context, hub domain.Hub) (domain.Hub, error) {
	if hub.ID == "" || hub.Name == "" {
		return domain.Hub{}, fmt.Errorf("%w: hub id and name are required", domain.ErrInvalidInput)
	}
	if hub.CreatedAt.IsZero() {
		hub.CreatedAt = r.nowFn().UTC()
	}
	if hub.UpdatedAt.IsZero() {
		hub.UpdatedAt = hub.CreatedAt
	}
	hub.Connections = []string{}

	err := r.client.ExecuteWriteTx(ctx, func(ctx context.Context, tx graph.Runner) error {
		res, err := tx.Run(ctx, hubConflictsCypher, map[string]any{
			"hubId": hub.ID,
			"name":  hub.Name,
		})
		if err != nil {
			return fmt.Errorf("check hub conflicts: %w", err)
		}
		if len(res.Records) > 0 {
			if toBool(res.Records[0]["idTaken"]) {
				return domain.ErrDuplicateID
			}
			if toBool(res.Records[0]["nameTaken"]) {
				return domain.ErrDuplicateName
			}
		}

		_, err = tx.Run(ctx, createHubCypher, map[string]any{
			"hubId":     hub.ID,
			"name":      hub.Name,
			"createdAt": formatTime(hub.CreatedAt),
			"updatedAt": formatTime(hub.UpdatedAt),
		})
		return err
	})
	if err != nil {
		if mapped := mapConstraintError(err); mapped != nil {
			return domain.Hub{}, mapped
		}
		if isDomainError(err) {
			return domain.Hub{}, err
		}
		return domain.Hub{}, fmt.Errorf("create hub %s: %w", hub.ID, err)
	}
	return hub, nil
}

// GetHub returns a single hub by id.
func (r *Repository) GetHub(ctx context.Context, id string) (domain.Hub, error) {
	res, err := r.client.ExecuteRead(ctx, getHubCypher, map[string]any{"hubId": id})
	if err != nil {
		return domain.Hub{}, fmt.Errorf("get hub %s: %w", id, err)
	}
	if len(res.Records) == 0 {
		return domain.Hub{}, domain.NewNodeNotFoundError(id)
	}
	return hubFromRecord(res.Records[0]), nil
}

// ListHubs returns every hub ordered by id.
func (r *Repository) ListHubs(ctx context.Context) ([]domain.Hub, error) {
	res, err := r.client.ExecuteRead(ctx, listHubsCypher, nil)
	if err != nil {
		return nil, fmt.Errorf("list hubs query: %w", err)
	}
	hubs := make([]domain.Hub, 0, len(res.Records))
	for _, record := range res.Records {
		hubs = append(hubs, hubFromRecord(record))
	}
	return hubs, nil
}

// Connect adds b to a's connections and a to b's in one transaction. Both
// nodes are write-locked before their lists are read, so concurrent edge
// mutations touching either hub are serialized.
func (r *Repository) Connect(ctx context.Context, a, b string) (domain.Hub, domain.Hub, error) {
	if a == b {
		return domain.Hub{}, domain.Hub{}, domain.ErrSelfLoop
	}
	return r.mutateEdge(ctx, a, b, func(ha, hb *domain.Hub) (bool, error) {
		if ha.IsConnected(b) {
			return false, domain.ErrAlreadyConnected
		}
		ha.Connections = append(ha.Connections, b)
		if !hb.IsConnected(a) {
			hb.Connections = append(hb.Connections, a)
		}
		return true, nil
	})
}

// Disconnect removes the edge between a and b in both directions. Removing a
// missing edge is a no-op.
func (r *Repository) Disconnect(ctx context.Context, a, b string) (domain.Hub, domain.Hub, error) {
	if a == b {
		hub, err := r.GetHub(ctx, a)
		return hub, hub, err
	}
	return r.mutateEdge(ctx, a, b, func(ha, hb *domain.Hub) (bool, error) {
		if !ha.IsConnected(b) && !hb.IsConnected(a) {
			return false, nil
		}
		ha.Connections = without(ha.Connections, b)
		hb.Connections = without(hb.Connections, a)
		return true, nil
	})
}

func (r *Repository) mutateEdge(ctx context.Context, a, b string, apply func(ha, hb *domain.Hub) (bool, error)) (domain.Hub, domain.Hub, error) {
	var ha, hb domain.Hub
	err := r.client.ExecuteWriteTx(ctx, func(ctx context.Context, tx graph.Runner) error {
		res, err := tx.Run(ctx, lockHubsCypher, map[string]any{"hubIds": []string{a, b}})
		if err != nil {
			return fmt.Errorf("lock hubs: %w", err)
		}
		found := make(map[string]domain.Hub, len(res.Records))
		for _, record := range res.Records {
			hub := hubFromRecord(record)
			found[hub.ID] = hub
		}
		var missing []string
		for _, id := range []string{a, b} {
			if _, ok := found[id]; !ok {
				missing = append(missing, id)
			}
		}
		if len(missing) > 0 {
			return domain.NewNodeNotFoundError(missing...)
		}

		ha, hb = found[a], found[b]
		changed, err := apply(&ha, &hb)
		if err != nil {
			return err
		}
		if !changed {
			return errUnchanged
		}

		now := r.nowFn().UTC()
		ha.UpdatedAt, hb.UpdatedAt = now, now
		_, err = tx.Run(ctx, writeEdgeCypher, map[string]any{
			"a":            a,
			"b":            b,
			"aConnections": ha.Connections,
			"bConnections": hb.Connections,
			"updatedAt":    formatTime(now),
		})
		if err != nil {
			return fmt.Errorf("write connections: %w", err)
		}
		return nil
	})
	switch {
	case errors.Is(err, errUnchanged):
		return ha, hb, nil
	case err == nil:
		return ha, hb, nil
	case isDomainError(err):
		return domain.Hub{}, domain.Hub{}, err
	default:
		return domain.Hub{}, domain.Hub{}, fmt.Errorf("update edge %s-%s: %w", a, b, err)
	}
}

func hubFromRecord(record graph.Record) domain.Hub {
	hub := domain.Hub{
		ID:          toString(record["hubId"]),
		Name:        toString(record["name"]),
		Connections: toStringSlice(record["connections"]),
	}
	if created := toTimePtr(record["createdAt"]); created != nil {
		hub.CreatedAt = *created
	}
	if updated := toTimePtr(record["updatedAt"]); updated != nil {
		hub.UpdatedAt = *updated
	}
	return hub
}

// mapConstraintError turns a uniqueness violation raised by a concurrent
// create into the matching duplicate error.
func mapConstraintError(err error) error {
	var neoErr *neo4j.Neo4jError
	if !errors.As(err, &neoErr) || neoErr.Code != constraintViolationCode {
		return nil
	}
	if strings.Contains(neoErr.Msg, "`name`") {
		return domain.ErrDuplicateName
	}
	return domain.ErrDuplicateID
}

func isDomainError(err error) bool {
	for _, target := range []error{
		domain.ErrNodeNotFound,
		domain.ErrSelfLoop,
		domain.ErrAlreadyConnected,
		domain.ErrDuplicateID,
		domain.ErrDuplicateName,
		domain.ErrInvalidInput,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func without(list []string, id string) []string {
	out := make([]string, 0, len(list))
	for _, v := range list {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func toString(val any) string {
	switch v := val.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	case []byte:
		return string(v)
	default:
		return ""
	}
}

func toBool(val any) bool {
	b, _ := val.(bool)
	return b
}

func toStringSlice(val any) []string {
	out := []string{}
	switch v := val.(type) {
	case []string:
		out = append(out, v...)
	case []any:
		for _, item := range v {
			if s := toString(item); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

func toTimePtr(val any) *time.Time {
	switch v := val.(type) {
	case time.Time:
		return &v
	case string:
		if v == "" {
			return nil
		}
		if parsed, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return &parsed
		}
		if parsed, err := time.Parse(time.RFC3339, v); err == nil {
			return &parsed
		}
	}
	return nil
}

var schemaCypher = []string{
	`CREATE CONSTRAINT hub_id_unique IF NOT EXISTS FOR (h:Hub) REQUIRE h.hubId IS UNIQUE`,
	`CREATE CONSTRAINT hub_name_unique IF NOT EXISTS FOR (h:Hub) REQUIRE h.name IS UNIQUE`,
}

const hubConflictsCypher = `
OPTIONAL MATCH (byId:Hub {hubId: $hubId})
WITH byId
OPTIONAL MATCH (byName:Hub {name: $name})
RETURN byId IS NOT NULL AS idTaken, byName IS NOT NULL AS nameTaken
`

const createHubCypher = `
CREATE (h:Hub {
	hubId: $hubId,
	name: $name,
	connections: [],
	createdAt: $createdAt,
	updatedAt: $updatedAt
})
RETURN h.hubId AS hubId
`

const getHubCypher = `
MATCH (h:Hub {hubId: $hubId})
RETURN h.hubId AS hubId, h.name AS name, h.connections AS connections,
       h.createdAt AS createdAt, h.updatedAt AS updatedAt
`

const listHubsCypher = `
MATCH (h:Hub)
RETURN h.hubId AS hubId, h.name AS name, h.connections AS connections,
       h.createdAt AS createdAt, h.updatedAt AS updatedAt
ORDER BY h.hubId
`

// Setting a property takes the node's write lock; reads that follow in the
// same transaction see the latest committed lists.
const lockHubsCypher = `
MATCH (h:Hub)
WHERE h.hubId IN $hubIds
SET h._lock = true
RETURN h.hubId AS hubId, h.name AS name, h.connections AS connections,
       h.createdAt AS createdAt, h.updatedAt AS updatedAt
`

const writeEdgeCypher = `
MATCH (a:Hub {hubId: $a}), (b:Hub {hubId: $b})
SET a.connections = $aConnections,
    b.connections = $bConnections,
    a.updatedAt = $updatedAt,
    b.updatedAt = $updatedAt
REMOVE a._lock, b._lock
`
