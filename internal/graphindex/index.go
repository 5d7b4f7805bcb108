// Package graphindex builds an in-memory adjacency mapping from stored hub
// records and answers unweighted shortest-path queries over it.
//
// An Index is immutable once built and is meant to be rebuilt from a fresh
// store snapshot before each query. Anomalies in the snapshot (edges to
// unknown hubs, one-sided edges, repeated ids) never make Build fail; they are
// recorded as integrity issues so callers can surface them.
package graphindex

import (
	"math"

	"github.com/emirpasic/gods/queues/linkedlistqueue"

	"github.com/vanshika/hubnet/internal/domain"
)

// Index is the adjacency view of one hub snapshot.
type Index struct {
	order     []string
	labels    map[string]string
	adjacency map[string][]string
	issues    []domain.IntegrityIssue
}

// Build constructs the adjacency mapping for hubs. Neighbor order is preserved
// as stored, which fixes tie-breaking between equally short paths.
func Build(hubs []domain.Hub) *Index {
	ix := &Index{
		order:     make([]string, 0, len(hubs)),
		labels:    make(map[string]string, len(hubs)),
		adjacency: make(map[string][]string, len(hubs)),
	}

	names := make(map[string]string, len(hubs))
	for _, hub := range hubs {
		if _, seen := ix.adjacency[hub.ID]; seen {
			ix.report(domain.IssueDuplicateID, hub.ID, "")
		} else {
			ix.order = append(ix.order, hub.ID)
			ix.labels[hub.ID] = hub.Name
			ix.adjacency[hub.ID] = nil
		}
		if owner, taken := names[hub.Name]; taken && owner != hub.ID {
			ix.report(domain.IssueDuplicateName, hub.ID, "")
		} else {
			names[hub.Name] = hub.ID
		}
	}

	for _, hub := range hubs {
		seen := make(map[string]struct{}, len(ix.adjacency[hub.ID])+len(hub.Connections))
		for _, existing := range ix.adjacency[hub.ID] {
			seen[existing] = struct{}{}
		}
		for _, nbr := range hub.Connections {
			switch {
			case nbr == hub.ID:
				ix.report(domain.IssueSelfLoop, hub.ID, nbr)
				continue
			case !ix.Has(nbr):
				ix.report(domain.IssueDanglingNeighbor, hub.ID, nbr)
				continue
			}
			if _, dup := seen[nbr]; dup {
				ix.report(domain.IssueDuplicateNeighbor, hub.ID, nbr)
				continue
			}
			seen[nbr] = struct{}{}
			ix.adjacency[hub.ID] = append(ix.adjacency[hub.ID], nbr)
		}
	}

	for _, id := range ix.order {
		for _, nbr := range ix.adjacency[id] {
			if !contains(ix.adjacency[nbr], id) {
				ix.report(domain.IssueAsymmetricEdge, id, nbr)
			}
		}
	}

	return ix
}

// Has reports whether id is a key of the adjacency mapping.
func (ix *Index) Has(id string) bool {
	_, ok := ix.adjacency[id]
	return ok
}

// Len returns the number of distinct hubs in the index.
func (ix *Index) Len() int {
	return len(ix.order)
}

// Neighbors returns a copy of id's neighbor list, or nil for unknown ids.
func (ix *Index) Neighbors(id string) []string {
	return append([]string(nil), ix.adjacency[id]...)
}

// Issues returns the integrity issues found while building.
func (ix *Index) Issues() []domain.IntegrityIssue {
	return append([]domain.IntegrityIssue(nil), ix.issues...)
}

// Err returns a *domain.IntegrityError when the snapshot was inconsistent.
func (ix *Index) Err() error {
	if len(ix.issues) == 0 {
		return nil
	}
	return &domain.IntegrityError{Issues: ix.Issues()}
}

// ShortestPath returns a fewest-hops path from source to destination.
// found is false when the hubs lie in different components. A
// *domain.NodeNotFoundError is returned when either id is unknown.
func (ix *Index) ShortestPath(source, destination string) (path domain.Path, found bool, err error) {
	var missing []string
	if !ix.Has(source) {
		missing = append(missing, source)
	}
	if !ix.Has(destination) && destination != source {
		missing = append(missing, destination)
	}
	if len(missing) > 0 {
		return domain.Path{}, false, domain.NewNodeNotFoundError(missing...)
	}

	path = domain.Path{Source: source, Destination: destination}
	if source == destination {
		path.Nodes = []string{source}
		return path, true, nil
	}

	visited := map[string]struct{}{source: {}}
	parent := make(map[string]string)
	frontier := linkedlistqueue.New()
	frontier.Enqueue(source)

	for !frontier.Empty() {
		head, _ := frontier.Dequeue()
		current := head.(string)
		for _, next := range ix.adjacency[current] {
			if _, ok := visited[next]; ok {
				continue
			}
			visited[next] = struct{}{}
			parent[next] = current
			if next == destination {
				path.Nodes = walkBack(parent, source, destination)
				path.Distance = len(path.Nodes) - 1
				return path, true, nil
			}
			frontier.Enqueue(next)
		}
	}
	return path, false, nil
}

// Snapshot returns the visualization view, one edge per undirected pair.
func (ix *Index) Snapshot() domain.GraphSnapshot {
	snap := domain.GraphSnapshot{
		Nodes: make([]domain.GraphNode, 0, len(ix.order)),
		Edges: []domain.GraphEdge{},
	}
	emitted := make(map[[2]string]struct{})
	for _, id := range ix.order {
		snap.Nodes = append(snap.Nodes, domain.GraphNode{ID: id, Label: ix.labels[id]})
		for _, nbr := range ix.adjacency[id] {
			key := [2]string{id, nbr}
			if nbr < id {
				key = [2]string{nbr, id}
			}
			if _, done := emitted[key]; done {
				continue
			}
			emitted[key] = struct{}{}
			snap.Edges = append(snap.Edges, domain.GraphEdge{Source: id, Target: nbr})
		}
	}
	return snap
}

// Stats counts hubs and undirected connections.
func (ix *Index) Stats() domain.HubStats {
	stats := domain.HubStats{Hubs: len(ix.order)}
	if stats.Hubs == 0 {
		return stats
	}
	entries := 0
	for _, id := range ix.order {
		entries += len(ix.adjacency[id])
	}
	stats.Connections = len(ix.Snapshot().Edges)
	stats.AvgPerHub = math.Round(float64(entries)/float64(stats.Hubs)*100) / 100
	return stats
}

func (ix *Index) report(kind domain.IntegrityIssueKind, hubID, neighborID string) {
	ix.issues = append(ix.issues, domain.IntegrityIssue{Kind: kind, HubID: hubID, NeighborID: neighborID})
}

func walkBack(parent map[string]string, source, destination string) []string {
	nodes := []string{destination}
	for at := destination; at != source; {
		at = parent[at]
		nodes = append(nodes, at)
	}
	for i, j := 0, len(nodes)-1; i < j; i, j = i+1, j-1 {
		nodes[i], nodes[j] = nodes[j], nodes[i]
	}
	return nodes
}

func contains(list []string, id string) bool {
	for _, v := range list {
		if v == id {
			return true
		}
	}
	return false
}
