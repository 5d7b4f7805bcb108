package generator

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"
)

// HubRecord is one hub entry of a dataset file.
type HubRecord struct {
	HubID string `json:"hubId"`
	Name  string `json:"name"`
}

// ConnectionRecord is one undirected connection of a dataset file.
type ConnectionRecord struct {
	A string `json:"a"`
	B string `json:"b"`
}

// Dataset contains the generated hubs and connections.
type Dataset struct {
	Hubs        []HubRecord        `json:"hubs"`
	Connections []ConnectionRecord `json:"connections"`
}

// Generator produces synthetic hub networks.
type Generator struct {
	cfg       Config
	rand      *rand.Rand
	fragments nameFragments
}

// New returns a configured Generator instance.
func New(cfg Config) *Generator {
	if cfg.NumHubs <= 0 {
		cfg.NumHubs = DefaultConfig().NumHubs
	}
	if cfg.AvgDegree < 0 {
		cfg.AvgDegree = 0
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}

	return &Generator{
		cfg:       cfg,
		rand:      rand.New(rand.NewSource(cfg.Seed)),
		fragments: defaultNameFragments(),
	}
}

// Generate builds the hubs and a set of undirected connections with no self
// loops and no repeated pairs. Every hub after the first is attached to an
// earlier one while the edge budget allows, so small budgets still yield long
// paths. It respects context cancellation.
func (g *Generator) Generate(ctx context.Context) (Dataset, error) {
	n := g.cfg.NumHubs
	hubs := make([]HubRecord, n)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return Dataset{}, err
		}
		id := fmt.Sprintf("HUB-%06d", i+1)
		hubs[i] = HubRecord{HubID: id, Name: g.randomName(i + 1)}
	}

	target := int(math.Round(float64(n) * g.cfg.AvgDegree / 2))
	if limit := maxEdges(n); target > limit {
		target = limit
	}

	seen := make(map[[2]int]struct{}, target)
	connections := make([]ConnectionRecord, 0, target)
	add := func(i, j int) bool {
		if i == j {
			return false
		}
		if i > j {
			i, j = j, i
		}
		key := [2]int{i, j}
		if _, dup := seen[key]; dup {
			return false
		}
		seen[key] = struct{}{}
		connections = append(connections, ConnectionRecord{A: hubs[i].HubID, B: hubs[j].HubID})
		return true
	}

	for i := 1; i < n && len(connections) < target; i++ {
		add(i, g.rand.Intn(i))
	}
	for len(connections) < target {
		if err := ctx.Err(); err != nil {
			return Dataset{}, err
		}
		add(g.rand.Intn(n), g.rand.Intn(n))
	}

	return Dataset{Hubs: hubs, Connections: connections}, nil
}

func (g *Generator) randomName(seq int) string {
	prefix := g.fragments.places[g.rand.Intn(len(g.fragments.places))]
	kind := g.fragments.kinds[g.rand.Intn(len(g.fragments.kinds))]
	return fmt.Sprintf("%s %s %d", prefix, kind, seq)
}

type nameFragments struct {
	places []string
	kinds  []string
}

func defaultNameFragments() nameFragments {
	return nameFragments{
		places: []string{"Harbor", "Summit", "Riverside", "Northgate", "Lakeview", "Eastfield", "Westbrook", "Ironbridge", "Cedar", "Mill"},
		kinds:  []string{"Depot", "Terminal", "Exchange", "Junction", "Station", "Yard"},
	}
}
