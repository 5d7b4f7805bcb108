package service

import (
	"sort"

	"github.com/vanshika/hubnet/internal/domain"
)

// CreateHubInput is the inbound payload for registering a hub.
type CreateHubInput struct {
	ID   string
	Name string
}

// EdgeInput names the two endpoints of an undirected connection.
type EdgeInput struct {
	A string
	B string
}

// HubsPage is the list view: hubs ordered by id plus network stats.
type HubsPage struct {
	Hubs  []domain.Hub
	Stats domain.HubStats
}

func sortHubs(hubs []domain.Hub) {
	sort.SliceStable(hubs, func(i, j int) bool { return hubs[i].ID < hubs[j].ID })
}
