package domain

import "time"

// Hub is a named node in the hub network.
type Hub struct {
	ID          string
	Name        string
	Connections []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsConnected reports whether other appears in the hub's neighbor list.
func (h Hub) IsConnected(other string) bool {
	for _, id := range h.Connections {
		if id == other {
			return true
		}
	}
	return false
}

// HubStats summarises the network for list views.
type HubStats struct {
	Hubs        int
	Connections int
	AvgPerHub   float64
}
