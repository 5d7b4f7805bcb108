package generator

// Config drives the synthetic hub-network generator.
type Config struct {
	NumHubs   int
	AvgDegree float64
	Seed      int64
}

// DefaultConfig returns a small network suitable for local seeding.
func DefaultConfig() Config {
	return Config{
		NumHubs:   200,
		AvgDegree: 3,
		Seed:      42,
	}
}

// maxEdges is the number of distinct undirected pairs among n hubs.
func maxEdges(n int) int {
	if n < 2 {
		return 0
	}
	return n * (n - 1) / 2
}
