package domain

// Path is an ordered walk from Source to Destination, both inclusive.
type Path struct {
	Source      string
	Destination string
	Nodes       []string
	Distance    int
}

// GraphNode is a vertex in a visualization snapshot.
type GraphNode struct {
	ID    string
	Label string
}

// GraphEdge is a single undirected connection in a visualization snapshot.
type GraphEdge struct {
	Source string
	Target string
}

// GraphSnapshot is the node/edge view of the whole network.
type GraphSnapshot struct {
	Nodes []GraphNode
	Edges []GraphEdge
}
