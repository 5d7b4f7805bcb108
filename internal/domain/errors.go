package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNodeNotFound is matched by every *NodeNotFoundError.
	ErrNodeNotFound = errors.New("hub not found")
	// ErrSelfLoop rejects connecting a hub to itself.
	ErrSelfLoop = errors.New("cannot connect a hub to itself")
	// ErrAlreadyConnected rejects creating an edge that already exists.
	ErrAlreadyConnected = errors.New("hubs are already connected")
	// ErrDuplicateID rejects creating a hub whose id is taken.
	ErrDuplicateID = errors.New("hubId already exists")
	// ErrDuplicateName rejects creating a hub whose name is taken.
	ErrDuplicateName = errors.New("hub name already exists")
	// ErrInvalidInput marks malformed caller input such as empty ids.
	ErrInvalidInput = errors.New("invalid input")
	// ErrIntegrity is matched by every *IntegrityError.
	ErrIntegrity = errors.New("graph integrity violation")
)

// NodeNotFoundError names the hub ids a query or mutation referenced that do not exist.
type NodeNotFoundError struct {
	IDs []string
}

// NewNodeNotFoundError returns nil when ids is empty.
func NewNodeNotFoundError(ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	return &NodeNotFoundError{IDs: ids}
}

func (e *NodeNotFoundError) Error() string {
	if len(e.IDs) == 1 {
		return fmt.Sprintf("hub not found: %s", e.IDs[0])
	}
	return fmt.Sprintf("hubs not found: %s", strings.Join(e.IDs, ", "))
}

func (e *NodeNotFoundError) Is(target error) bool {
	return target == ErrNodeNotFound
}

// IntegrityIssueKind classifies a stored-graph anomaly.
type IntegrityIssueKind string

const (
	IssueDanglingNeighbor  IntegrityIssueKind = "dangling_neighbor"
	IssueAsymmetricEdge    IntegrityIssueKind = "asymmetric_edge"
	IssueSelfLoop          IntegrityIssueKind = "self_loop"
	IssueDuplicateNeighbor IntegrityIssueKind = "duplicate_neighbor"
	IssueDuplicateID       IntegrityIssueKind = "duplicate_id"
	IssueDuplicateName     IntegrityIssueKind = "duplicate_name"
)

// IntegrityIssue describes one violation of the stored graph invariants.
// NeighborID is empty for issues that concern a single record.
type IntegrityIssue struct {
	Kind       IntegrityIssueKind
	HubID      string
	NeighborID string
}

func (i IntegrityIssue) String() string {
	if i.NeighborID == "" {
		return fmt.Sprintf("%s(%s)", i.Kind, i.HubID)
	}
	return fmt.Sprintf("%s(%s->%s)", i.Kind, i.HubID, i.NeighborID)
}

// IntegrityError reports that a snapshot handed to the index violated the stored invariants.
type IntegrityError struct {
	Issues []IntegrityIssue
}

func (e *IntegrityError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		parts = append(parts, issue.String())
	}
	return fmt.Sprintf("graph integrity violation: %s", strings.Join(parts, "; "))
}

func (e *IntegrityError) Is(target error) bool {
	return target == ErrIntegrity
}
