package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/vanshika/hubnet/internal/domain"
)

func TestOutcome(t *testing.T) {
	cases := map[string]error{
		"success":           nil,
		"node_not_found":    domain.NewNodeNotFoundError("Z"),
		"self_loop":         domain.ErrSelfLoop,
		"already_connected": domain.ErrAlreadyConnected,
		"invalid_input":     domain.ErrInvalidInput,
		"integrity":         &domain.IntegrityError{},
		"error":             errors.New("disk full"),
	}
	for want, err := range cases {
		if got := Outcome(err); got != want {
			t.Errorf("Outcome(%v) = %q, want %q", err, got, want)
		}
	}
}

func TestObservePathQuery(t *testing.T) {
	found := pathQueriesTotal.WithLabelValues("found")
	noPath := pathQueriesTotal.WithLabelValues("no_path")
	missing := pathQueriesTotal.WithLabelValues("node_not_found")
	before := [3]float64{testutil.ToFloat64(found), testutil.ToFloat64(noPath), testutil.ToFloat64(missing)}

	ObservePathQuery(domain.Path{Distance: 2}, true, nil, time.Millisecond)
	ObservePathQuery(domain.Path{}, false, nil, time.Millisecond)
	ObservePathQuery(domain.Path{}, false, domain.NewNodeNotFoundError("Z"), time.Millisecond)

	if got := testutil.ToFloat64(found) - before[0]; got != 1 {
		t.Errorf("expected 1 found query, got %v", got)
	}
	if got := testutil.ToFloat64(noPath) - before[1]; got != 1 {
		t.Errorf("expected 1 no_path query, got %v", got)
	}
	if got := testutil.ToFloat64(missing) - before[2]; got != 1 {
		t.Errorf("expected 1 node_not_found query, got %v", got)
	}
}

func TestSetIntegrityIssues(t *testing.T) {
	SetIntegrityIssues(3)
	if got := testutil.ToFloat64(integrityIssues); got != 3 {
		t.Errorf("expected gauge 3, got %v", got)
	}
	SetIntegrityIssues(0)
	if got := testutil.ToFloat64(integrityIssues); got != 0 {
		t.Errorf("expected gauge reset to 0, got %v", got)
	}
}
