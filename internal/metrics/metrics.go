// Package metrics holds the Prometheus collectors shared by the service and
// HTTP layers. Collectors register with the default registry on import.
package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vanshika/hubnet/internal/domain"
)

var (
	// httpRequestsTotal counts handled requests by route pattern, method and status.
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hubnet_http_requests_total",
		Help: "HTTP requests by route, method and status code",
	}, []string{"route", "method", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hubnet_http_request_duration_seconds",
		Help:    "HTTP request latency by route",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})

	// pathQueriesTotal counts shortest-path queries.
	// Labels: "found", "no_path", "node_not_found", "integrity", "error"
	pathQueriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hubnet_path_queries_total",
		Help: "Shortest-path queries by result",
	}, []string{"result"})

	pathQueryDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "hubnet_path_query_duration_seconds",
		Help:    "Shortest-path query duration including the graph load",
		Buckets: []float64{0.0001, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	})

	pathLength = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "hubnet_path_hops",
		Help:    "Hop count of found paths",
		Buckets: []float64{0, 1, 2, 3, 5, 8, 13, 21},
	})

	// edgeMutationsTotal counts connect/disconnect calls.
	// Labels: op = "connect" | "disconnect"; result as returned by Outcome.
	edgeMutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hubnet_edge_mutations_total",
		Help: "Edge mutations by operation and result",
	}, []string{"op", "result"})

	integrityIssues = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hubnet_integrity_issues",
		Help: "Integrity issues found in the most recently loaded graph",
	})
)

// Outcome maps an error to a low-cardinality label value.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrNodeNotFound):
		return "node_not_found"
	case errors.Is(err, domain.ErrSelfLoop):
		return "self_loop"
	case errors.Is(err, domain.ErrAlreadyConnected):
		return "already_connected"
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, domain.ErrIntegrity):
		return "integrity"
	default:
		return "error"
	}
}

// ObserveRequest records one handled HTTP request.
func ObserveRequest(route, method string, status int, elapsed time.Duration) {
	httpRequestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

// ObservePathQuery records one shortest-path query.
func ObservePathQuery(path domain.Path, found bool, err error, elapsed time.Duration) {
	pathQueryDuration.Observe(elapsed.Seconds())
	result := Outcome(err)
	switch {
	case err != nil:
	case found:
		result = "found"
		pathLength.Observe(float64(path.Distance))
	default:
		result = "no_path"
	}
	pathQueriesTotal.WithLabelValues(result).Inc()
}

// ObserveEdgeMutation records one connect or disconnect.
func ObserveEdgeMutation(op string, err error) {
	edgeMutationsTotal.WithLabelValues(op, Outcome(err)).Inc()
}

// SetIntegrityIssues publishes the issue count of the latest graph load.
func SetIntegrityIssues(n int) {
	integrityIssues.Set(float64(n))
}
