package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/vanshika/hubnet/internal/domain"
	"github.com/vanshika/hubnet/internal/service"
)

// APIHandlers exposes HTTP handlers for the REST API.
type APIHandlers struct {
	logger  *slog.Logger
	service *service.HubService
}

// NewAPIHandlers constructs an APIHandlers instance.
func NewAPIHandlers(logger *slog.Logger, svc *service.HubService) *APIHandlers {
	return &APIHandlers{
		logger:  logger,
		service: svc,
	}
}

func (h *APIHandlers) listHubs(w http.ResponseWriter, r *http.Request) {
	page, err := h.service.ListHubs(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err, "failed to list hubs")
		return
	}

	response := listHubsResponse{
		Hubs: make([]hubResponse, 0, len(page.Hubs)),
		Stats: statsResponse{
			Hubs:        page.Stats.Hubs,
			Connections: page.Stats.Connections,
			AvgPerHub:   page.Stats.AvgPerHub,
		},
	}
	for _, hub := range page.Hubs {
		response.Hubs = append(response.Hubs, toHubResponse(hub))
	}
	respondJSON(w, http.StatusOK, response)
}

func (h *APIHandlers) createHub(w http.ResponseWriter, r *http.Request) {
	var req createHubRequest
	if err := decodeValidated(w, r, createHubSchema, &req); err != nil {
		h.writeServiceError(w, r, err, "")
		return
	}

	hub, err := h.service.CreateHub(r.Context(), service.CreateHubInput{ID: req.HubID, Name: req.Name})
	if err != nil {
		h.writeServiceError(w, r, err, "failed to create hub")
		return
	}
	respondJSON(w, http.StatusCreated, toHubResponse(hub))
}

func (h *APIHandlers) getHub(w http.ResponseWriter, r *http.Request) {
	hub, err := h.service.GetHub(r.Context(), r.PathValue("hubId"))
	if err != nil {
		h.writeServiceError(w, r, err, "failed to fetch hub")
		return
	}
	respondJSON(w, http.StatusOK, toHubResponse(hub))
}

func (h *APIHandlers) connectHubs(w http.ResponseWriter, r *http.Request) {
	h.mutateEdge(w, r, "Connected", h.service.Connect)
}

func (h *APIHandlers) disconnectHubs(w http.ResponseWriter, r *http.Request) {
	h.mutateEdge(w, r, "Disconnected", h.service.Disconnect)
}

func (h *APIHandlers) mutateEdge(
	w http.ResponseWriter,
	r *http.Request,
	message string,
	fn func(ctx context.Context, a, b string) (domain.Hub, domain.Hub, error),
) {
	var req edgeRequest
	if err := decodeValidated(w, r, edgeSchema, &req); err != nil {
		h.writeServiceError(w, r, err, "")
		return
	}
	a, b := req.endpoints()

	ha, hb, err := fn(r.Context(), a, b)
	if err != nil {
		h.writeServiceError(w, r, err, "failed to update connection")
		return
	}
	respondJSON(w, http.StatusOK, edgeResponse{
		Message: message,
		A:       toHubResponse(ha),
		B:       toHubResponse(hb),
	})
}

func (h *APIHandlers) graph(w http.ResponseWriter, r *http.Request) {
	snap, err := h.service.Graph(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err, "failed to load graph")
		return
	}

	response := graphResponse{
		Nodes: make([]graphNode, 0, len(snap.Nodes)),
		Edges: make([]graphEdge, 0, len(snap.Edges)),
	}
	for _, n := range snap.Nodes {
		response.Nodes = append(response.Nodes, graphNode{ID: n.ID, Label: n.Label})
	}
	for _, e := range snap.Edges {
		response.Edges = append(response.Edges, graphEdge{Source: e.Source, Target: e.Target})
	}
	respondJSON(w, http.StatusOK, response)
}

func (h *APIHandlers) integrity(w http.ResponseWriter, r *http.Request) {
	issues, err := h.service.Integrity(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err, "failed to check graph integrity")
		return
	}
	respondJSON(w, http.StatusOK, integrityResponse{
		Consistent: len(issues) == 0,
		Issues:     toIssueResponses(issues),
	})
}

func (h *APIHandlers) shortestPath(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	source := strings.TrimSpace(query.Get("source"))
	destination := strings.TrimSpace(query.Get("destination"))
	if source == "" || destination == "" {
		writeError(w, http.StatusBadRequest, "source and destination query parameters are required")
		return
	}

	path, found, err := h.service.ShortestPath(r.Context(), source, destination)
	if err != nil {
		h.writeServiceError(w, r, err, "failed to compute path")
		return
	}
	if !found {
		respondJSON(w, http.StatusNotFound, errorResponse{Error: "No path found", Reason: "no_path"})
		return
	}
	respondJSON(w, http.StatusOK, pathResponse{
		Source:      path.Source,
		Destination: path.Destination,
		Path:        path.Nodes,
		Distance:    path.Distance,
	})
}

// writeServiceError maps domain errors to statuses. Unknown errors are logged
// and reported with the generic fallback message.
func (h *APIHandlers) writeServiceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var (
		reqErr    *requestError
		notFound  *domain.NodeNotFoundError
		integrity *domain.IntegrityError
	)
	switch {
	case errors.As(err, &reqErr):
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: reqErr.msg, Details: reqErr.details})
	case errors.As(err, &notFound):
		respondJSON(w, http.StatusNotFound, errorResponse{Error: notFound.Error(), Missing: notFound.IDs})
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrSelfLoop):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrAlreadyConnected),
		errors.Is(err, domain.ErrDuplicateID),
		errors.Is(err, domain.ErrDuplicateName):
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &integrity):
		h.logger.Error("refusing query on inconsistent graph", "error", err, "request_id", requestIDFrom(r.Context()))
		respondJSON(w, http.StatusInternalServerError, errorResponse{
			Error:  "graph integrity violation",
			Issues: toIssueResponses(integrity.Issues),
		})
	default:
		h.logger.Error(fallback, "error", err, "path", r.URL.Path, "request_id", requestIDFrom(r.Context()))
		writeError(w, http.StatusInternalServerError, fallback)
	}
}

type createHubRequest struct {
	HubID string `json:"hubId"`
	Name  string `json:"name"`
}

type edgeRequest struct {
	A           string `json:"a"`
	B           string `json:"b"`
	SourceHubID string `json:"sourceHubId"`
	TargetHubID string `json:"targetHubId"`
}

func (req edgeRequest) endpoints() (string, string) {
	if req.A != "" || req.B != "" {
		return req.A, req.B
	}
	return req.SourceHubID, req.TargetHubID
}

type hubResponse struct {
	HubID       string   `json:"hubId"`
	Name        string   `json:"name"`
	Connections []string `json:"connections"`
	CreatedAt   string   `json:"createdAt,omitempty"`
	UpdatedAt   string   `json:"updatedAt,omitempty"`
}

type statsResponse struct {
	Hubs        int     `json:"hubs"`
	Connections int     `json:"connections"`
	AvgPerHub   float64 `json:"avgPerHub"`
}

type listHubsResponse struct {
	Hubs  []hubResponse `json:"hubs"`
	Stats statsResponse `json:"stats"`
}

type edgeResponse struct {
	Message string      `json:"message"`
	A       hubResponse `json:"a"`
	B       hubResponse `json:"b"`
}

type pathResponse struct {
	Source      string   `json:"source"`
	Destination string   `json:"destination"`
	Path        []string `json:"path"`
	Distance    int      `json:"distance"`
}

type graphNode struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

type graphEdge struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

type graphResponse struct {
	Nodes []graphNode `json:"nodes"`
	Edges []graphEdge `json:"edges"`
}

type issueResponse struct {
	Kind       string `json:"kind"`
	HubID      string `json:"hubId"`
	NeighborID string `json:"neighborId,omitempty"`
}

type integrityResponse struct {
	Consistent bool            `json:"consistent"`
	Issues     []issueResponse `json:"issues"`
}

type errorResponse struct {
	Error   string          `json:"error"`
	Reason  string          `json:"reason,omitempty"`
	Missing []string        `json:"missing,omitempty"`
	Details []string        `json:"details,omitempty"`
	Issues  []issueResponse `json:"issues,omitempty"`
}

func toHubResponse(hub domain.Hub) hubResponse {
	connections := hub.Connections
	if connections == nil {
		connections = []string{}
	}
	return hubResponse{
		HubID:       hub.ID,
		Name:        hub.Name,
		Connections: connections,
		CreatedAt:   formatTime(hub.CreatedAt),
		UpdatedAt:   formatTime(hub.UpdatedAt),
	}
}

func toIssueResponses(issues []domain.IntegrityIssue) []issueResponse {
	out := make([]issueResponse, 0, len(issues))
	for _, issue := range issues {
		out = append(out, issueResponse{
			Kind:       string(issue.Kind),
			HubID:      issue.HubID,
			NeighborID: issue.NeighborID,
		})
	}
	return out
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{
		"error": msg,
	})
}
