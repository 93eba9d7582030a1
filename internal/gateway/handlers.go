package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/rickgao/market-sync/internal/api"
	"github.com/rickgao/market-sync/internal/model"
	"github.com/rickgao/market-sync/internal/order"
	"github.com/rickgao/market-sync/internal/router"
	"github.com/rickgao/market-sync/internal/version"
)

// StateResponse is the body of GET /api/v1/state.
type StateResponse struct {
	router.State
	Loading  bool `json:"loading"`
	InFlight bool `json:"in_flight"`
}

// OrderResponse is the body of a successful POST /api/v1/orders.
type OrderResponse struct {
	Order   model.Order   `json:"order"`
	Trades  []model.Trade `json:"trades"`
	Message string        `json:"message"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status     string         `json:"status"`
	Version    version.Info   `json:"version"`
	Components map[string]any `json:"components"`
}

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	resp := StateResponse{State: s.deps.Router.Latest()}
	if s.deps.Sync != nil {
		resp.Loading = s.deps.Sync.Loading()
		resp.InFlight = s.deps.Sync.InFlight()
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetForm(w http.ResponseWriter, r *http.Request) {
	if s.deps.Form == nil {
		respondError(w, http.StatusNotFound, "not_found", "order entry is disabled", "")
		return
	}
	respondJSON(w, http.StatusOK, s.deps.Form.State())
}

func (s *Server) handleSubmitOrder(w http.ResponseWriter, r *http.Request) {
	if s.deps.Form == nil || s.deps.Submitter == nil {
		respondError(w, http.StatusNotFound, "not_found", "order entry is disabled", "")
		return
	}

	var patch order.Patch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid request body", err.Error())
		return
	}
	s.deps.Form.Apply(patch)

	result, msg, err := s.deps.Form.Submit(r.Context(), s.deps.Submitter)
	if err != nil {
		s.respondBackendError(w, msg, err)
		return
	}

	respondJSON(w, http.StatusOK, OrderResponse{
		Order:   result.Order,
		Trades:  result.Trades,
		Message: msg,
	})
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	if s.deps.Backend == nil {
		respondError(w, http.StatusNotFound, "not_found", "order lookup is disabled", "")
		return
	}

	id := mux.Vars(r)["id"]
	o, err := s.deps.Backend.GetOrder(r.Context(), id)
	if err != nil {
		s.respondBackendError(w, "Error: Failed to fetch order "+id, err)
		return
	}
	respondJSON(w, http.StatusOK, o)
}

// respondBackendError maps an order workflow or engine error to a status:
// validation failures are 422, engine errors keep the engine's status.
func (s *Server) respondBackendError(w http.ResponseWriter, msg string, err error) {
	var ve *order.ValidationError
	if errors.As(err, &ve) {
		respondError(w, http.StatusUnprocessableEntity, ve.Code, msg, "")
		return
	}

	var te *api.TransportError
	if errors.As(err, &te) {
		status := te.StatusCode
		if status < 400 {
			status = http.StatusBadGateway
		}
		if te.Timeout() {
			status = http.StatusGatewayTimeout
		}
		respondError(w, status, "backend_error", msg, te.Detail)
		return
	}

	if errors.Is(err, api.ErrMalformedPayload) {
		respondError(w, http.StatusBadGateway, "malformed_response", msg, err.Error())
		return
	}

	s.logger.Error("order request failed", "err", err)
	respondError(w, http.StatusInternalServerError, "internal_error", msg, "")
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := HealthResponse{
		Status:     "healthy",
		Version:    version.Get(),
		Components: make(map[string]any),
	}

	if s.deps.Backend != nil {
		ctx, cancel := context.WithTimeout(r.Context(), s.cfg.HealthTimeout)
		defer cancel()

		status, err := s.deps.Backend.Health(ctx)
		switch {
		case err != nil:
			health.Status = "degraded"
			health.Components["backend"] = map[string]string{
				"status": "unreachable",
				"error":  err.Error(),
			}
		case !status.Healthy():
			health.Status = "degraded"
			health.Components["backend"] = map[string]string{"status": status.Status}
		default:
			health.Components["backend"] = map[string]string{"status": status.Status}
		}
	}

	if s.deps.Sync != nil {
		stats := s.deps.Sync.Stats()
		syncInfo := map[string]any{
			"loading":   s.deps.Sync.Loading(),
			"ticks":     stats.Ticks,
			"skipped":   stats.Skipped,
			"failures":  stats.Failures,
			"in_flight": s.deps.Sync.InFlight(),
		}
		if err := s.deps.Sync.LastError(); err != nil {
			syncInfo["last_error"] = err.Error()
			health.Status = "degraded"
		}
		health.Components["sync"] = syncInfo
	}

	rs := s.deps.Router.Stats()
	health.Components["stream"] = map[string]any{
		"subscribers": rs.Subscribers,
		"published":   rs.Published,
		"dropped":     rs.Dropped,
		"pending":     rs.Pending,
	}

	respondJSON(w, http.StatusOK, health)
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, code, message, detail string) {
	respondJSON(w, status, ErrorResponse{
		Error:   code,
		Message: message,
		Detail:  detail,
	})
}
