package api

import (
	"net/http"
	"strconv"

	"github.com/lantechdigital/sinilai/internal/domain/types"
)

// RecapHandler serves the ranked recap snapshot.
type RecapHandler struct {
	deps Dependencies
}

// NewRecapHandler creates a new recap handler.
func NewRecapHandler(deps Dependencies) *RecapHandler {
	return &RecapHandler{deps: deps}
}

type recapResponse struct {
	EventID string           `json:"event_id,omitempty"`
	Rows    []types.RecapRow `json:"rows"`
}

// HandleGetRecap handles GET /api/recap?event_id=X&limit=N requests.
func (h *RecapHandler) HandleGetRecap(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_recap"

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		limit = n
	}

	eventID := r.URL.Query().Get("event_id")
	rows := h.deps.Recap(r.Context(), eventID, limit)
	if rows == nil {
		rows = []types.RecapRow{}
	}

	writeJSON(w, http.StatusOK, recapResponse{EventID: eventID, Rows: rows})
}

type refreshResponse struct {
	Status string `json:"status"`
}

// HandleRefreshRecap handles POST /api/recap/refresh requests. The
// rebuild runs synchronously; a subsequent read sees the fresh snapshot.
func (h *RecapHandler) HandleRefreshRecap(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.Refresh(r.Context()); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, refreshResponse{Status: "refreshed"})
}
