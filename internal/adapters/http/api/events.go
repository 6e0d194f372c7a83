package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lantechdigital/sinilai/internal/domain/model"
)

// EventsHandler handles event and criterion configuration requests.
type EventsHandler struct {
	deps Dependencies
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(deps Dependencies) *EventsHandler {
	return &EventsHandler{deps: deps}
}

type createEventRequest struct {
	Name string `json:"name" validate:"required"`
}

// HandleCreateEvent handles POST /api/events requests.
func (h *EventsHandler) HandleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var req createEventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	ev, err := h.deps.CreateEvent(r.Context(), req.Name)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ev)
}

// HandleListEvents handles GET /api/events requests.
func (h *EventsHandler) HandleListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.deps.ListEvents(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// HandleDeleteEvent handles DELETE /api/events/{eventID} requests.
func (h *EventsHandler) HandleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.DeleteEvent(r.Context(), chi.URLParam(r, "eventID")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type addCriterionRequest struct {
	EventID  string  `json:"event_id" validate:"required"`
	Name     string  `json:"name" validate:"required"`
	Weight   float64 `json:"weight" validate:"gte=0"`
	MaxScore float64 `json:"max_score" validate:"gte=0"`
}

// HandleAddCriterion handles POST /api/criteria requests.
func (h *EventsHandler) HandleAddCriterion(w http.ResponseWriter, r *http.Request) {
	var req addCriterionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	c, err := h.deps.AddCriterion(r.Context(), model.Criterion{
		EventID:  req.EventID,
		Name:     req.Name,
		Weight:   req.Weight,
		MaxScore: req.MaxScore,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// HandleListCriteria handles GET /api/criteria?event_id=X requests.
func (h *EventsHandler) HandleListCriteria(w http.ResponseWriter, r *http.Request) {
	criteria, err := h.deps.ListCriteria(r.Context(), r.URL.Query().Get("event_id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, criteria)
}

// HandleRemoveCriterion handles DELETE /api/criteria/{criterionID} requests.
func (h *EventsHandler) HandleRemoveCriterion(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.RemoveCriterion(r.Context(), chi.URLParam(r, "criterionID")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
