package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lantechdigital/sinilai/internal/domain/model"
)

// RosterHandler handles student roster requests.
type RosterHandler struct {
	deps Dependencies
}

// NewRosterHandler creates a new roster handler.
func NewRosterHandler(deps Dependencies) *RosterHandler {
	return &RosterHandler{deps: deps}
}

type studentPayload struct {
	Name    string `json:"name" validate:"required"`
	Class   string `json:"class"`
	NIS     string `json:"nis"`
	EventID string `json:"event_id"`
}

type createStudentsRequest struct {
	Students []studentPayload `json:"students" validate:"required,min=1,dive"`
}

// HandleCreateStudents handles POST /api/students requests. Accepts a
// batch; a single student is a batch of one.
func (h *RosterHandler) HandleCreateStudents(w http.ResponseWriter, r *http.Request) {
	var req createStudentsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	students := make([]model.Student, len(req.Students))
	for i, p := range req.Students {
		students[i] = model.Student{
			Name:    p.Name,
			Class:   p.Class,
			NIS:     p.NIS,
			EventID: p.EventID,
		}
	}

	created, err := h.deps.CreateStudents(r.Context(), students)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// HandleListStudents handles GET /api/students?event_id=X requests.
func (h *RosterHandler) HandleListStudents(w http.ResponseWriter, r *http.Request) {
	students, err := h.deps.ListStudents(r.Context(), r.URL.Query().Get("event_id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, students)
}

// HandleDeleteStudent handles DELETE /api/students/{studentID} requests.
func (h *RosterHandler) HandleDeleteStudent(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.DeleteStudent(r.Context(), chi.URLParam(r, "studentID")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
