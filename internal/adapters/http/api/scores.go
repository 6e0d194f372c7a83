package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// ScoresHandler handles the judging surface: score writes, reads,
// finalize and the administrative unlock.
type ScoresHandler struct {
	deps Dependencies
}

// NewScoresHandler creates a new scores handler.
func NewScoresHandler(deps Dependencies) *ScoresHandler {
	return &ScoresHandler{deps: deps}
}

type upsertScoresRequest struct {
	Scores map[string]float64 `json:"scores" validate:"required,min=1"`
}

type upsertScoresResponse struct {
	StudentID string             `json:"student_id"`
	Scores    map[string]float64 `json:"scores"`
}

// HandleUpsertScores handles PUT /api/students/{studentID}/scores.
// Scores are recorded under the authenticated judge's key, so two
// judges never overwrite each other.
func (h *ScoresHandler) HandleUpsertScores(w http.ResponseWriter, r *http.Request) {
	studentID := chi.URLParam(r, "studentID")

	var req upsertScoresRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	sess, ok := SessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", NewKind("api.scores", ErrUnauthorized))
		return
	}

	saved, err := h.deps.UpsertScores(r.Context(), studentID, sess.Key, sess.Name, req.Scores)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, upsertScoresResponse{StudentID: studentID, Scores: saved})
}

type scoresResponse struct {
	StudentID   string             `json:"student_id"`
	State       string             `json:"state"`
	Scores      map[string]float64 `json:"scores"`
	WeightedSum float64            `json:"weighted_sum"`
	TotalWeight float64            `json:"total_weight"`
	Average     float64            `json:"average"`
}

// HandleGetScores handles GET /api/students/{studentID}/scores.
// ?mine=1 scopes the read to the calling judge's own entries; the
// default is the cross-judge mean, which is what finalize will use.
func (h *ScoresHandler) HandleGetScores(w http.ResponseWriter, r *http.Request) {
	studentID := chi.URLParam(r, "studentID")

	judgeID := ""
	if r.URL.Query().Get("mine") == "1" {
		if sess, ok := SessionFromContext(r.Context()); ok {
			judgeID = sess.Key
		}
	}

	scores, err := h.deps.Scores(r.Context(), studentID, judgeID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	state, err := h.deps.ScoreState(r.Context(), studentID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	breakdown, err := h.deps.ComputeAverage(r.Context(), studentID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, scoresResponse{
		StudentID:   studentID,
		State:       state,
		Scores:      scores,
		WeightedSum: breakdown.WeightedSum,
		TotalWeight: breakdown.TotalWeight,
		Average:     breakdown.Average,
	})
}

type finalizeResponse struct {
	StudentID string  `json:"student_id"`
	State     string  `json:"state"`
	Average   float64 `json:"average"`
}

// HandleFinalize handles POST /api/students/{studentID}/finalize.
func (h *ScoresHandler) HandleFinalize(w http.ResponseWriter, r *http.Request) {
	studentID := chi.URLParam(r, "studentID")

	average, err := h.deps.Finalize(r.Context(), studentID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, finalizeResponse{
		StudentID: studentID,
		State:     "final",
		Average:   average,
	})
}

// HandleUnlock handles POST /api/students/{studentID}/unlock.
func (h *ScoresHandler) HandleUnlock(w http.ResponseWriter, r *http.Request) {
	studentID := chi.URLParam(r, "studentID")

	if err := h.deps.Unlock(r.Context(), studentID); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, finalizeResponse{
		StudentID: studentID,
		State:     "draft",
	})
}
