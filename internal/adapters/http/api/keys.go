package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lantechdigital/sinilai/internal/domain/model"
)

// KeysHandler handles access key administration requests.
type KeysHandler struct {
	deps Dependencies
}

// NewKeysHandler creates a new keys handler.
func NewKeysHandler(deps Dependencies) *KeysHandler {
	return &KeysHandler{deps: deps}
}

type createKeyRequest struct {
	Key  string `json:"key" validate:"required"`
	Name string `json:"name"`
	Role string `json:"role" validate:"required"`
}

// HandleCreateKey handles POST /api/keys requests.
func (h *KeysHandler) HandleCreateKey(w http.ResponseWriter, r *http.Request) {
	var req createKeyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	key, err := h.deps.CreateKey(r.Context(), model.AccessKey{
		Key:  req.Key,
		Name: req.Name,
		Role: req.Role,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, key)
}

// HandleListKeys handles GET /api/keys requests.
func (h *KeysHandler) HandleListKeys(w http.ResponseWriter, r *http.Request) {
	keys, err := h.deps.ListKeys(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, keys)
}

// HandleDeleteKey handles DELETE /api/keys/{keyID} requests.
func (h *KeysHandler) HandleDeleteKey(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.DeleteKey(r.Context(), chi.URLParam(r, "keyID")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
