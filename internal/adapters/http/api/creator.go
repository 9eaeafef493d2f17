package api

import (
	"context"
	"fmt"
	"net/http"

	repository "github.com/okian/creatorscore/internal/adapters/repository"
)

// CreatorDependencies defines per-creator directory operations.
type CreatorDependencies interface {
	Score(ctx context.Context, creatorID string) (Entry, error)
	Remove(ctx context.Context, creatorID string) (bool, error)
}

// CreatorHandler handles GET and DELETE /creators/{id}/score.
type CreatorHandler struct {
	deps CreatorDependencies
}

// NewCreatorHandler creates a new creator handler.
func NewCreatorHandler(deps CreatorDependencies) *CreatorHandler {
	return &CreatorHandler{deps: deps}
}

// HandleGetScore returns the creator's rank and breakdown.
func (h *CreatorHandler) HandleGetScore(w http.ResponseWriter, r *http.Request) {
	id, err := creatorID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	entry, err := h.deps.Score(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// HandleDeleteScore drops the creator from the directory.
func (h *CreatorHandler) HandleDeleteScore(w http.ResponseWriter, r *http.Request) {
	id, err := creatorID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	removed, err := h.deps.Remove(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if !removed {
		writeServiceError(w, fmt.Errorf("%w: %s", repository.ErrNotFound, id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
