package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/okian/creatorscore/internal/domain/model"
	"github.com/okian/creatorscore/internal/domain/types"
)

// ScoreDependencies defines the synchronous scoring operations.
type ScoreDependencies interface {
	Preview(ctx context.Context, snap model.Snapshot) model.Breakdown
	PreviewBatch(ctx context.Context, items []types.BatchItem) ([]types.BatchResult, error)
}

// ScoreHandler handles POST /score and POST /score/batch.
type ScoreHandler struct {
	deps         ScoreDependencies
	maxBatchSize int
}

// NewScoreHandler creates a new score handler.
func NewScoreHandler(deps ScoreDependencies, maxBatchSize int) *ScoreHandler {
	return &ScoreHandler{deps: deps, maxBatchSize: maxBatchSize}
}

type batchRequest struct {
	Creators []types.BatchItem `json:"creators"`
}

type batchResponse struct {
	Results []types.BatchResult `json:"results"`
}

// HandleScore scores the snapshot in the request body.
func (h *ScoreHandler) HandleScore(w http.ResponseWriter, r *http.Request) {
	var snap model.Snapshot
	if err := decodeJSON(w, r, &snap); err != nil {
		writeDecodeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Preview(r.Context(), snap))
}

// HandleBatch scores every creator in the request body and returns the
// results in discovery order.
func (h *ScoreHandler) HandleBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	switch n := len(req.Creators); {
	case n == 0:
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: creators must not be empty", ErrBadRequest))
		return
	case n > h.maxBatchSize:
		writeError(w, http.StatusBadRequest, "batch_too_large",
			fmt.Errorf("%w: %d creators exceeds the limit of %d", ErrBadRequest, n, h.maxBatchSize))
		return
	}

	results, err := h.deps.PreviewBatch(r.Context(), req.Creators)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, batchResponse{Results: results})
}
