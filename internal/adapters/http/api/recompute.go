package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/okian/creatorscore/internal/domain/model"
	"github.com/okian/creatorscore/internal/domain/types"
	"github.com/okian/creatorscore/pkg/logger"
)

// RecomputeDependencies defines how recompute jobs are submitted.
type RecomputeDependencies interface {
	// Enqueue submits a job. It returns the job id actually used.
	Enqueue(ctx context.Context, job model.RecomputeJob) (types.EnqueueStatus, string, error)
}

// RecomputeHandler handles POST /creators/{id}/recompute.
type RecomputeHandler struct {
	deps   RecomputeDependencies
	logger logger.Logger
}

// NewRecomputeHandler creates a new recompute handler.
func NewRecomputeHandler(deps RecomputeDependencies, l logger.Logger) *RecomputeHandler {
	return &RecomputeHandler{deps: deps, logger: l}
}

type recomputeRequest struct {
	JobID    string         `json:"job_id"`
	Trigger  string         `json:"trigger"`
	Snapshot model.Snapshot `json:"snapshot"`
}

type ackResponse struct {
	Status    types.EnqueueStatus `json:"status"`
	JobID     string              `json:"job_id"`
	Duplicate bool                `json:"duplicate"`
}

// HandleRecompute queues a recompute for the creator in the path.
// 202 when accepted, 200 for a job id already seen, 429 when the queue is full.
func (h *RecomputeHandler) HandleRecompute(w http.ResponseWriter, r *http.Request) {
	id, err := creatorID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	var req recomputeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	trigger, err := model.ParseTrigger(req.Trigger)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_trigger", err)
		return
	}

	status, jobID, err := h.deps.Enqueue(r.Context(), model.RecomputeJob{
		JobID:     strings.TrimSpace(req.JobID),
		CreatorID: id,
		Trigger:   trigger,
		Snapshot:  req.Snapshot,
	})
	if err != nil {
		h.logger.Error(r.Context(), "enqueue recompute failed", logger.String("creator_id", id), logger.Error(err))
		writeServiceError(w, err)
		return
	}

	switch status {
	case types.EnqueueAccepted:
		writeJSON(w, http.StatusAccepted, ackResponse{Status: status, JobID: jobID})
	case types.EnqueueDuplicate:
		writeJSON(w, http.StatusOK, ackResponse{Status: status, JobID: jobID, Duplicate: true})
	default:
		writeError(w, http.StatusTooManyRequests, "backpressure", ErrBackpressure)
	}
}
