package api

import (
	"net/http"

	"github.com/okian/creatorscore/internal/domain/model"
	"github.com/okian/creatorscore/internal/domain/scoring"
)

// PlatformsHandler serves the connectable platforms and point budgets.
type PlatformsHandler struct {
	body platformsResponse
}

type platformsResponse struct {
	Platforms []model.Platform `json:"platforms"`
	MaxPoints map[string]int   `json:"max_points"`
}

// NewPlatformsHandler creates a new platforms handler.
func NewPlatformsHandler() *PlatformsHandler {
	maxPoints := map[string]int{"total": scoring.MaxTotal}
	for _, ev := range scoring.NewEngine().Evaluators() {
		maxPoints[ev.Name()] = ev.Max()
	}
	return &PlatformsHandler{body: platformsResponse{
		Platforms: model.SupportedPlatforms(),
		MaxPoints: maxPoints,
	}}
}

// HandlePlatforms handles GET /platforms.
func (h *PlatformsHandler) HandlePlatforms(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.body)
}
