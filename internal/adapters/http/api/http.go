// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/okian/creatorscore/internal/domain/model"
	"github.com/okian/creatorscore/internal/domain/types"
	"github.com/okian/creatorscore/pkg/logger"
	"github.com/okian/creatorscore/pkg/metrics"
)

// Defaults for Server options.
const (
	DefaultMaxLeaderboardLimit = 100
	DefaultMaxBatchSize        = 500
	maxBodyBytes               = 1 << 20
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	ScoreDependencies
	RecomputeDependencies
	CreatorDependencies
	LeaderboardDependencies
	StatsProvider
}

// Entry mirrors the read shape returned by directory queries.
type Entry = types.Entry

// Server wires HTTP routes for the business API.
type Server struct {
	scoreHandler       *ScoreHandler
	recomputeHandler   *RecomputeHandler
	creatorHandler     *CreatorHandler
	leaderboardHandler *LeaderboardHandler
	platformsHandler   *PlatformsHandler
	statsHandler       *StatsHandler
	healthHandler      *HealthHandler
}

type serverConfig struct {
	maxLeaderboardLimit int
	maxBatchSize        int
	logger              logger.Logger
}

// Option configures a Server.
type Option func(*serverConfig)

// WithMaxLeaderboardLimit caps GET /leaderboard?limit.
func WithMaxLeaderboardLimit(n int) Option {
	return func(c *serverConfig) {
		if n > 0 {
			c.maxLeaderboardLimit = n
		}
	}
}

// WithMaxBatchSize caps the number of creators in one batch request.
func WithMaxBatchSize(n int) Option {
	return func(c *serverConfig) {
		if n > 0 {
			c.maxBatchSize = n
		}
	}
}

// WithLogger sets the logger used for server side failures.
func WithLogger(l logger.Logger) Option {
	return func(c *serverConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	cfg := serverConfig{
		maxLeaderboardLimit: DefaultMaxLeaderboardLimit,
		maxBatchSize:        DefaultMaxBatchSize,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = logger.Nop()
	}
	return &Server{
		scoreHandler:       NewScoreHandler(deps, cfg.maxBatchSize),
		recomputeHandler:   NewRecomputeHandler(deps, cfg.logger),
		creatorHandler:     NewCreatorHandler(deps),
		leaderboardHandler: NewLeaderboardHandler(deps, cfg.maxLeaderboardLimit),
		platformsHandler:   NewPlatformsHandler(),
		statsHandler:       NewStatsHandler(deps),
		healthHandler:      NewHealthHandler(),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /metrics", MetricsMiddleware(s.healthHandler.HandleMetrics, "metrics"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("GET /platforms", MetricsMiddleware(s.platformsHandler.HandlePlatforms, "platforms"))
	mux.HandleFunc("POST /score", MetricsMiddleware(s.scoreHandler.HandleScore, "score"))
	mux.HandleFunc("POST /score/batch", MetricsMiddleware(s.scoreHandler.HandleBatch, "score_batch"))
	mux.HandleFunc("POST /creators/{id}/recompute", MetricsMiddleware(s.recomputeHandler.HandleRecompute, "recompute"))
	mux.HandleFunc("GET /creators/{id}/score", MetricsMiddleware(s.creatorHandler.HandleGetScore, "creator_score"))
	mux.HandleFunc("DELETE /creators/{id}/score", MetricsMiddleware(s.creatorHandler.HandleDeleteScore, "creator_score"))
	mux.HandleFunc("GET /leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// decodeJSON reads one JSON document from the request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", ErrBadRequest)
		}
		return err
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data after JSON body", ErrBadRequest)
	}
	return nil
}

// writeDecodeError maps a decodeJSON failure to a 400 response.
func writeDecodeError(w http.ResponseWriter, err error) {
	if errors.Is(err, model.ErrUnknownPlatform) {
		metrics.RecordUnknownPlatform()
		writeError(w, http.StatusBadRequest, "unknown_platform", err)
		return
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, "body_too_large", err)
		return
	}
	writeError(w, http.StatusBadRequest, "bad_request", err)
}

// creatorID extracts and validates the {id} path segment.
func creatorID(r *http.Request) (string, error) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		return "", fmt.Errorf("%w: missing creator id", ErrBadRequest)
	}
	return id, nil
}
