// Package api exposes the kiosk control surface over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/okian/bainoculars/internal/adapters/mq/queue"
	"github.com/okian/bainoculars/internal/adapters/repository"
	"github.com/okian/bainoculars/internal/domain/kiosk"
	"github.com/okian/bainoculars/internal/domain/model"
	"github.com/okian/bainoculars/pkg/logger"
)

const defaultMaxLimit = 100

// Commander accepts user commands for the event loop.
type Commander interface {
	Submit(ctx context.Context, c model.Command) error
}

// StateProvider reads the machine state from the event loop.
type StateProvider interface {
	State(ctx context.Context) (kiosk.State, error)
}

// LeaderboardProvider reads the arcade high-score table.
type LeaderboardProvider interface {
	TopN(ctx context.Context, n int) ([]repository.Entry, error)
}

// StatsProvider defines the interface for getting service statistics.
type StatsProvider interface {
	GetStats() map[string]interface{}
}

// Dependencies required by HTTP handlers.
type Dependencies interface {
	Commander
	StateProvider
	LeaderboardProvider
	StatsProvider
}

// Server wires HTTP routes for the control API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	commandHandler     *CommandHandler
	stateHandler       *StateHandler
	leaderboardHandler *LeaderboardHandler
	stream             http.Handler
	snapshot           http.HandlerFunc
	registrars         []func(chi.Router)
	logger             logger.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithStream serves the MJPEG display on /stream and a still on /snapshot.jpg.
func WithStream(stream http.Handler, snapshot http.HandlerFunc) Option {
	return func(s *Server) {
		s.stream = stream
		s.snapshot = snapshot
	}
}

// WithRoutes lets other packages attach routes, e.g. the control page.
func WithRoutes(register func(chi.Router)) Option {
	return func(s *Server) {
		if register != nil {
			s.registrars = append(s.registrars, register)
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, maxLimit int, opts ...Option) *Server {
	if maxLimit < 1 {
		maxLimit = defaultMaxLimit
	}
	s := &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(deps),
		commandHandler:     NewCommandHandler(deps),
		stateHandler:       NewStateHandler(deps),
		leaderboardHandler: NewLeaderboardHandler(deps, maxLimit),
		logger:             logger.Get().Named("api"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the route table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	r.Handle("/metrics", s.healthHandler.Metrics())
	r.Get("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	r.Get("/state", MetricsMiddleware(s.stateHandler.HandleState, "state"))
	r.Get("/leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))

	r.Post("/mode/{mode}", MetricsMiddleware(s.commandHandler.HandleEnter, "mode"))
	r.Post("/back", MetricsMiddleware(s.commandHandler.HandleBack, "back"))
	r.Post("/capture", MetricsMiddleware(s.commandHandler.HandleCapture, "capture"))
	r.Post("/quit", MetricsMiddleware(s.commandHandler.HandleQuit, "quit"))

	if s.stream != nil {
		r.Get("/stream", s.stream.ServeHTTP)
	}
	if s.snapshot != nil {
		r.Get("/snapshot.jpg", MetricsMiddleware(s.snapshot, "snapshot"))
	}
	for _, register := range s.registrars {
		register(r)
	}
	return r
}

type ackResponse struct {
	Status  string `json:"status"`
	Command string `json:"command"`
	Mode    string `json:"mode,omitempty"`
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

// submitError maps queue failures to HTTP answers.
func submitError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, queue.ErrFull):
		writeError(w, http.StatusTooManyRequests, "backpressure", fmt.Errorf("%s: %w", op, ErrBackpressure))
	case errors.Is(err, queue.ErrClosed):
		writeError(w, http.StatusServiceUnavailable, "unavailable", fmt.Errorf("%s: %w", op, ErrUnavailable))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", fmt.Errorf("%s: %w", op, err))
	}
}
