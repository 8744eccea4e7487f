// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	service "github.com/okian/pscore/internal/app"
	"github.com/okian/pscore/internal/app/session"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	CreateSession(ctx context.Context) (string, error)
	Session(ctx context.Context, id string) (*session.Controller, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	sessionsHandler    *SessionsHandler
	leaderboardHandler *LeaderboardHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		sessionsHandler:    NewSessionsHandler(deps),
		leaderboardHandler: NewLeaderboardHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	sh, lh := s.sessionsHandler, s.leaderboardHandler

	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("POST /sessions", MetricsMiddleware(sh.HandleCreate, "sessions"))
	mux.HandleFunc("GET /sessions/{id}", MetricsMiddleware(sh.HandleGet, "session"))
	mux.HandleFunc("PUT /sessions/{id}/username", MetricsMiddleware(sh.HandleSetUsername, "username"))
	mux.HandleFunc("POST /sessions/{id}/generate", MetricsMiddleware(sh.HandleGenerate, "generate"))
	mux.HandleFunc("POST /sessions/{id}/cancel", MetricsMiddleware(sh.HandleCancel, "cancel"))
	mux.HandleFunc("POST /sessions/{id}/post", MetricsMiddleware(sh.HandlePost, "post"))
	mux.HandleFunc("POST /sessions/{id}/verify", MetricsMiddleware(sh.HandleVerify, "verify"))
	mux.HandleFunc("PUT /sessions/{id}/selection", MetricsMiddleware(sh.HandleSelect, "selection"))
	mux.HandleFunc("DELETE /sessions/{id}/error", MetricsMiddleware(sh.HandleDismissError, "error"))

	mux.HandleFunc("GET /sessions/{id}/leaderboards", MetricsMiddleware(lh.HandleGet, "leaderboards"))
	mux.HandleFunc("POST /sessions/{id}/leaderboards/refresh", MetricsMiddleware(lh.HandleRefresh, "leaderboards_refresh"))
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

// lookupSession resolves the {id} path value, writing the error response
// when it cannot.
func lookupSession(w http.ResponseWriter, r *http.Request, deps Dependencies) (*session.Controller, bool) {
	c, err := deps.Session(r.Context(), r.PathValue("id"))
	switch {
	case err == nil:
		return c, true
	case errors.Is(err, service.ErrInvalidSessionID):
		writeError(w, http.StatusNotFound, "session_not_found", err)
	case errors.Is(err, service.ErrTooManySessions):
		writeError(w, http.StatusTooManyRequests, "too_many_sessions", err)
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "unavailable", err)
	case errors.Is(err, service.ErrSessionUnavailable):
		writeError(w, http.StatusServiceUnavailable, "session_unavailable", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
	return nil, false
}
