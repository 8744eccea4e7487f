package api

import (
	"errors"
	"net/http"

	"github.com/okian/pscore/internal/app/session"
)

// LeaderboardHandler handles leaderboard requests. Boards are only visible to
// sessions that have posted.
type LeaderboardHandler struct {
	deps Dependencies
}

// NewLeaderboardHandler creates a new leaderboard handler.
func NewLeaderboardHandler(deps Dependencies) *LeaderboardHandler {
	return &LeaderboardHandler{deps: deps}
}

// HandleGet handles GET /sessions/{id}/leaderboards.
func (h *LeaderboardHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	c, ok := lookupSession(w, r, h.deps)
	if !ok {
		return
	}
	s := c.Snapshot()
	if !s.HasPosted {
		writeError(w, http.StatusForbidden, "not_posted", ErrNotPosted)
		return
	}
	writeJSON(w, http.StatusOK, s.Leaderboards)
}

// HandleRefresh handles POST /sessions/{id}/leaderboards/refresh.
func (h *LeaderboardHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	c, ok := lookupSession(w, r, h.deps)
	if !ok {
		return
	}
	if !c.Snapshot().HasPosted {
		writeError(w, http.StatusForbidden, "not_posted", ErrNotPosted)
		return
	}
	if err := c.RefreshLeaderboards(r.Context()); err != nil {
		writeError(w, http.StatusBadGateway, "leaderboard_unavailable", errors.New(session.MsgLeaderboardLoad))
		return
	}
	writeJSON(w, http.StatusOK, c.Snapshot().Leaderboards)
}
