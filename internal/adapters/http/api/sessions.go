package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/okian/pscore/internal/app/session"
	"github.com/okian/pscore/internal/domain/username"
)

type createSessionResponse struct {
	SessionID string `json:"session_id"`
}

type usernameRequest struct {
	Username *string `json:"username"`
}

type selectionRequest struct {
	Index *int `json:"index"`
}

type cancelResponse struct {
	Cancelled bool          `json:"cancelled"`
	State     session.State `json:"state"`
}

type postResponse struct {
	Posted bool          `json:"posted"`
	State  session.State `json:"state"`
}

// SessionsHandler handles session lifecycle and generation requests.
type SessionsHandler struct {
	deps Dependencies
}

// NewSessionsHandler creates a new sessions handler.
func NewSessionsHandler(deps Dependencies) *SessionsHandler {
	return &SessionsHandler{deps: deps}
}

// HandleCreate handles POST /sessions.
func (h *SessionsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	id, err := h.deps.CreateSession(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "unavailable", err)
		return
	}
	writeJSON(w, http.StatusCreated, createSessionResponse{SessionID: id})
}

// HandleGet handles GET /sessions/{id}.
func (h *SessionsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	c, ok := lookupSession(w, r, h.deps)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, c.Snapshot())
}

// HandleSetUsername handles PUT /sessions/{id}/username. An invalid name is
// stored; its message is reported inside the state.
func (h *SessionsHandler) HandleSetUsername(w http.ResponseWriter, r *http.Request) {
	c, ok := lookupSession(w, r, h.deps)
	if !ok {
		return
	}
	var req usernameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: body must be {\"username\": string}", ErrBadRequest))
		return
	}
	c.SetUsername(r.Context(), *req.Username)
	writeJSON(w, http.StatusOK, c.Snapshot())
}

// HandleGenerate handles POST /sessions/{id}/generate. Without a body the
// session's current username is used.
func (h *SessionsHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	c, ok := lookupSession(w, r, h.deps)
	if !ok {
		return
	}
	var req usernameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}
	name := c.Snapshot().Username
	if req.Username != nil {
		name = *req.Username
	}

	if _, err := c.Start(r.Context(), name); err != nil {
		switch {
		case errors.Is(err, username.ErrInvalidUsername):
			writeError(w, http.StatusBadRequest, "invalid_username", err)
		case errors.Is(err, session.ErrGenerationInProgress):
			writeError(w, http.StatusConflict, "generation_in_progress", err)
		default:
			writeError(w, http.StatusInternalServerError, "internal_error", err)
		}
		return
	}
	writeJSON(w, http.StatusAccepted, c.Snapshot())
}

// HandleCancel handles POST /sessions/{id}/cancel.
func (h *SessionsHandler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	c, ok := lookupSession(w, r, h.deps)
	if !ok {
		return
	}
	cancelled := c.Cancel()
	writeJSON(w, http.StatusOK, cancelResponse{Cancelled: cancelled, State: c.Snapshot()})
}

// HandlePost handles POST /sessions/{id}/post. A failed leaderboard refresh
// does not undo the post; it shows up in the state's error banner.
func (h *SessionsHandler) HandlePost(w http.ResponseWriter, r *http.Request) {
	c, ok := lookupSession(w, r, h.deps)
	if !ok {
		return
	}
	posted, _ := c.PostUnverified(r.Context())
	writeJSON(w, http.StatusOK, postResponse{Posted: posted, State: c.Snapshot()})
}

// HandleVerify handles POST /sessions/{id}/verify.
func (h *SessionsHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	c, ok := lookupSession(w, r, h.deps)
	if !ok {
		return
	}
	verified, _ := c.GetVerified(r.Context())
	writeJSON(w, http.StatusOK, postResponse{Posted: verified, State: c.Snapshot()})
}

// HandleSelect handles PUT /sessions/{id}/selection.
func (h *SessionsHandler) HandleSelect(w http.ResponseWriter, r *http.Request) {
	c, ok := lookupSession(w, r, h.deps)
	if !ok {
		return
	}
	var req selectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Index == nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: body must be {\"index\": number}", ErrBadRequest))
		return
	}
	if err := c.SelectHistory(*req.Index); err != nil {
		writeError(w, http.StatusBadRequest, "history_index", err)
		return
	}
	writeJSON(w, http.StatusOK, c.Snapshot())
}

// HandleDismissError handles DELETE /sessions/{id}/error.
func (h *SessionsHandler) HandleDismissError(w http.ResponseWriter, r *http.Request) {
	c, ok := lookupSession(w, r, h.deps)
	if !ok {
		return
	}
	c.DismissError()
	writeJSON(w, http.StatusOK, c.Snapshot())
}
