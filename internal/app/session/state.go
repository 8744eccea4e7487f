package session

import "github.com/okian/pscore/internal/domain/model"

// Phase is the generation lifecycle.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseGenerating Phase = "generating"
	PhaseCompleted  Phase = "completed"
	PhaseCancelled  Phase = "cancelled"
	PhaseFailed     Phase = "failed"
)

// Terminal reports whether p accepts a new Start.
func (p Phase) Terminal() bool {
	return p != PhaseGenerating
}

// State is a point-in-time copy of a session.
type State struct {
	Username         string                    `json:"username"`
	UsernameError    string                    `json:"usernameError,omitempty"`
	Phase            Phase                     `json:"phase"`
	Generating       bool                      `json:"generating"`
	Refreshing       bool                      `json:"refreshing"`
	Countdown        int                       `json:"countdown"`
	EstimatedSeconds int                       `json:"estimatedSeconds"`
	Error            string                    `json:"error,omitempty"`
	History          []model.ScoreHistoryEntry `json:"history"`
	SelectedIndex    *int                      `json:"selectedIndex"`
	SelectedReport   *model.ScoreHistoryEntry  `json:"selectedReport,omitempty"`
	UserEntry        *model.LeaderboardEntry   `json:"userEntry,omitempty"`
	HasPosted        bool                      `json:"hasPosted"`
	Leaderboards     *model.Leaderboards       `json:"leaderboards,omitempty"`
}
