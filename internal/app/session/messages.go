package session

import (
	"errors"
	"strings"

	"github.com/okian/pscore/internal/domain/scoring"
)

// Banner messages shown to the user.
const (
	MsgCancelled       = "Score generation cancelled."
	MsgAPIKey          = "Failed to generate score. Please check that your API Key is valid and has sufficient quota."
	MsgInvalidResponse = "The AI returned an invalid response. This may be a temporary issue. Please try again in a moment."
	MsgNetwork         = "Failed to generate score. There might be a network issue or the service is temporarily down."
	MsgLeaderboardLoad = "Could not load leaderboards. A temporary network issue may have occurred. Please try refreshing."
)

// FriendlyError maps a generation failure to the banner message.
func FriendlyError(err error) string {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "api key"):
		return MsgAPIKey
	case errors.Is(err, scoring.ErrMalformedResponse),
		strings.Contains(msg, "malformed"),
		strings.Contains(msg, "empty response"):
		return MsgInvalidResponse
	default:
		return MsgNetwork
	}
}
