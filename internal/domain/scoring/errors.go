package scoring

import "errors"

// Sentinel kinds for score service errors. The messages are user-facing.
var (
	ErrMalformedResponse = errors.New("The AI returned a malformed response. Please try again.") //nolint:staticcheck // shown to users verbatim
	ErrGenerationFailed  = errors.New("Failed to get a valid score from the AI model.")          //nolint:staticcheck // shown to users verbatim
	ErrLeaderboardLoad   = errors.New("leaderboard load failed")
)
