package api

import "errors"

// Sentinel kinds for API errors.
var (
	ErrBadRequest = errors.New("bad request")
	ErrNotPosted  = errors.New("leaderboards are available after posting a score")
)
