package service

import "errors"

var (
	// ErrNotStarted is returned when the service is used before Start.
	ErrNotStarted = errors.New("service not started")
	// ErrInvalidSessionID is returned for an id that is not a UUID.
	ErrInvalidSessionID = errors.New("invalid session id")
	// ErrTooManySessions is returned when the live session cap is reached.
	ErrTooManySessions = errors.New("too many sessions")
	// ErrSessionUnavailable is returned when a session's stored state could
	// not be read.
	ErrSessionUnavailable = errors.New("session temporarily unavailable")
)
