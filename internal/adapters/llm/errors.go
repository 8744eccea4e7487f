package llm

import "errors"

var (
	// ErrMissingAPIKey is returned by every call when no API key was configured.
	ErrMissingAPIKey = errors.New("api key not configured")
	// ErrEmptyResponse is returned when the model produced no candidate text.
	ErrEmptyResponse = errors.New("empty response from model")
)
