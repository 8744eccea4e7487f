package kvstore

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound       = errors.New("key not found")
	ErrCorrupt        = errors.New("stored value is corrupt")
	ErrClosed         = errors.New("store closed")
	ErrUnknownBackend = errors.New("unknown store backend")
)
