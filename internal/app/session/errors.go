package session

import "errors"

var (
	// ErrGenerationInProgress is returned by Start while a generation is running.
	ErrGenerationInProgress = errors.New("score generation already in progress")
	// ErrHistoryIndex is returned by SelectHistory for an index outside the history.
	ErrHistoryIndex = errors.New("history index out of range")
	// ErrRestore is returned by Activate when persisted state could not be read.
	ErrRestore = errors.New("failed to restore session state")
)
