// Package username validates the display name attached to posted scores.
package username

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf16"
)

// Length bounds, in UTF-16 code units as a browser input counts them.
const (
	MinLength = 3
	MaxLength = 20
)

// User-facing validation messages.
const (
	MsgTooShort = "Username must be at least 3 characters long."
	MsgTooLong  = "Username cannot exceed 20 characters."
	MsgCharset  = "Username can only contain letters, numbers, and underscores."
	MsgRequired = "Please enter a valid username to start."
)

// ErrInvalidUsername is the kind shared by every validation failure.
var ErrInvalidUsername = errors.New("invalid username")

var allowed = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// ValidationError carries the message shown next to the username field.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Unwrap lets callers match with errors.Is(err, ErrInvalidUsername).
func (e *ValidationError) Unwrap() error { return ErrInvalidUsername }

// Validate checks name as typed. An empty name is not an error so that an
// untouched field shows nothing.
func Validate(name string) error {
	if name == "" {
		return nil
	}
	n := len(utf16.Encode([]rune(name)))
	switch {
	case n < MinLength:
		return &ValidationError{Message: MsgTooShort}
	case n > MaxLength:
		return &ValidationError{Message: MsgTooLong}
	case !allowed.MatchString(name):
		return &ValidationError{Message: MsgCharset}
	}
	return nil
}

// Ready reports whether name may start a generation.
func Ready(name string) error {
	if strings.TrimSpace(name) == "" {
		return &ValidationError{Message: MsgRequired}
	}
	return Validate(name)
}

// Message returns the validation message for err, or "" when err is not a
// validation failure.
func Message(err error) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	return ""
}
