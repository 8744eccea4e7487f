// Package kvstore provides the durable key-value store that holds per-session
// client state.
package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Keys written by the session controller.
const (
	KeyHasPosted    = "hasPosted"
	KeyUsername     = "username"
	KeyScoreHistory = "scoreHistory"
	KeyUserEntry    = "userEntry"
)

// Store is a string key-value store. A missing key is reported as
// ErrNotFound, never as a failure of the store itself.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Close() error
}

// Scope namespaces every key of base under prefix. Closing the scoped store
// is a no-op; the owner of base closes it.
func Scope(base Store, prefix string) Store {
	return &scoped{base: base, prefix: strings.TrimSuffix(prefix, ":") + ":"}
}

type scoped struct {
	base   Store
	prefix string
}

func (s *scoped) Get(ctx context.Context, key string) (string, error) {
	return s.base.Get(ctx, s.prefix+key)
}

func (s *scoped) Set(ctx context.Context, key, value string) error {
	return s.base.Set(ctx, s.prefix+key, value)
}

func (s *scoped) Close() error { return nil }

// GetJSON decodes the value under key into v. It returns ErrNotFound when the
// key is absent and an error wrapping ErrCorrupt when the value does not
// decode.
func GetJSON(ctx context.Context, s Store, key string, v any) error {
	raw, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("%w: key %q: %w", ErrCorrupt, key, err)
	}
	return nil
}

// SetJSON encodes v and stores it under key.
func SetJSON(ctx context.Context, s Store, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %q: %w", key, err)
	}
	return s.Set(ctx, key, string(raw))
}

// IsNotFound reports whether err means the key is absent.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
