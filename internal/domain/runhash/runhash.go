// Package runhash derives the stable identifier of a generated report.
package runhash

import (
	"crypto/sha1" //nolint:gosec // identifier, not a security boundary
	"encoding/hex"
	"regexp"
)

// Length is the number of hex characters in a run hash.
const Length = sha1.Size * 2

var shape = regexp.MustCompile(`^[0-9a-f]{40}$`)

// Sum returns the lowercase hex SHA-1 of text.
func Sum(text string) string {
	sum := sha1.Sum([]byte(text)) //nolint:gosec // see import
	return hex.EncodeToString(sum[:])
}

// Valid reports whether hash looks like a value produced by Sum.
func Valid(hash string) bool {
	return shape.MatchString(hash)
}
