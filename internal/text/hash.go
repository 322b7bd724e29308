// Package text holds the normalization, token-protection, and language
// classification primitives shared by every writer and rewriter in the
// import pipeline. All functions are pure and never panic on malformed
// input; the pipeline's invariant is that a single bad row must not
// abort a run.
package text

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Sha256Hex returns the lowercase hex SHA-256 of the trimmed UTF-8 bytes
// of s. Blank input yields an empty string.
func Sha256Hex(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// Sha256Bytes returns the raw 32-byte SHA-256 of the trimmed UTF-8 bytes
// of s, or nil for blank input.
func Sha256Bytes(s string) []byte {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	sum := sha256.Sum256([]byte(s))
	return sum[:]
}
