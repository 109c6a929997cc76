// Package idhash computes deterministic identities from input parameters.
package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// TaskKey computes a stable cache identity for a task invocation using
// SHA256. Formula: SHA256(name|param|param|...).
// Returns hex-encoded hash (64 characters). Two invocations share a key
// iff they have the same task name and parameter list.
func TaskKey(name string, params ...string) string {
	parts := make([]string, 0, len(params)+1)
	parts = append(parts, name)
	parts = append(parts, params...)

	hash := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(hash[:])
}
