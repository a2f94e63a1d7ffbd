// Package uuidgen wraps a cryptographically seeded UUID source behind a
// small Generator interface, so packet construction does not depend
// directly on a process-wide global (the re-architecture hint from the
// original source this module replaces).
package uuidgen

import "github.com/google/uuid"

// Generator produces 16-byte unique identifiers (snowflakes).
type Generator interface {
	New() [16]byte
}

// Default is a Generator backed by google/uuid's random (version 4) source.
type Default struct{}

// New returns a fresh random UUID as a 16-byte array.
func (Default) New() [16]byte {
	id := uuid.New()
	var out [16]byte
	copy(out[:], id[:])
	return out
}
