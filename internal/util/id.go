package util

import (
	"crypto/rand"
	"encoding/hex"
)

// idBytes gives 128-bit identifiers, wide enough that instances can mint IDs
// without coordinating.
const idBytes = 16

// NewID returns an opaque hex identifier for a new entity.
func NewID() string {
	buf := make([]byte, idBytes)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}
