package protocol

import (
	"crypto/rand"
	"encoding/binary"
	"sync/atomic"

	"github.com/google/uuid"
)

var seq int64

// NewID returns a process-unique numeric id for guest players.
func NewID() int64 {
	base := atomic.AddInt64(&seq, 1)
	var b [2]byte
	rand.Read(b[:])
	return (base << 16) | int64(binary.BigEndian.Uint16(b[:]))
}

// NewMatchID returns the opaque id a session is registered under.
func NewMatchID() string {
	return uuid.NewString()
}
