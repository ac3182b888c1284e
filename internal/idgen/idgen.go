package idgen

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/dkeye/Attend/internal/core"
	"github.com/dkeye/Attend/internal/domain"
	"github.com/oklog/ulid/v2"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewConnID returns a lexically sortable connection identifier.
func NewConnID() core.ConnID {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return core.ConnID(ulid.MustNew(ulid.Timestamp(time.Now().UTC()), entropy).String())
}

const roomChars = "abcdefghijkmnpqrstuvwxyz23456789"

// NewRoomID returns a short human-shareable room code, e.g. "k7q-m2xp".
func NewRoomID() (domain.RoomID, error) {
	b := make([]byte, 7)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	out := make([]byte, 0, 8)
	for i := range b {
		if i == 3 {
			out = append(out, '-')
		}
		out = append(out, roomChars[int(b[i])%len(roomChars)])
	}
	return domain.RoomID(out), nil
}
