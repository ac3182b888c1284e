package ui

import (
	"testing"

	"github.com/dkeye/Attend/internal/client"
	"github.com/dkeye/Attend/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestRoomsTable(t *testing.T) {
	out := RoomsTable([]domain.RoomInfo{
		{ID: "bio-1", HasHost: true, PeerCount: 3},
		{ID: "art", PeerCount: 1},
	})
	assert.Contains(t, out, "bio-1")
	assert.Contains(t, out, "art")
	assert.Contains(t, out, "3")

	assert.Contains(t, RoomsTable(nil), "No active rooms")
}

func TestEventLine(t *testing.T) {
	assert.Contains(t, EventLine(client.Event{Kind: client.EventAlert, Text: "Student bob is inattentive!"}), "bob")
	assert.Contains(t, EventLine(client.Event{Kind: client.EventJoined, Name: "r1", Text: "host"}), "r1")
	assert.Contains(t, EventLine(client.Event{Kind: client.EventHello, Name: "alice", Text: "peer"}), "alice")
	assert.Empty(t, EventLine(client.Event{Kind: "other"}))
}
