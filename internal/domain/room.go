package domain

import "strings"

type RoomID string

func NewRoomID(raw string) (RoomID, error) {
	id := strings.TrimSpace(raw)
	if id == "" {
		return "", ErrRoomIDEmpty
	}
	if len(id) > MaxRoomIDLen {
		return "", ErrRoomIDTooLong
	}
	return RoomID(id), nil
}

// RoomInfo is a read-only view of a room for APIs.
type RoomInfo struct {
	ID        RoomID `json:"id"`
	HasHost   bool   `json:"has_host"`
	PeerCount int    `json:"peer_count"`
}
