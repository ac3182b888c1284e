package app

import (
	"sort"
	"sync"

	"github.com/dkeye/Attend/internal/core"
	"github.com/dkeye/Attend/internal/domain"
	"github.com/rs/zerolog/log"
)

// RoomTable maps a room to its host and peer set.
// Rooms are created on first join and dropped once empty.
type RoomTable struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID]*core.Room
}

func NewRoomTable() *RoomTable {
	return &RoomTable{rooms: make(map[domain.RoomID]*core.Room)}
}

func (t *RoomTable) getOrCreate(id domain.RoomID) *core.Room {
	room, ok := t.rooms[id]
	if !ok {
		room = core.NewRoom(id)
		t.rooms[id] = room
		log.Info().Str("module", "app.rooms").Str("room", string(id)).Msg("room created")
	}
	return room
}

// JoinAsHost sets the host and returns the displaced host reference, if any.
func (t *RoomTable) JoinAsHost(id domain.RoomID, conn core.ConnID) (core.ConnID, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.getOrCreate(id).SetHost(conn)
}

// JoinAsPeer adds the peer and returns the current host, if any.
func (t *RoomTable) JoinAsPeer(id domain.RoomID, conn core.ConnID) (core.ConnID, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	room := t.getOrCreate(id)
	room.AddPeer(conn)
	return room.Host()
}

// Leave removes conn from the room and reports the slot it occupied.
func (t *RoomTable) Leave(id domain.RoomID, conn core.ConnID) (domain.Role, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	room, ok := t.rooms[id]
	if !ok {
		return "", false
	}
	role, ok := room.Remove(conn)
	if room.Empty() {
		delete(t.rooms, id)
		log.Info().Str("module", "app.rooms").Str("room", string(id)).Msg("room dropped")
	}
	return role, ok
}

func (t *RoomTable) Host(id domain.RoomID) (core.ConnID, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if room, ok := t.rooms[id]; ok {
		return room.Host()
	}
	return "", false
}

func (t *RoomTable) Peers(id domain.RoomID) []core.ConnID {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if room, ok := t.rooms[id]; ok {
		return room.Peers()
	}
	return nil
}

func (t *RoomTable) Members(id domain.RoomID) []core.ConnID {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if room, ok := t.rooms[id]; ok {
		return room.Members()
	}
	return nil
}

func (t *RoomTable) Get(id domain.RoomID) (domain.RoomInfo, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if room, ok := t.rooms[id]; ok {
		return room.Info(), true
	}
	return domain.RoomInfo{}, false
}

func (t *RoomTable) List() []domain.RoomInfo {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]domain.RoomInfo, 0, len(t.rooms))
	for _, r := range t.rooms {
		out = append(out, r.Info())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
