package core

import "github.com/dkeye/Attend/internal/domain"

// Room is the membership state of one room: at most one host and a set of peers.
// It is not safe for concurrent use; the owning table serializes access.
type Room struct {
	ID    domain.RoomID
	host  ConnID
	peers map[ConnID]struct{}
}

func NewRoom(id domain.RoomID) *Room {
	return &Room{ID: id, peers: make(map[ConnID]struct{})}
}

func (r *Room) Host() (ConnID, bool) { return r.host, r.host != "" }

// SetHost records id as host and returns the displaced host, if any.
func (r *Room) SetHost(id ConnID) (ConnID, bool) {
	prev, had := r.host, r.host != "" && r.host != id
	r.host = id
	return prev, had
}

func (r *Room) AddPeer(id ConnID) { r.peers[id] = struct{}{} }

// Remove drops id from whichever slot it occupies.
// The host slot is cleared only when it holds id.
func (r *Room) Remove(id ConnID) (domain.Role, bool) {
	if r.host != "" && r.host == id {
		r.host = ""
		return domain.RoleHost, true
	}
	if _, ok := r.peers[id]; ok {
		delete(r.peers, id)
		return domain.RolePeer, true
	}
	return "", false
}

func (r *Room) HasPeer(id ConnID) bool {
	_, ok := r.peers[id]
	return ok
}

func (r *Room) Peers() []ConnID {
	out := make([]ConnID, 0, len(r.peers))
	for id := range r.peers {
		out = append(out, id)
	}
	return out
}

// Members returns host (if any) followed by peers.
func (r *Room) Members() []ConnID {
	out := make([]ConnID, 0, len(r.peers)+1)
	if r.host != "" {
		out = append(out, r.host)
	}
	return append(out, r.Peers()...)
}

func (r *Room) Empty() bool { return r.host == "" && len(r.peers) == 0 }

func (r *Room) Info() domain.RoomInfo {
	return domain.RoomInfo{ID: r.ID, HasHost: r.host != "", PeerCount: len(r.peers)}
}
