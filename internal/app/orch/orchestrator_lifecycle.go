package orch

import (
	"time"

	"github.com/dkeye/Attend/internal/core"
	"github.com/dkeye/Attend/internal/domain"
	"github.com/rs/zerolog/log"
)

// OnDisconnect unwinds a connection's state and notifies its room.
// Repeated calls for the same id are no-ops.
func (o *Orchestrator) OnDisconnect(id core.ConnID) {
	o.mu.Lock()
	out := o.reapLocked(id)
	o.mu.Unlock()
	o.dispatch(out)
}

// Leave is OnDisconnect for a connection that stays open.
func (o *Orchestrator) Leave(id core.ConnID) {
	log.Info().Str("module", "orch").Str("id", string(id)).Msg("leave")
	o.OnDisconnect(id)
}

func (o *Orchestrator) reapLocked(id core.ConnID) []outbound {
	m, ok := o.Registry.Remove(id)
	if !ok {
		return nil
	}
	o.clearSetup(id)

	var out []outbound
	role, inRoom := o.Rooms.Leave(m.Room, id)
	switch {
	case inRoom && role == domain.RoleHost:
		o.clearRoomSetups(m.Room)
		out = append(out, o.broadcast(m.Room, core.Envelope{Type: core.TypeHostLeft})...)
	case inRoom && role == domain.RolePeer:
		if host, ok := o.Rooms.Host(m.Room); ok {
			out = append(out, o.to(host, core.Envelope{Type: core.TypePeerLeft, PeerID: id})...)
		}
	}
	out = append(out, o.broadcast(m.Room, core.Envelope{Type: core.TypeMemberLeft, Name: m.Name})...)

	log.Info().Str("module", "orch").Str("id", string(id)).Str("room", string(m.Room)).Str("role", string(m.Role)).Bool("in_room", inRoom).Msg("reaped")
	return out
}

type pendingSetup struct {
	room  domain.RoomID
	timer *time.Timer
}

// startSetupTimer must be called with mu held.
func (o *Orchestrator) startSetupTimer(room domain.RoomID, peer core.ConnID) {
	if o.HandshakeTimeout <= 0 {
		return
	}
	o.pendingMu.Lock()
	defer o.pendingMu.Unlock()
	if o.pending == nil {
		o.pending = make(map[core.ConnID]*pendingSetup)
	}
	if old, ok := o.pending[peer]; ok {
		old.timer.Stop()
	}
	p := &pendingSetup{room: room}
	p.timer = time.AfterFunc(o.HandshakeTimeout, func() { o.expireSetup(peer, p) })
	o.pending[peer] = p
}

func (o *Orchestrator) clearSetup(peer core.ConnID) {
	o.pendingMu.Lock()
	defer o.pendingMu.Unlock()
	if p, ok := o.pending[peer]; ok {
		p.timer.Stop()
		delete(o.pending, peer)
	}
}

func (o *Orchestrator) clearRoomSetups(room domain.RoomID) {
	o.pendingMu.Lock()
	defer o.pendingMu.Unlock()
	for peer, p := range o.pending {
		if p.room == room {
			p.timer.Stop()
			delete(o.pending, peer)
		}
	}
}

// PendingSetups reports how many peers are waiting for their setup to complete.
func (o *Orchestrator) PendingSetups() int {
	o.pendingMu.Lock()
	defer o.pendingMu.Unlock()
	return len(o.pending)
}

func (o *Orchestrator) expireSetup(peer core.ConnID, p *pendingSetup) {
	o.mu.Lock()
	o.pendingMu.Lock()
	if cur, ok := o.pending[peer]; !ok || cur != p {
		o.pendingMu.Unlock()
		o.mu.Unlock()
		return
	}
	delete(o.pending, peer)
	o.pendingMu.Unlock()

	cancel, _ := o.Registry.CancelFunc(peer)
	out := o.to(peer, core.Envelope{Type: core.TypeSetupExpired, Room: p.room})
	out = append(out, o.reapLocked(peer)...)
	o.mu.Unlock()

	log.Warn().Str("module", "orch").Str("id", string(peer)).Str("room", string(p.room)).Msg("setup expired")
	o.dispatch(out)
	if cancel != nil {
		cancel()
	}
}
