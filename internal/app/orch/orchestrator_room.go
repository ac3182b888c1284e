package orch

import (
	"context"

	"github.com/dkeye/Attend/internal/app"
	"github.com/dkeye/Attend/internal/core"
	"github.com/dkeye/Attend/internal/domain"
	"github.com/rs/zerolog/log"
)

// Join admits a connection into a room with its declared role.
// A connection that is already joined leaves its previous room first.
func (o *Orchestrator) Join(
	id core.ConnID,
	sig core.SignalConnection,
	cancel context.CancelFunc,
	room domain.RoomID,
	name domain.DisplayName,
	role domain.Role,
) error {
	o.mu.Lock()
	// A refused claim must leave the caller where it was.
	if role == domain.RoleHost && o.HostPolicy == app.HostReject {
		if host, ok := o.Rooms.Host(room); ok && host != id {
			o.mu.Unlock()
			log.Info().Str("module", "orch").Str("id", string(id)).Str("room", string(room)).Msg("host claim rejected")
			return app.ErrHostTaken
		}
	}

	var (
		out  []outbound
		kick context.CancelFunc
	)
	if prev, ok := o.Registry.Lookup(id); ok {
		log.Info().Str("module", "orch").Str("id", string(id)).Str("from_room", string(prev.Room)).Msg("rejoin, leaving previous room")
		out = append(out, o.reapLocked(id)...)
	}

	o.Registry.Register(id, *domain.NewMember(room, name, role), sig, cancel)
	out = append(out, outbound{to: id, sig: sig, env: core.Envelope{
		Type: core.TypeJoined, ID: id, Room: room, Role: role,
	}})

	switch role {
	case domain.RoleHost:
		if displaced, had := o.Rooms.JoinAsHost(room, id); had {
			var evicted []outbound
			evicted, kick = o.displaceHostLocked(displaced, room)
			out = append(out, evicted...)
		}
		if o.NotifyExistingPeers {
			for _, peer := range o.Rooms.Peers(room) {
				m, ok := o.Registry.Lookup(peer)
				if !ok {
					continue
				}
				out = append(out, outbound{to: id, sig: sig, env: core.Envelope{
					Type: core.TypePeerJoined, PeerID: peer, Name: m.Name,
				}})
				o.startSetupTimer(room, peer)
			}
		}
	case domain.RolePeer:
		if host, ok := o.Rooms.JoinAsPeer(room, id); ok {
			out = append(out, o.to(host, core.Envelope{Type: core.TypePeerJoined, PeerID: id, Name: name})...)
			o.startSetupTimer(room, id)
		}
	}

	out = append(out, o.broadcast(room, core.Envelope{Type: core.TypeMemberJoined, Name: name})...)
	o.mu.Unlock()

	log.Info().Str("module", "orch").Str("id", string(id)).Str("room", string(room)).Str("role", string(role)).Msg("joined")
	o.dispatch(out)
	if kick != nil {
		kick()
	}
	return nil
}

// displaceHostLocked applies the host policy to a replaced host. Under evict
// the old host is told, unregistered, and its transport cancel is returned so
// the caller can close it after dispatch.
func (o *Orchestrator) displaceHostLocked(displaced core.ConnID, room domain.RoomID) ([]outbound, context.CancelFunc) {
	if o.HostPolicy != app.HostEvict {
		log.Warn().Str("module", "orch").Str("room", string(room)).Str("displaced", string(displaced)).Msg("host reference replaced")
		return nil, nil
	}
	out := o.to(displaced, core.Envelope{Type: core.TypeHostReplaced, Room: room})
	cancel, _ := o.Registry.CancelFunc(displaced)
	o.Registry.Remove(displaced)
	log.Info().Str("module", "orch").Str("room", string(room)).Str("displaced", string(displaced)).Msg("host evicted")
	return out, cancel
}
