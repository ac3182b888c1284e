package orch

import (
	"encoding/json"

	"github.com/dkeye/Attend/internal/core"
	"github.com/dkeye/Attend/internal/domain"
	"github.com/rs/zerolog/log"
)

// Relay forwards a setup message to exactly one destination.
// Unknown destinations and senders that are not joined (never joined, or
// evicted) are dropped without telling the sender.
func (o *Orchestrator) Relay(kind core.SetupKind, payload json.RawMessage, from, to core.ConnID) {
	o.mu.RLock()
	sender, joined := o.Registry.Lookup(from)
	if !joined {
		o.mu.RUnlock()
		log.Debug().Str("module", "orch").Str("kind", string(kind)).Str("from", string(from)).Msg("relay from unregistered sender")
		return
	}
	sig, ok := o.Registry.Signal(to)
	if ok && kind == core.SetupAnswer && !sender.IsHost() {
		if host, _ := o.Rooms.Host(sender.Room); host == to {
			o.clearSetup(from)
		}
	}
	o.mu.RUnlock()

	if !ok {
		log.Debug().Str("module", "orch").Str("kind", string(kind)).Str("from", string(from)).Str("to", string(to)).Msg("relay target gone")
		return
	}
	o.dispatch([]outbound{{to: to, sig: sig, env: core.Envelope{
		Type: string(kind), From: from, Payload: payload,
	}}})
}

// ReportInattentive forwards a peer's attentiveness verdict to the room's current host.
func (o *Orchestrator) ReportInattentive(room domain.RoomID, name domain.DisplayName) {
	o.mu.RLock()
	var out []outbound
	if host, ok := o.Rooms.Host(room); ok {
		out = o.to(host, core.Envelope{Type: core.TypeStudentInattentive, Name: name})
	}
	o.mu.RUnlock()

	if len(out) == 0 {
		log.Debug().Str("module", "orch").Str("room", string(room)).Msg("inattentive report without host")
		return
	}
	log.Info().Str("module", "orch").Str("room", string(room)).Str("name", string(name)).Msg("inattentive")
	o.dispatch(out)
}
