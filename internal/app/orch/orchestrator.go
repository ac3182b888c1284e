package orch

import (
	"errors"
	"sync"
	"time"

	"github.com/dkeye/Attend/internal/app"
	"github.com/dkeye/Attend/internal/core"
	"github.com/dkeye/Attend/internal/domain"
	"github.com/rs/zerolog/log"
)

// Orchestrator owns the Registry and Room Table. Every join, leave and
// disconnect runs under mu, so relay and topology decisions never observe
// a half-updated room. Messages are computed under the lock and sent after it.
type Orchestrator struct {
	Registry *app.Registry
	Rooms    *app.RoomTable
	Policy   app.Policy

	HostPolicy          app.HostPolicy
	NotifyExistingPeers bool
	// HandshakeTimeout bounds how long a peer may wait for its setup to
	// complete after the host was told about it. Zero disables it.
	HandshakeTimeout time.Duration

	mu sync.RWMutex

	pendingMu sync.Mutex
	pending   map[core.ConnID]*pendingSetup
}

func New(reg *app.Registry, rooms *app.RoomTable) *Orchestrator {
	return &Orchestrator{
		Registry:   reg,
		Rooms:      rooms,
		Policy:     app.DropPolicy{},
		HostPolicy: app.HostEvict,
	}
}

type outbound struct {
	to  core.ConnID
	sig core.SignalConnection
	env core.Envelope
}

// to addresses env to a registered connection. Unregistered ids yield nothing.
func (o *Orchestrator) to(id core.ConnID, env core.Envelope) []outbound {
	sig, ok := o.Registry.Signal(id)
	if !ok {
		return nil
	}
	return []outbound{{to: id, sig: sig, env: env}}
}

func (o *Orchestrator) broadcast(room domain.RoomID, env core.Envelope) []outbound {
	snaps := o.Registry.Snapshot(o.Rooms.Members(room))
	out := make([]outbound, 0, len(snaps))
	for _, s := range snaps {
		out = append(out, outbound{to: s.ID, sig: s.Signal, env: env})
	}
	return out
}

// dispatch must be called without holding mu.
func (o *Orchestrator) dispatch(out []outbound) {
	for _, m := range out {
		frame, err := core.Encode(m.env)
		if err != nil {
			log.Error().Err(err).Str("module", "orch").Str("type", m.env.Type).Msg("encode")
			continue
		}
		err = m.sig.TrySend(frame)
		if err == nil {
			continue
		}
		log.Debug().Err(err).Str("module", "orch").Str("to", string(m.to)).Str("type", m.env.Type).Msg("delivery dropped")
		if errors.Is(err, core.ErrBackpressure) && o.Policy != nil &&
			o.Policy.OnBackPressure(m.to) == app.KickMember {
			log.Warn().Str("module", "orch").Str("id", string(m.to)).Msg("kicking slow consumer")
			o.Registry.Cancel(m.to)
		}
	}
}
