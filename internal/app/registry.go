package app

import (
	"context"
	"sync"

	"github.com/dkeye/Attend/internal/core"
	"github.com/dkeye/Attend/internal/domain"
	"github.com/rs/zerolog/log"
)

type sessionEntry struct {
	Member domain.Member
	Signal core.SignalConnection
	Cancel context.CancelFunc
}

// Registry maps a live connection to its session context.
type Registry struct {
	mu       sync.RWMutex
	sessions map[core.ConnID]*sessionEntry
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[core.ConnID]*sessionEntry),
	}
}

// Register records the connection's context. A second call for the same id
// overwrites the previous entry.
func (r *Registry) Register(
	id core.ConnID,
	member domain.Member,
	sig core.SignalConnection,
	cancel context.CancelFunc,
) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[id] = &sessionEntry{Member: member, Signal: sig, Cancel: cancel}
	log.Debug().Str("module", "app.registry").Str("id", string(id)).Str("room", string(member.Room)).Str("role", string(member.Role)).Msg("registered")
}

func (r *Registry) Lookup(id core.ConnID) (domain.Member, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.sessions[id]; ok {
		return e.Member, true
	}
	return domain.Member{}, false
}

// Signal returns the transport handle so the caller can send outside any lock.
func (r *Registry) Signal(id core.ConnID) (core.SignalConnection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.sessions[id]; ok {
		return e.Signal, true
	}
	return nil, false
}

func (r *Registry) Remove(id core.ConnID) (domain.Member, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[id]
	if !ok {
		return domain.Member{}, false
	}
	delete(r.sessions, id)
	log.Debug().Str("module", "app.registry").Str("id", string(id)).Msg("removed")
	return e.Member, true
}

type regSnap struct {
	ID     core.ConnID
	Signal core.SignalConnection
}

// Snapshot resolves ids to transport handles, skipping unregistered ones.
func (r *Registry) Snapshot(ids []core.ConnID) []regSnap {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]regSnap, 0, len(ids))
	for _, id := range ids {
		if e, ok := r.sessions[id]; ok {
			out = append(out, regSnap{ID: id, Signal: e.Signal})
		}
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Cancel tears down the transport of a registered connection.
func (r *Registry) Cancel(id core.ConnID) bool {
	r.mu.RLock()
	e, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if e.Cancel != nil {
		e.Cancel()
	}
	log.Info().Str("module", "app.registry").Str("id", string(id)).Msg("canceled session")
	return true
}

func (r *Registry) CancelFunc(id core.ConnID) (context.CancelFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.sessions[id]; ok && e.Cancel != nil {
		return e.Cancel, true
	}
	return nil, false
}
