package client

import (
	"context"
	"sync"

	"github.com/dkeye/Attend/internal/core"
	"github.com/dkeye/Attend/internal/domain"
	"github.com/rs/zerolog/log"
)

type hostPeer struct {
	name  string
	media core.MediaConnection
}

// HostSession is the instructor's side: it opens a media path to every peer the
// server announces and shows inattentiveness alerts.
type HostSession struct {
	session
	Alerts *AlertBoard

	ctx   context.Context
	mu    sync.Mutex
	peers map[core.ConnID]*hostPeer
	done  chan struct{}
	once  sync.Once
}

func NewHostSession(ctx context.Context, sig Signaler, newMedia core.MediaFactory, events EventFunc) *HostSession {
	h := &HostSession{
		session: session{sig: sig, newMedia: newMedia, events: events},
		Alerts:  NewAlertBoard(DefaultAlertFor),
		ctx:     ctx,
		peers:   make(map[core.ConnID]*hostPeer),
		done:    make(chan struct{}),
	}
	h.Alerts.OnClear = func(name string) {
		events.emit(Event{Kind: EventAlertCleared, Name: name})
	}
	return h
}

func (h *HostSession) Join(room domain.RoomID, name domain.DisplayName) error {
	h.name = name
	return Join(h.sig, room, name, true)
}

func (h *HostSession) Run(in <-chan core.Envelope) error {
	defer h.closeAll()
	return run(h.ctx, in, h.done, h.Handle)
}

func (h *HostSession) Done() <-chan struct{} { return h.done }

func (h *HostSession) Peers() []core.ConnID {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]core.ConnID, 0, len(h.peers))
	for id := range h.peers {
		out = append(out, id)
	}
	return out
}

func (h *HostSession) Handle(env core.Envelope) {
	if h.common(env) {
		return
	}
	switch env.Type {
	case core.TypePeerJoined:
		h.onPeerJoined(env.PeerID, string(env.Name))
	case core.TypeAnswer:
		if m := h.media(env.From); m != nil {
			if err := m.ApplyAnswer(env.Payload); err != nil {
				log.Warn().Err(err).Str("module", "client.host").Str("peer", string(env.From)).Msg("apply answer")
			}
		}
	case core.TypeCandidate:
		if m := h.media(env.From); m != nil {
			if err := m.AddCandidate(env.Payload); err != nil {
				log.Warn().Err(err).Str("module", "client.host").Str("peer", string(env.From)).Msg("add candidate")
			}
		}
	case core.TypePeerLeft:
		h.release(env.PeerID)
	case core.TypeStudentInattentive:
		h.Alerts.Show(string(env.Name))
		h.events.emit(Event{Kind: EventAlert, Name: string(env.Name), Text: "Student " + string(env.Name) + " is inattentive!"})
	case core.TypeHostReplaced:
		h.events.emit(Event{Kind: EventReplaced, Name: string(env.Room)})
		h.end()
	default:
		log.Debug().Str("module", "client.host").Str("type", env.Type).Msg("ignored")
	}
}

func (h *HostSession) onPeerJoined(peer core.ConnID, name string) {
	h.release(peer)
	h.events.emit(Event{Kind: EventPeerJoined, Peer: peer, Name: name})

	m, err := h.openMedia(h.ctx, peer, name)
	if err != nil {
		h.events.emit(Event{Kind: EventError, Peer: peer, Text: err.Error()})
		return
	}
	h.mu.Lock()
	h.peers[peer] = &hostPeer{name: name, media: m}
	h.mu.Unlock()

	offer, err := m.CreateOffer()
	if err != nil {
		h.events.emit(Event{Kind: EventError, Peer: peer, Text: err.Error()})
		h.release(peer)
		return
	}
	if err := sendSetup(h.sig, core.SetupOffer, peer, offer); err != nil {
		log.Warn().Err(err).Str("module", "client.host").Msg("send offer")
	}
}

func (h *HostSession) media(peer core.ConnID) core.MediaConnection {
	h.mu.Lock()
	defer h.mu.Unlock()
	if p, ok := h.peers[peer]; ok {
		return p.media
	}
	return nil
}

func (h *HostSession) release(peer core.ConnID) {
	h.mu.Lock()
	p, ok := h.peers[peer]
	delete(h.peers, peer)
	h.mu.Unlock()
	if !ok {
		return
	}
	p.media.Close()
	h.events.emit(Event{Kind: EventPeerLeft, Peer: peer, Name: p.name})
}

func (h *HostSession) end() {
	h.once.Do(func() {
		close(h.done)
		h.events.emit(Event{Kind: EventEnded})
	})
}

func (h *HostSession) closeAll() {
	for _, id := range h.Peers() {
		h.release(id)
	}
	h.Alerts.Clear()
}
