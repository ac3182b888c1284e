package client

import (
	"context"
	"sync"
	"time"

	"github.com/dkeye/Attend/internal/attention"
	"github.com/dkeye/Attend/internal/core"
	"github.com/dkeye/Attend/internal/domain"
	"github.com/rs/zerolog/log"
)

// DefaultEndGrace is how long a peer keeps showing "host left" before the session ends.
const DefaultEndGrace = 3 * time.Second

// PeerSession is the student's side: it answers the host's offer and
// reports inattentiveness.
type PeerSession struct {
	session
	Reporter *attention.Reporter
	EndGrace time.Duration

	ctx   context.Context
	mu    sync.Mutex
	host  core.ConnID
	media core.MediaConnection
	done  chan struct{}
	once  sync.Once
}

func NewPeerSession(ctx context.Context, sig Signaler, newMedia core.MediaFactory, events EventFunc) *PeerSession {
	return &PeerSession{
		session:  session{sig: sig, newMedia: newMedia, events: events},
		Reporter: attention.NewReporter(attention.DefaultSampleInterval, attention.DefaultNoticeFor),
		EndGrace: DefaultEndGrace,
		ctx:      ctx,
		done:     make(chan struct{}),
	}
}

func (p *PeerSession) Join(room domain.RoomID, name domain.DisplayName) error {
	p.mu.Lock()
	p.name = name
	p.room = room
	p.mu.Unlock()
	return Join(p.sig, room, name, false)
}

func (p *PeerSession) Run(in <-chan core.Envelope) error {
	defer p.closeMedia()
	return run(p.ctx, in, p.done, p.Handle)
}

func (p *PeerSession) Done() <-chan struct{} { return p.done }

func (p *PeerSession) Host() core.ConnID {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.host
}

func (p *PeerSession) Handle(env core.Envelope) {
	p.mu.Lock()
	handled := p.common(env)
	p.mu.Unlock()
	if handled {
		return
	}
	switch env.Type {
	case core.TypeOffer:
		p.onOffer(env.From, env.Payload)
	case core.TypeCandidate:
		p.mu.Lock()
		m, host := p.media, p.host
		p.mu.Unlock()
		if m != nil && env.From == host {
			if err := m.AddCandidate(env.Payload); err != nil {
				log.Warn().Err(err).Str("module", "client.peer").Msg("add candidate")
			}
		}
	case core.TypeHostLeft:
		p.closeMedia()
		p.events.emit(Event{Kind: EventHostLeft, Text: "Host has left the room."})
		time.AfterFunc(p.EndGrace, p.end)
	case core.TypeSetupExpired:
		p.closeMedia()
		p.events.emit(Event{Kind: EventExpired, Name: string(env.Room)})
		p.end()
	default:
		log.Debug().Str("module", "client.peer").Str("type", env.Type).Msg("ignored")
	}
}

func (p *PeerSession) onOffer(from core.ConnID, offer []byte) {
	p.closeMedia()
	m, err := p.openMedia(p.ctx, from, "host")
	if err != nil {
		p.events.emit(Event{Kind: EventError, Peer: from, Text: err.Error()})
		return
	}
	p.mu.Lock()
	p.host, p.media = from, m
	p.mu.Unlock()

	answer, err := m.ApplyOffer(offer)
	if err != nil {
		p.events.emit(Event{Kind: EventError, Peer: from, Text: err.Error()})
		p.closeMedia()
		return
	}
	if err := sendSetup(p.sig, core.SetupAnswer, from, answer); err != nil {
		log.Warn().Err(err).Str("module", "client.peer").Msg("send answer")
	}
}

// Report feeds one classifier verdict through the throttle and signals the
// host when it passes. It returns whether a signal was sent.
func (p *PeerSession) Report(v attention.Verdict) bool {
	if !p.Reporter.Observe(v) {
		return false
	}
	p.mu.Lock()
	room, name := p.room, p.name
	p.mu.Unlock()
	if err := p.sig.Send(core.Envelope{Type: core.TypeInattentive, Room: room, Name: name}); err != nil {
		log.Warn().Err(err).Str("module", "client.peer").Msg("send inattentive")
		return false
	}
	p.events.emit(Event{Kind: EventNotice, Text: "Please pay attention!"})
	return true
}

func (p *PeerSession) closeMedia() {
	p.mu.Lock()
	m := p.media
	p.media = nil
	p.mu.Unlock()
	if m != nil {
		m.Close()
	}
}

func (p *PeerSession) end() {
	p.once.Do(func() {
		close(p.done)
		p.events.emit(Event{Kind: EventEnded})
	})
}
