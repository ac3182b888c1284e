package client

import (
	"context"
	"encoding/json"

	"github.com/dkeye/Attend/internal/adapters/rtc"
	"github.com/dkeye/Attend/internal/core"
	"github.com/dkeye/Attend/internal/domain"
)

// helloSource is a media connection that reports who is on the other end.
type helloSource interface {
	OnHello(func(rtc.Hello))
}

// session is the part host and peer sessions share.
type session struct {
	sig      Signaler
	newMedia core.MediaFactory
	events   EventFunc

	room domain.RoomID
	name domain.DisplayName
	self core.ConnID
}

// run feeds envelopes to handle until ctx ends, in closes or done fires.
func run(ctx context.Context, in <-chan core.Envelope, done <-chan struct{}, handle func(core.Envelope)) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-done:
			return nil
		case env, ok := <-in:
			if !ok {
				return ErrClosed
			}
			handle(env)
		}
	}
}

// openMedia creates a media connection toward remote whose local candidates
// are relayed back through the signaling server.
func (s *session) openMedia(ctx context.Context, remote core.ConnID, name string) (core.MediaConnection, error) {
	m, err := s.newMedia(remote)
	if err != nil {
		return nil, err
	}
	m.OnCandidate(func(c json.RawMessage) {
		_ = sendSetup(s.sig, core.SetupCandidate, remote, c)
	})
	m.OnReady(func() {
		s.events.emit(Event{Kind: EventMediaReady, Peer: remote, Name: name})
	})
	if hs, ok := m.(helloSource); ok {
		hs.OnHello(func(h rtc.Hello) {
			s.events.emit(Event{Kind: EventHello, Peer: remote, Name: h.Name, Text: h.Role})
		})
	}
	if err := m.Start(ctx); err != nil {
		m.Close()
		return nil, err
	}
	return m, nil
}

func (s *session) common(env core.Envelope) bool {
	switch env.Type {
	case core.TypeJoined:
		s.self = env.ID
		s.room = env.Room
		s.events.emit(Event{Kind: EventJoined, Peer: env.ID, Name: string(env.Room), Text: string(env.Role)})
	case core.TypeMemberJoined:
		s.events.emit(Event{Kind: EventMemberJoined, Name: string(env.Name)})
	case core.TypeMemberLeft:
		s.events.emit(Event{Kind: EventMemberLeft, Name: string(env.Name)})
	case core.TypeError:
		s.events.emit(Event{Kind: EventError, Text: env.Error})
	case core.TypePong, core.TypeLeft:
	default:
		return false
	}
	return true
}
