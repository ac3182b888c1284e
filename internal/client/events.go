package client

import "github.com/dkeye/Attend/internal/core"

type EventKind string

const (
	EventJoined       EventKind = "joined"
	EventPeerJoined   EventKind = "peer-joined"
	EventPeerLeft     EventKind = "peer-left"
	EventMemberJoined EventKind = "member-joined"
	EventMemberLeft   EventKind = "member-left"
	EventMediaReady   EventKind = "media-ready"
	EventHello        EventKind = "hello"
	EventAlert        EventKind = "alert"
	EventAlertCleared EventKind = "alert-cleared"
	EventNotice       EventKind = "notice"
	EventHostLeft     EventKind = "host-left"
	EventReplaced     EventKind = "host-replaced"
	EventExpired      EventKind = "setup-expired"
	EventEnded        EventKind = "ended"
	EventError        EventKind = "error"
)

// Event is what a session reports to whoever renders it.
type Event struct {
	Kind EventKind
	Peer core.ConnID
	Name string
	Text string
}

type EventFunc func(Event)

func (f EventFunc) emit(e Event) {
	if f != nil {
		f(e)
	}
}
