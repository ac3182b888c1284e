package ui

import (
	"fmt"

	"github.com/dkeye/Attend/internal/client"
)

// EventLine renders one session event as a terminal line. Empty means skip.
func EventLine(e client.Event) string {
	switch e.Kind {
	case client.EventJoined:
		return RoomBox(e.Name, e.Text)
	case client.EventPeerJoined:
		return fmt.Sprintf("%s %s joined, negotiating", IconPeer, TitleStyle.Render(e.Name))
	case client.EventMediaReady:
		return SuccessStyle.Render(fmt.Sprintf("%s media path to %s is up", IconSuccess, e.Name))
	case client.EventHello:
		return MutedStyle.Render(fmt.Sprintf("%s on the line: %s (%s)", IconPeer, e.Name, e.Text))
	case client.EventPeerLeft:
		return MutedStyle.Render(fmt.Sprintf("%s %s left", IconPeer, e.Name))
	case client.EventMemberJoined, client.EventMemberLeft:
		return MutedStyle.Render(fmt.Sprintf("%s %s", e.Kind, e.Name))
	case client.EventAlert:
		return AlertStyle.Render(IconEye + " " + e.Text)
	case client.EventAlertCleared:
		return MutedStyle.Render(fmt.Sprintf("alert for %s cleared", e.Name))
	case client.EventNotice:
		return WarningStyle.Render(IconWarning + " " + e.Text)
	case client.EventHostLeft:
		return WarningStyle.Render(e.Text)
	case client.EventReplaced:
		return ErrorStyle.Render("another host took over room " + e.Name)
	case client.EventExpired:
		return ErrorStyle.Render("connection setup timed out in room " + e.Name)
	case client.EventEnded:
		return MutedStyle.Render("session ended")
	case client.EventError:
		return ErrorStyle.Render(IconError + " " + e.Text)
	}
	return ""
}
