// Package client drives a classroom session from an endpoint: it talks to
// the signaling server and negotiates media with the other side.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/dkeye/Attend/internal/core"
	"github.com/dkeye/Attend/internal/domain"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

var ErrClosed = errors.New("signaling connection closed")

// Signaler is the outbound half of a signaling connection.
type Signaler interface {
	Send(env core.Envelope) error
}

// Conn is a websocket connection to the signaling server.
type Conn struct {
	ws       *websocket.Conn
	incoming chan core.Envelope
	outgoing chan core.Envelope
	done     chan struct{}

	closeOnce sync.Once
}

func Dial(ctx context.Context, url string, header http.Header) (*Conn, error) {
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	c := &Conn{
		ws:       ws,
		incoming: make(chan core.Envelope, 16),
		outgoing: make(chan core.Envelope, 16),
		done:     make(chan struct{}),
	}
	ws.SetReadLimit(maxMessageSize)
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	go c.readPump()
	go c.writePump()
	return c, nil
}

func (c *Conn) readPump() {
	defer func() {
		c.Close()
		close(c.incoming)
	}()

	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	for {
		var env core.Envelope
		if err := c.ws.ReadJSON(&env); err != nil {
			log.Debug().Err(err).Str("module", "client").Msg("read closed")
			return
		}
		_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
		select {
		case c.incoming <- env:
		case <-c.done:
			return
		}
	}
}

func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case env := <-c.outgoing:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteJSON(env); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

func (c *Conn) Send(env core.Envelope) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}
	select {
	case c.outgoing <- env:
		return nil
	case <-c.done:
		return ErrClosed
	}
}

// Incoming is closed when the server goes away.
func (c *Conn) Incoming() <-chan core.Envelope {
	return c.incoming
}

func (c *Conn) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

func Join(s Signaler, room domain.RoomID, name domain.DisplayName, isHost bool) error {
	return s.Send(core.Envelope{Type: core.TypeJoin, Room: room, Name: name, IsHost: isHost})
}

func Leave(s Signaler) error {
	return s.Send(core.Envelope{Type: core.TypeLeave})
}

func sendSetup(s Signaler, kind core.SetupKind, to core.ConnID, payload json.RawMessage) error {
	return s.Send(core.Envelope{Type: string(kind), To: to, Payload: payload})
}
