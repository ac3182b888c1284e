package signal

import (
	"context"
	"time"

	"github.com/dkeye/Attend/internal/core"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
)

const writeWait = 5 * time.Second

func (ctl *SignalWSController) writePump(ctx context.Context, c *WsSignalConn) {
	ticker := time.NewTicker(ctl.opts.PingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			ctl.flush(c)
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			log.Debug().Str("module", "signal").Msg("writePump ctx done")
			return
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := ctl.write(c, data); err != nil {
				log.Debug().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// flush writes whatever is still queued, so a final notice reaches the
// client before the socket closes.
func (ctl *SignalWSController) flush(c *WsSignalConn) {
	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := ctl.write(c, data); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (ctl *SignalWSController) write(c *WsSignalConn, data core.Frame) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// readPump runs the disconnect cleanup synchronously before it returns.
func (ctl *SignalWSController) readPump(ctx context.Context, s *wsSession) {
	defer func() {
		log.Info().Str("module", "signal").Str("id", string(s.id)).Msg("readPump closing")
		ctl.Orch.OnDisconnect(s.id)
		if ctl.limiter != nil {
			ctl.limiter.Forget(s.id)
		}
		s.cancel()
	}()

	pongWait := ctl.opts.PingPeriod * 10 / 9
	c := s.conn.conn
	c.SetReadLimit(ctl.opts.ReadLimit)
	_ = c.SetReadDeadline(time.Now().Add(pongWait))
	c.SetPongHandler(func(string) error {
		return c.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if ctx.Err() != nil {
			return
		}
		_, data, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				log.Warn().Err(err).Str("module", "signal").Str("id", string(s.id)).Msg("readPump read error")
			}
			return
		}
		_ = c.SetReadDeadline(time.Now().Add(pongWait))
		ctl.handleSignal(s, data)
	}
}

func (ctl *SignalWSController) handleSignal(s *wsSession, data []byte) {
	if !gjson.ValidBytes(data) {
		log.Warn().Str("module", "signal").Str("id", string(s.id)).Msg("bad json")
		ctl.sendError(s.conn, "bad_json")
		return
	}
	typ := gjson.GetBytes(data, "type").String()
	if ctl.limiter != nil && !ctl.limiter.Allow(s.id) {
		log.Warn().Str("module", "signal").Str("id", string(s.id)).Str("type", typ).Msg("rate limited")
		ctl.sendError(s.conn, "rate_limited")
		return
	}

	switch typ {
	case core.TypeJoin:
		ctl.handleJoin(s, data)
	case core.TypeLeave:
		ctl.handleLeave(s)
	case core.TypeOffer, core.TypeAnswer, core.TypeCandidate:
		ctl.handleSetup(s, typ, data)
	case core.TypeInattentive:
		ctl.handleInattentive(s, data)
	case core.TypePing:
		ctl.handlePing(s.conn)
	default:
		log.Warn().Str("module", "signal").Str("type", typ).Msg("unknown signal")
		ctl.sendError(s.conn, "unknown_type")
	}
}

func (ctl *SignalWSController) send(c *WsSignalConn, env core.Envelope) {
	f, err := core.Encode(env)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("send marshal")
		return
	}
	_ = c.TrySend(f)
}

func (ctl *SignalWSController) sendError(c *WsSignalConn, reason string) {
	ctl.send(c, core.Envelope{Type: core.TypeError, Error: reason})
}
