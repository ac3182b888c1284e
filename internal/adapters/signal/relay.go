package signal

import (
	"encoding/json"

	"github.com/dkeye/Attend/internal/core"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) handleSetup(s *wsSession, typ string, data []byte) {
	kind, ok := core.ParseSetupKind(typ)
	if !ok {
		ctl.sendError(s.conn, "unknown_type")
		return
	}
	var p struct {
		To      string          `json:"to"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.To == "" {
		log.Warn().Err(err).Str("module", "signal").Str("id", string(s.id)).Str("type", typ).Msg("bad setup payload")
		ctl.sendError(s.conn, "bad_payload")
		return
	}
	ctl.Orch.Relay(kind, p.Payload, s.id, core.ConnID(p.To))
}
