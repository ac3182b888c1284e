package signal

import (
	"encoding/json"
	"errors"

	"github.com/dkeye/Attend/internal/app"
	"github.com/dkeye/Attend/internal/core"
	"github.com/dkeye/Attend/internal/domain"
	"github.com/dkeye/Attend/internal/idgen"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) handleJoin(s *wsSession, data []byte) {
	type joinPayload struct {
		Room   string `json:"room"`
		Name   string `json:"name"`
		IsHost bool   `json:"is_host"`
	}
	var p joinPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad join payload")
		ctl.sendError(s.conn, "bad_payload")
		return
	}

	rawName := p.Name
	if s.identity != "" {
		rawName = string(s.identity)
	}
	name, err := domain.NewDisplayName(rawName)
	if err != nil {
		ctl.sendError(s.conn, err.Error())
		return
	}

	// A host may open a room without picking a code.
	if p.Room == "" && p.IsHost {
		generated, err := idgen.NewRoomID()
		if err != nil {
			log.Error().Err(err).Str("module", "signal").Msg("room code")
			ctl.sendError(s.conn, "internal")
			return
		}
		p.Room = string(generated)
	}
	room, err := domain.NewRoomID(p.Room)
	if err != nil {
		ctl.sendError(s.conn, err.Error())
		return
	}

	role := domain.RoleOf(p.IsHost)
	log.Info().Str("module", "signal").Str("id", string(s.id)).Str("room", string(room)).Str("role", string(role)).Msg("join")
	if err := ctl.Orch.Join(s.id, s.conn, s.cancel, room, name, role); err != nil {
		if errors.Is(err, app.ErrHostTaken) {
			ctl.sendError(s.conn, "host_taken")
			return
		}
		log.Error().Err(err).Str("module", "signal").Msg("join")
		ctl.sendError(s.conn, "internal")
	}
}

// handleLeave leaves the current room; the socket stays open.
func (ctl *SignalWSController) handleLeave(s *wsSession) {
	ctl.Orch.Leave(s.id)
	ctl.send(s.conn, core.Envelope{Type: core.TypeLeft})
}
