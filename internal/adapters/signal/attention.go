package signal

import (
	"encoding/json"

	"github.com/dkeye/Attend/internal/domain"
	"github.com/rs/zerolog/log"
)

// handleInattentive forwards a student's report to the room host.
// Missing room or name fall back to the sender's membership.
func (ctl *SignalWSController) handleInattentive(s *wsSession, data []byte) {
	var p struct {
		Room string `json:"room"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.sendError(s.conn, "bad_payload")
		return
	}
	room, name := domain.RoomID(p.Room), domain.DisplayName(p.Name)
	if m, ok := ctl.Orch.Registry.Lookup(s.id); ok {
		if room == "" {
			room = m.Room
		}
		if name == "" {
			name = m.Name
		}
	}
	if room == "" {
		log.Debug().Str("module", "signal").Str("id", string(s.id)).Msg("inattentive without room")
		return
	}
	ctl.Orch.ReportInattentive(room, name)
}
