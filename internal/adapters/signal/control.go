package signal

import "github.com/dkeye/Attend/internal/core"

func (ctl *SignalWSController) handlePing(conn *WsSignalConn) {
	ctl.send(conn, core.Envelope{Type: core.TypePong})
}
