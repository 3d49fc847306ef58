package signal

import (
	"github.com/dkeye/Chat/internal/core"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) handleMessage(c *WsSignalConn, ev core.Event) {
	if _, err := ctl.Orch.OnMessage(c.id, ev.Data); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(c.id)).Msg("message dropped")
		ctl.sendError(c, "bad_payload")
	}
}

func (ctl *SignalWSController) handlePing(c *WsSignalConn) {
	ctl.sendJSON(c, core.EventPong, nil)
}

func (ctl *SignalWSController) sendError(c *WsSignalConn, reason string) {
	ctl.sendJSON(c, core.EventError, map[string]string{"error": reason})
}
