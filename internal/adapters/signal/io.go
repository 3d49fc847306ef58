package signal

import (
	"context"
	"errors"
	"time"

	"github.com/dkeye/Chat/internal/core"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

func (c *WsSignalConn) writePump(ctx context.Context) {
	ticker := time.NewTicker(c.opts.PingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "signal").Str("sid", string(c.id)).Msg("writePump ctx done")
			c.writeClose()
			return
		case data, ok := <-c.send:
			if !ok {
				c.writeClose()
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Str("sid", string(c.id)).Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Warn().Err(err).Str("module", "signal").Str("sid", string(c.id)).Msg("writePump write error")
				return
			}
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Warn().Err(err).Str("module", "signal").Str("sid", string(c.id)).Msg("writePump ping error")
				return
			}
		}
	}
}

func (c *WsSignalConn) writeClose() {
	_ = c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteWait))
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	if err := c.conn.WriteMessage(websocket.CloseMessage, msg); err != nil &&
		!errors.Is(err, websocket.ErrCloseSent) {
		log.Debug().Err(err).Str("module", "signal").Str("sid", string(c.id)).Msg("close frame not sent")
	}
}

func (c *WsSignalConn) readPump() {
	defer func() {
		log.Debug().Str("module", "signal").Str("sid", string(c.id)).Msg("readPump closing")
		c.Close()
		_ = c.conn.Close()
		c.fireClose()
	}()

	c.conn.SetReadLimit(c.opts.ReadLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			logReadError(c.id, err)
			return
		}
		if c.onMessage != nil {
			c.onMessage(data)
		}
	}
}

func logReadError(sid core.SessionID, err error) {
	switch {
	case errors.Is(err, websocket.ErrReadLimit):
		log.Warn().Str("module", "signal").Str("sid", string(sid)).Msg("message exceeded read limit")
	case websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived):
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("readPump unexpected close")
	default:
		log.Debug().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("readPump read ended")
	}
}

func (ctl *SignalWSController) handleSignal(c *WsSignalConn, data []byte) {
	ev, err := core.DecodeEvent(data)
	if err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(c.id)).Msg("bad json")
		ctl.sendError(c, "bad_envelope")
		return
	}

	switch ev.Name {
	case core.EventMessage:
		ctl.handleMessage(c, ev)
	case core.EventPing:
		ctl.handlePing(c)
	default:
		log.Warn().Str("module", "signal").Str("sid", string(c.id)).Str("type", ev.Name).Msg("unknown signal")
	}
}

func (ctl *SignalWSController) sendJSON(c *WsSignalConn, event string, v any) {
	frame, err := core.EncodeEvent(event, v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	if err := c.TrySend(frame); err != nil {
		log.Debug().Err(err).Str("module", "signal").Str("sid", string(c.id)).Str("event", event).Msg("reply dropped")
	}
}
