package signal

import (
	"context"
	"sync"
	"time"

	"github.com/dkeye/Chat/internal/app"
	"github.com/dkeye/Chat/internal/config"
	"github.com/dkeye/Chat/internal/core"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Options tune a single websocket session.
type Options struct {
	ReadLimit      int64
	SendBuffer     int
	PingPeriod     time.Duration
	PongWait       time.Duration
	WriteWait      time.Duration
	AllowedOrigins []string
}

func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		ReadLimit:      cfg.ReadLimit,
		SendBuffer:     cfg.SendBuffer,
		PingPeriod:     cfg.PingPeriod,
		PongWait:       cfg.PongWait,
		WriteWait:      cfg.WriteWait,
		AllowedOrigins: cfg.AllowedOrigins,
	}
}

type SignalWSController struct {
	Orch     *app.Orchestrator
	opts     Options
	upgrader websocket.Upgrader
}

func NewSignalWSController(orch *app.Orchestrator, opts Options) *SignalWSController {
	return &SignalWSController{
		Orch: orch,
		opts: opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     newOriginChecker(opts.AllowedOrigins),
		},
	}
}

// WsSignalConn is one websocket client. It implements core.Session.
type WsSignalConn struct {
	id     core.SessionID
	client string
	conn   *websocket.Conn
	opts   Options
	life   core.Lifecycle

	mu   sync.RWMutex
	send chan core.Frame

	onMessage func([]byte)
	onClose   func()
	closeOnce sync.Once
}

func newWsSignalConn(id core.SessionID, client string, ws *websocket.Conn, opts Options) *WsSignalConn {
	return &WsSignalConn{
		id:     id,
		client: client,
		conn:   ws,
		opts:   opts,
		send:   make(chan core.Frame, opts.SendBuffer),
	}
}

func (c *WsSignalConn) ID() core.SessionID       { return c.id }
func (c *WsSignalConn) State() core.SessionState { return c.life.State() }

// OnMessage sets the ingestion callback. Must be called before Start.
func (c *WsSignalConn) OnMessage(fn func([]byte)) { c.onMessage = fn }

// OnClose sets the callback fired once when the connection goes away.
// Must be called before Start.
func (c *WsSignalConn) OnClose(fn func()) { c.onClose = fn }

func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.life.State() == core.StateClosed {
		return core.ErrSessionClosed
	}
	select {
	case c.send <- f:
		return nil
	default:
		return core.ErrBackpressure
	}
}

// Close stops accepting frames; the write pump then sends a close frame
// and releases the socket.
func (c *WsSignalConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.life.Close() {
		return
	}
	close(c.send)
}

// Start opens the session, runs onOpen and then launches the pumps.
// Frames queued by onOpen are written before anything else.
func (c *WsSignalConn) Start(ctx context.Context, onOpen func()) {
	if !c.life.Open() {
		_ = c.conn.Close()
		c.fireClose()
		return
	}
	if onOpen != nil {
		onOpen()
	}
	go c.writePump(ctx)
	go c.readPump()
}

func (c *WsSignalConn) fireClose() {
	c.closeOnce.Do(func() {
		if c.onClose != nil {
			c.onClose()
		}
	})
}

func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	ws, err := ctl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}

	sid := core.SessionID(uuid.NewString())
	client := c.GetString("client_token")
	conn := newWsSignalConn(sid, client, ws, ctl.opts)
	conn.OnMessage(func(data []byte) {
		ctl.handleSignal(conn, data)
	})
	conn.OnClose(func() {
		log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("client disconnected")
		ctl.Orch.OnDisconnect(sid)
	})

	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("client", client).
		Str("remote", c.Request.RemoteAddr).Msg("new WS connection")

	// connect goes out first; the session joins the hub only once open.
	conn.Start(ctx, func() {
		ctl.sendJSON(conn, core.EventConnect, struct {
			SID    core.SessionID `json:"sid"`
			Client string         `json:"client,omitempty"`
		}{SID: sid, Client: client})
		ctl.Orch.OnConnect(conn)
	})
}
