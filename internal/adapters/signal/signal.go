package signal

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/dkeye/Attend/internal/app/orch"
	"github.com/dkeye/Attend/internal/core"
	"github.com/dkeye/Attend/internal/domain"
	"github.com/dkeye/Attend/internal/idgen"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// IdentityKey is the gin context key under which a verified display name is stored.
const IdentityKey = "display_name"

type Options struct {
	ReadLimit    int64
	PingPeriod   time.Duration
	SendQueue    int
	RateLimit    int
	RateInterval time.Duration
}

func (o Options) withDefaults() Options {
	if o.ReadLimit <= 0 {
		o.ReadLimit = 64 * 1024
	}
	if o.PingPeriod <= 0 {
		o.PingPeriod = 54 * time.Second
	}
	if o.SendQueue <= 0 {
		o.SendQueue = 64
	}
	return o
}

type SignalWSController struct {
	Orch *orch.Orchestrator

	opts    Options
	limiter *RateLimiter
}

func NewSignalWSController(o *orch.Orchestrator, opts Options) *SignalWSController {
	opts = opts.withDefaults()
	ctl := &SignalWSController{Orch: o, opts: opts}
	if opts.RateLimit > 0 && opts.RateInterval > 0 {
		ctl.limiter = NewRateLimiter(opts.RateLimit, opts.RateInterval)
	}
	return ctl
}

// WsSignalConn implements core.SignalConnection over a websocket.
// Frames queue in send and are written by a single writer goroutine,
// so delivery to one connection keeps its order.
type WsSignalConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func newWsSignalConn(ws *websocket.Conn, queue int) *WsSignalConn {
	return &WsSignalConn{conn: ws, send: make(chan core.Frame, queue)}
}

func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return core.ErrClosed
	}
	select {
	case c.send <- f:
	default:
		return core.ErrBackpressure
	}
	return nil
}

func (c *WsSignalConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

type wsSession struct {
	id core.ConnID
	// identity is set when the upgrade carried a verified token.
	identity domain.DisplayName
	conn     *WsSignalConn
	cancel   context.CancelFunc
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  16 * 1024,
	WriteBufferSize: 16 * 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	sess := &wsSession{
		id:       idgen.NewConnID(),
		identity: domain.DisplayName(c.GetString(IdentityKey)),
		conn:     newWsSignalConn(ws, ctl.opts.SendQueue),
		cancel:   cancel,
	}
	log.Info().
		Str("module", "signal").
		Str("id", string(sess.id)).
		Str("client", c.GetString("client_token")).
		Str("remote", ws.RemoteAddr().String()).
		Msg("new WS connection")

	go ctl.writePump(ctx, sess.conn)
	go ctl.readPump(ctx, sess)
}
