// Package signal adapts the chat engine to gorilla/websocket: it upgrades
// connections, pumps frames, and delivers the engine's outbound envelopes.
package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/parleyhq/parley/internal/app"
	"github.com/parleyhq/parley/internal/domain"
)

var ErrBackpressure = errors.New("backpressure")

// ChatWSController owns the live connection table. Envelope addressing is
// resolved against it: ToAll walks the whole table, ToConns indexes it.
type ChatWSController struct {
	Engine     *app.Engine
	ReadLimit  int64
	PingPeriod time.Duration

	mu    sync.RWMutex
	conns map[domain.ConnToken]*WsChatConn
}

func NewChatWSController(engine *app.Engine, readLimit int64, pingPeriod time.Duration) *ChatWSController {
	if pingPeriod <= 0 {
		pingPeriod = 54 * time.Second
	}
	return &ChatWSController{
		Engine:     engine,
		ReadLimit:  readLimit,
		PingPeriod: pingPeriod,
		conns:      make(map[domain.ConnToken]*WsChatConn),
	}
}

type WsChatConn struct {
	conn *websocket.Conn
	send chan []byte

	mu     sync.RWMutex
	closed bool
}

func (c *WsChatConn) TrySend(b []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- b:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *WsChatConn) Close() {
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

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleChat upgrades the request and starts the pumps. No User exists until
// the client sends user:join.
func (ctl *ChatWSController) HandleChat(ctx context.Context, c *gin.Context) {
	token := domain.ConnToken(c.GetString("client_token"))
	log.Info().Str("module", "signal").Str("token", string(token)).Msg("new WS connection")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Msg("ws upgrade")
		return
	}
	if ctl.ReadLimit > 0 {
		ws.SetReadLimit(ctl.ReadLimit)
	}

	conn := &WsChatConn{
		conn: ws,
		send: make(chan []byte, 32),
	}

	ctl.mu.Lock()
	ctl.conns[token] = conn
	ctl.mu.Unlock()

	ctl.Engine.OnConnect(token)

	ctx, cancel := context.WithCancel(ctx)
	go func() {
		defer cancel()
		ctl.writePump(ctx, conn)
	}()
	go ctl.readPump(ctx, token, conn)
}

// dropConn removes the connection from the table and runs the disconnect
// transition, fanning out its envelopes to the survivors.
func (ctl *ChatWSController) dropConn(token domain.ConnToken, c *WsChatConn) {
	ctl.mu.Lock()
	if ctl.conns[token] == c {
		delete(ctl.conns, token)
	}
	ctl.mu.Unlock()
	c.Close()

	ctl.Deliver(ctl.Engine.OnDisconnect(token))
}
