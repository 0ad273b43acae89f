// Package ws is the WebSocket transport adapter for the room relay.
package ws

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/shinesoon/relay/internal/config"
	"github.com/shinesoon/relay/internal/core"
	"github.com/shinesoon/relay/internal/domain"
)

var (
	ErrBackpressure = errors.New("backpressure")
	ErrConnClosed   = errors.New("connection closed")
)

type Controller struct {
	Registry *core.Registry
	Cfg      *config.Config
}

func NewController(reg *core.Registry, cfg *config.Config) *Controller {
	return &Controller{Registry: reg, Cfg: cfg}
}

// roomConn wraps one websocket with a buffered send queue. TrySend never
// blocks; a full queue drops the frame with ErrBackpressure.
type roomConn struct {
	id   domain.ConnID
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *roomConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrConnClosed
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *roomConn) Close() {
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

// HandleRoom upgrades the request and runs the connection until it drops.
// Each socket gets a fresh connection id: membership is per live transport
// session, and a reconnecting client must re-join explicitly. The client
// token cookie outlives sockets and is carried for log correlation only.
func (ctl *Controller) HandleRoom(ctx context.Context, c *gin.Context) {
	id := domain.ConnID(uuid.NewString())
	log.Info().Str("module", "ws").Str("conn", string(id)).Str("client", c.GetString("client_token")).Msg("new room connection")

	sock, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("upgrade")
		return
	}
	sock.SetReadLimit(ctl.Cfg.ReadLimit)

	conn := &roomConn{
		id:   id,
		conn: sock,
		send: make(chan core.Frame, ctl.Cfg.SendBuffer),
	}
	ctl.Registry.Bind(id, conn)

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, cancel, conn)
}
