// Package ws upgrades client connections and pumps frames between the
// socket and the relay.
package ws

import (
	"context"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/danielavelez12/crosstalk/internal/app"
	"github.com/danielavelez12/crosstalk/internal/core"
	"github.com/danielavelez12/crosstalk/internal/domain"
)

type Controller struct {
	Relay     *app.Relay
	ReadLimit int64
}

func NewController(relay *app.Relay, readLimit int64) *Controller {
	return &Controller{Relay: relay, ReadLimit: readLimit}
}

// wsConn is the SignalConnection over one websocket. Writes go through
// a buffered send channel drained by the write pump.
type wsConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *wsConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return core.ErrChannelClosed
	}
	select {
	case c.send <- f:
	default:
		return core.ErrBackpressure
	}
	return nil
}

func (c *wsConn) Close() {
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

// HandleWS upgrades the connection and registers the user with the
// relay. The user id comes from the query, falling back to the client
// token cookie.
func (ctl *Controller) HandleWS(ctx context.Context, c *gin.Context) {
	id := domain.UserID(c.Query("user_id"))
	if id == "" {
		id = domain.UserID(c.GetString("client_token"))
	}
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing user_id"})
		return
	}
	log.Info().Str("module", "adapters.ws").Str("user", string(id)).Msg("new WS connection")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.ws").Msg("ws upgrade")
		return
	}
	if ctl.ReadLimit > 0 {
		ws.SetReadLimit(ctl.ReadLimit)
	}

	conn := &wsConn{
		conn: ws,
		send: make(chan core.Frame, 64),
	}

	ctx, cancel := context.WithCancel(ctx)
	ctl.Relay.Connect(ctx, id, conn)

	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, cancel, id, conn)
}
