// Package signal is the websocket transport adapter. It owns the socket
// lifecycle and guarantees Disconnect runs on every termination.
package signal

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/sgrey/chatline/internal/app/orch"
	"github.com/sgrey/chatline/internal/config"
	"github.com/sgrey/chatline/internal/core"
	"github.com/sgrey/chatline/internal/domain"
	"github.com/sgrey/chatline/internal/store"
)

type Controller struct {
	Orch    *orch.Orchestrator
	Store   *store.Store
	Limiter *EventRateLimiter

	readLimit  int64
	pingPeriod time.Duration
	sendBuffer int
}

func NewController(o *orch.Orchestrator, st *store.Store, cfg *config.Config) *Controller {
	return &Controller{
		Orch:       o,
		Store:      st,
		Limiter:    NewEventRateLimiter(10, time.Second),
		readLimit:  cfg.ReadLimit,
		pingPeriod: cfg.PingPeriod,
		sendBuffer: cfg.SendBuffer,
	}
}

// WsConn wraps a websocket with a bounded send queue. TrySend never blocks;
// a full queue or a closed socket is a delivery failure the dispatcher
// handles per subscriber.
type WsConn struct {
	conn *websocket.Conn
	send chan core.Payload

	mu     sync.RWMutex
	closed bool
}

func (c *WsConn) TrySend(p core.Payload) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return fmt.Errorf("%w: connection closed", core.ErrDeliveryFailed)
	}
	select {
	case c.send <- p:
	default:
		return fmt.Errorf("%w: send buffer full", core.ErrDeliveryFailed)
	}
	return nil
}

func (c *WsConn) Close() {
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

// HandleSocket upgrades the request and registers the connection. One user
// may hold several sockets (tabs); each gets its own connection id.
func (ctl *Controller) HandleSocket(ctx context.Context, c *gin.Context) {
	userID := c.GetInt64("user_id")
	account, err := ctl.Store.Users.ByID(userID)
	if err != nil {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}
	ws.SetReadLimit(ctl.readLimit)

	conn := &WsConn{
		conn: ws,
		send: make(chan core.Payload, ctl.sendBuffer),
	}

	cid := core.ConnID(uuid.NewString())
	user := &domain.User{ID: domain.UserID(account.ID), Username: account.Username, ProfilePicture: account.ProfilePicture}
	sess := core.NewSession(user, conn)

	ctx, cancel := context.WithCancel(ctx)
	if err := ctl.Orch.Connect(cid, sess, cancel); err != nil {
		log.Error().Err(err).Str("module", "signal").Str("conn", string(cid)).Msg("register failed")
		cancel()
		conn.Close()
		return
	}
	log.Info().Str("module", "signal").Str("conn", string(cid)).Int64("user", int64(account.ID)).Msg("new WS connection")

	// Cancellation must tear the transport down, not just stop the pumps:
	// closing the socket unblocks readPump's ReadMessage so its deferred
	// Disconnect runs even when the kick came from the server side.
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, cancel, cid, user, conn)
}
