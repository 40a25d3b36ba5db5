// Package ws serves the real-time chat socket and bridges it to the presence directory.
package ws

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"rvsync/backend/internal/models"
	"rvsync/backend/internal/presence"
	"rvsync/backend/internal/service"
	apperrors "rvsync/backend/pkg/errors"
	"rvsync/backend/pkg/logger"
	"rvsync/backend/pkg/middleware"
	events "rvsync/backend/pkg/ws"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/samber/lo"
)

// InboundHandler stores and fans out frames received from a socket
type InboundHandler interface {
	HandleInbound(ctx context.Context, senderID, recipientID uint, frame []byte) (*models.MessageResponse, error)
}

// UserResolver checks that the conversation partner exists
type UserResolver interface {
	GetUser(ctx context.Context, id uint) (*models.User, error)
}

// Options tunes socket timing and buffering
type Options struct {
	SendBuffer     int
	WriteWait      time.Duration
	PongWait       time.Duration
	MaxMessageSize int64
	AllowedOrigins []string
}

func (o Options) withDefaults() Options {
	if o.SendBuffer <= 0 {
		o.SendBuffer = 256
	}
	if o.WriteWait <= 0 {
		o.WriteWait = 10 * time.Second
	}
	if o.PongWait <= 0 {
		o.PongWait = 60 * time.Second
	}
	if o.MaxMessageSize <= 0 {
		o.MaxMessageSize = 64 << 10
	}
	return o
}

// pingPeriod must be less than pongWait
func (o Options) pingPeriod() time.Duration {
	return (o.PongWait * 9) / 10
}

// Handler upgrades chat requests and runs one Client per connection
type Handler struct {
	directory *presence.Directory
	chat      InboundHandler
	users     UserResolver
	upgrader  websocket.Upgrader
	opts      Options
	log       *logger.Logger
}

func NewHandler(directory *presence.Directory, chat InboundHandler, users UserResolver, log *logger.Logger, opts Options) *Handler {
	opts = opts.withDefaults()
	return &Handler{
		directory: directory,
		chat:      chat,
		users:     users,
		upgrader: websocket.Upgrader{
			CheckOrigin:      originChecker(opts.AllowedOrigins),
			HandshakeTimeout: 10 * time.Second,
			ReadBufferSize:   1024,
			WriteBufferSize:  1024,
		},
		opts: opts,
		log:  log.WithComponent("ws"),
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 || lo.Contains(allowed, "*") {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || lo.Contains(allowed, origin)
	}
}

// ServeChat handles GET /messages/ws/chat/:from_id/:to_id. The caller must be
// authenticated as from_id. The handler blocks until the socket closes.
func (h *Handler) ServeChat(c *gin.Context) {
	fromID, err := middleware.ParamID(c, "from_id")
	if err != nil {
		c.Error(err)
		return
	}
	toID, err := middleware.ParamID(c, "to_id")
	if err != nil {
		c.Error(err)
		return
	}
	if fromID != middleware.CurrentUserID(c) {
		c.Error(apperrors.NewForbiddenError(apperrors.CodeForbidden, "Token does not match from_id"))
		return
	}

	ctx := c.Request.Context()
	if _, err := h.users.GetUser(ctx, toID); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.Error(apperrors.NewNotFoundError(apperrors.CodeUserNotFound, "Recipient not found"))
			return
		}
		c.Error(err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// the upgrader has already written the HTTP error
		h.log.Warn("websocket upgrade failed", "user_id", fromID, "error", err.Error())
		return
	}

	client := newClient(fromID, toID, conn, h.opts.SendBuffer)
	log := logger.FromContext(ctx, h.log).WithUserID(fromID)

	h.directory.Register(fromID, client)
	h.directory.Broadcast(events.NewPresenceEvent(fromID, true))
	log.Info("chat socket connected", "peer_id", toID, "online", h.directory.Count())

	go client.writePump(h.opts, log)
	h.readPump(ctx, client, log)
}

func (h *Handler) readPump(ctx context.Context, c *Client, log *logger.Logger) {
	defer func() {
		if h.directory.UnregisterChannel(c.userID, c) {
			h.directory.Broadcast(events.NewPresenceEvent(c.userID, false))
		}
		_ = c.Close()
		_ = c.conn.Close()
		log.Info("chat socket disconnected", "peer_id", c.peerID)
	}()

	c.conn.SetReadLimit(h.opts.MaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(h.opts.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(h.opts.PongWait))
	})

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Warn("websocket read failed", "error", err.Error())
			}
			return
		}

		if _, err := h.chat.HandleInbound(ctx, c.userID, c.peerID, frame); err != nil {
			h.reject(c, err, log)
		}
	}
}

// reject reports a failed frame to its sender only
func (h *Handler) reject(c *Client, err error, log *logger.Logger) {
	var msg string
	switch {
	case errors.Is(err, service.ErrInvalidPayload):
		msg = "Invalid message format"
	case errors.Is(err, service.ErrUserNotFound):
		msg = "Recipient not found"
	default:
		log.LogError(err, "failed to handle inbound frame", "peer_id", c.peerID)
		msg = "Failed to send message"
	}
	if sendErr := c.Send(events.NewErrorEvent(msg)); sendErr != nil {
		log.Debug("error event dropped", "error", sendErr.Error())
	}
}

// Client is one chat socket. It satisfies presence.Channel: Send only queues
// and never blocks, the write pump drains the queue onto the socket.
type Client struct {
	userID uint
	peerID uint
	conn   *websocket.Conn

	mu     sync.RWMutex
	send   chan []byte
	closed bool
}

func newClient(userID, peerID uint, conn *websocket.Conn, buffer int) *Client {
	return &Client{
		userID: userID,
		peerID: peerID,
		conn:   conn,
		send:   make(chan []byte, buffer),
	}
}

// Send queues an event for the write pump
func (c *Client) Send(event events.Event) error {
	data, err := events.Encode(event)
	if err != nil {
		return err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return presence.ErrChannelClosed
	}
	select {
	case c.send <- data:
		return nil
	default:
		return presence.ErrChannelFull
	}
}

// Close stops the write pump. It is safe to call more than once.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
	return nil
}

func (c *Client) writePump(opts Options, log *logger.Logger) {
	ticker := time.NewTicker(opts.pingPeriod())
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(opts.WriteWait))
			if !ok {
				// closed by the directory or by the read pump
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				log.Debug("websocket write failed", "error", err.Error())
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(opts.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
