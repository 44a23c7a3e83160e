// Package ws bridges the signal bus to WebSocket clients so dashboards can
// follow position lifecycle events live.
package ws

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/alanyoungcy/veledger/internal/domain"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024
	sendBufferSize = 64
)

// busChannels are the signal bus channels the hub fans out to clients.
var busChannels = []string{"positions"}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// CORS policy is enforced by the HTTP middleware chain.
		return true
	},
}

// client is one connected WebSocket peer.
type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub subscribes to the signal bus and broadcasts every event to all
// connected clients.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
	bus     domain.SignalBus
	logger  *slog.Logger
}

// NewHub creates a Hub over the given signal bus.
func NewHub(bus domain.SignalBus, logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*client]struct{}),
		bus:     bus,
		logger:  logger.With(slog.String("component", "ws_hub")),
	}
}

// Run subscribes to the bus channels and pumps events to clients until the
// context is cancelled.
func (h *Hub) Run(ctx context.Context) error {
	for _, channel := range busChannels {
		msgs, err := h.bus.Subscribe(ctx, channel)
		if err != nil {
			return err
		}
		go func(channel string, msgs <-chan []byte) {
			for msg := range msgs {
				h.broadcast(msg)
			}
			h.logger.Debug("ws_hub: bus subscription closed", slog.String("channel", channel))
		}(channel, msgs)
	}

	<-ctx.Done()
	h.closeAll()
	return ctx.Err()
}

// HandleWS upgrades an HTTP request to a WebSocket connection.
// GET /ws
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WarnContext(r.Context(), "ws_hub: upgrade failed",
			slog.String("error", err.Error()),
		)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBufferSize)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	go h.writePump(c)
	go h.readPump(c)
}

func (h *Hub) broadcast(msg []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			// Slow consumer; drop the frame rather than block the bus.
		}
	}
}

func (h *Hub) drop(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
	_ = c.conn.Close()
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		close(c.send)
		_ = c.conn.Close()
		delete(h.clients, c)
	}
}

// readPump discards client frames but keeps the connection's read deadline
// fresh via pongs.
func (h *Hub) readPump(c *client) {
	defer h.drop(c)

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump sends broadcast frames and periodic pings.
func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		h.drop(c)
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
