// Package viewhub pushes console views to local browser render adapters over
// websockets and feeds their clicks back to the engine as actions.
package viewhub

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/sasha-s/go-deadlock"
	"github.com/yash0238/quizmaster/go/internal/console"
)

// Frame types pushed to render adapters
const (
	FrameView  = "view"
	FrameToast = "toast"
)

// Frame is one message pushed to a render adapter
type Frame struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Dispatch hands a decoded action to the engine. It is called from
// connection goroutines, so implementations post to the console loop.
type Dispatch func(a console.Action)

// Config holds configuration for render adapter connections
type Config struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	SendBuffer      int
	CheckOrigin     func(r *http.Request) bool
}

// DefaultConfig returns default render adapter configuration
func DefaultConfig() Config {
	return Config{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  1024, // actions are tiny
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		SendBuffer:      64,
		CheckOrigin: func(r *http.Request) bool {
			// The hub only listens locally
			return true
		},
	}
}

// Hub manages render adapter connections. It implements console.Subscriber.
type Hub struct {
	connections map[*Connection]bool
	latest      []byte // latest view, encoded
	mu          deadlock.RWMutex

	upgrader websocket.Upgrader
	config   Config
	dispatch Dispatch

	broadcastCh chan []byte
}

// Connection is one render adapter
type Connection struct {
	ID          string
	Conn        *websocket.Conn
	Send        chan []byte
	Hub         *Hub
	ConnectedAt time.Time
}

// New creates a hub that forwards actions to dispatch
func New(config Config, dispatch Dispatch) *Hub {
	if config.SendBuffer <= 0 {
		config.SendBuffer = DefaultConfig().SendBuffer
	}
	return &Hub{
		connections: make(map[*Connection]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config:      config,
		dispatch:    dispatch,
		broadcastCh: make(chan []byte, 256),
	}
}

// Start fans published frames out until ctx is cancelled
func (h *Hub) Start(ctx context.Context) {
	log.Info().Msg("view hub started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("view hub shutting down")
			h.closeAll()
			return
		case frame := <-h.broadcastCh:
			h.handleBroadcast(frame)
		}
	}
}

// Publish records v as the latest view and pushes it to every adapter
func (h *Hub) Publish(v console.View) {
	view, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal view")
		return
	}
	h.mu.Lock()
	h.latest = view
	h.mu.Unlock()

	h.broadcast(Frame{Type: FrameView, Data: json.RawMessage(view)})
}

// Notify pushes a notification to every adapter
func (h *Hub) Notify(n console.Notification) {
	h.broadcast(Frame{Type: FrameToast, Data: n})
}

// Latest returns the most recently published view, or nil
func (h *Hub) Latest() []byte {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.latest
}

func (h *Hub) broadcast(f Frame) {
	data, err := json.Marshal(f)
	if err != nil {
		log.Error().Err(err).Str("frame_type", f.Type).Msg("failed to marshal frame")
		return
	}
	select {
	case h.broadcastCh <- data:
	default:
		log.Warn().Str("frame_type", f.Type).Msg("broadcast channel full, dropping frame")
	}
}

// handleBroadcast sends while holding the read lock: unregister closes Send
// under the write lock, so no connection still in the map has a closed Send.
func (h *Hub) handleBroadcast(frame []byte) {
	var slow []*Connection

	h.mu.RLock()
	for conn := range h.connections {
		select {
		case conn.Send <- frame:
		default:
			slow = append(slow, conn)
		}
	}
	h.mu.RUnlock()

	for _, conn := range slow {
		// Connection is slow/dead, close it
		log.Warn().
			Str("connection_id", conn.ID).
			Msg("connection send buffer full, closing connection")
		h.unregister(conn)
		conn.Conn.Close()
	}
}

// Upgrade upgrades an HTTP request to a render adapter connection
func (h *Hub) Upgrade(w http.ResponseWriter, r *http.Request) error {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("failed to upgrade connection: %w", err)
	}

	conn := &Connection{
		ID:          uuid.New().String(),
		Conn:        ws,
		Send:        make(chan []byte, h.config.SendBuffer),
		Hub:         h,
		ConnectedAt: time.Now(),
	}

	// New adapters render immediately from the cached view
	if latest := h.Latest(); latest != nil {
		if frame, err := json.Marshal(Frame{Type: FrameView, Data: json.RawMessage(latest)}); err == nil {
			conn.Send <- frame
		}
	}
	h.register(conn)

	go conn.writePump()
	go conn.readPump()

	log.Info().
		Str("connection_id", conn.ID).
		Str("remote_addr", r.RemoteAddr).
		Msg("render adapter connected")
	return nil
}

func (h *Hub) register(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.connections[conn] = true
	log.Debug().
		Str("connection_id", conn.ID).
		Int("total_connections", len(h.connections)).
		Msg("connection registered")
}

func (h *Hub) unregister(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.connections[conn]; ok {
		delete(h.connections, conn)
		close(conn.Send)
		log.Info().Str("connection_id", conn.ID).Msg("connection unregistered")
	}
}

func (h *Hub) closeAll() {
	h.mu.RLock()
	conns := make([]*Connection, 0, len(h.connections))
	for conn := range h.connections {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		h.unregister(conn)
	}
}

// Stats returns statistics about active connections
func (h *Hub) Stats() map[string]any {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return map[string]any{
		"total_connections": len(h.connections),
		"has_view":          h.latest != nil,
	}
}

// writePump handles sending frames to the adapter
func (c *Connection) writePump() {
	ticker := time.NewTicker(c.Hub.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
		c.Hub.unregister(c)
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Hub.config.WriteTimeout))
			if !ok {
				// Channel was closed
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("failed to write message to WebSocket")
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Hub.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("failed to send ping")
				return
			}
		}
	}
}

// readPump decodes actions from the adapter
func (c *Connection) readPump() {
	defer func() {
		c.Hub.unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.Hub.config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.Hub.config.ReadTimeout))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.Hub.config.ReadTimeout))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("unexpected WebSocket close error")
			}
			break
		}

		c.handleClientMessage(message)
		c.Conn.SetReadDeadline(time.Now().Add(c.Hub.config.ReadTimeout))
	}
}

func (c *Connection) handleClientMessage(message []byte) {
	var action console.Action
	if err := json.Unmarshal(message, &action); err != nil || action.Action == "" {
		log.Warn().
			Str("connection_id", c.ID).
			RawJSON("message", message).
			Msg("dropping malformed action")
		return
	}

	log.Debug().
		Str("connection_id", c.ID).
		Str("action", string(action.Action)).
		Msg("received action")
	if c.Hub.dispatch != nil {
		c.Hub.dispatch(action)
	}
}
