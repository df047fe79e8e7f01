package channel

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/sasha-s/go-deadlock"
	"github.com/yash0238/quizmaster/go/internal/events"
)

// WebSocketConfig holds configuration for the websocket channel
type WebSocketConfig struct {
	URL              string
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
	ReadTimeout      time.Duration
	PingInterval     time.Duration
	ReconnectWait    time.Duration
	MaxMessageSize   int64
	SendBuffer       int
}

// DefaultWebSocketConfig returns default websocket configuration
func DefaultWebSocketConfig() WebSocketConfig {
	return WebSocketConfig{
		URL:              "ws://localhost:8080/ws",
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     10 * time.Second,
		ReadTimeout:      60 * time.Second,
		PingInterval:     30 * time.Second,
		ReconnectWait:    2 * time.Second,
		MaxMessageSize:   64 * 1024,
		SendBuffer:       64,
	}
}

// WebSocket is a Channel over a single gorilla websocket connection that
// redials after every drop
type WebSocket struct {
	config WebSocketConfig
	dialer *websocket.Dialer

	mu   deadlock.Mutex
	send chan []byte // nil while disconnected
}

// NewWebSocket creates a websocket channel. Nothing is dialled until Run.
func NewWebSocket(config WebSocketConfig) *WebSocket {
	defaults := DefaultWebSocketConfig()
	if config.HandshakeTimeout <= 0 {
		config.HandshakeTimeout = defaults.HandshakeTimeout
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = defaults.WriteTimeout
	}
	if config.ReadTimeout <= 0 {
		config.ReadTimeout = defaults.ReadTimeout
	}
	if config.PingInterval <= 0 {
		config.PingInterval = defaults.PingInterval
	}
	if config.ReconnectWait <= 0 {
		config.ReconnectWait = defaults.ReconnectWait
	}
	if config.MaxMessageSize <= 0 {
		config.MaxMessageSize = defaults.MaxMessageSize
	}
	if config.SendBuffer <= 0 {
		config.SendBuffer = defaults.SendBuffer
	}

	return &WebSocket{
		config: config,
		dialer: &websocket.Dialer{HandshakeTimeout: config.HandshakeTimeout},
	}
}

// Run dials the server and keeps the session alive until ctx is cancelled
func (w *WebSocket) Run(ctx context.Context, deliver Deliver) error {
	log.Info().Str("url", w.config.URL).Msg("websocket channel started")

	for {
		err := w.session(ctx, deliver)
		if ctx.Err() != nil {
			log.Info().Msg("websocket channel shutting down")
			return nil
		}

		log.Warn().
			Err(err).
			Str("url", w.config.URL).
			Dur("retry_in", w.config.ReconnectWait).
			Msg("websocket session ended")

		select {
		case <-ctx.Done():
			log.Info().Msg("websocket channel shutting down")
			return nil
		case <-time.After(w.config.ReconnectWait):
		}
	}
}

// session runs one connection from dial to drop
func (w *WebSocket) session(ctx context.Context, deliver Deliver) error {
	conn, _, err := w.dialer.DialContext(ctx, w.config.URL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", w.config.URL, err)
	}

	send := make(chan []byte, w.config.SendBuffer)
	done := make(chan struct{})
	w.setSend(send)

	log.Info().Str("url", w.config.URL).Msg("websocket connected")
	deliver(lifecycle(events.TypeConnect))

	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()
	go w.writePump(conn, send, done)

	err = w.readPump(conn, deliver)

	w.setSend(nil)
	close(done)
	conn.Close()
	deliver(lifecycle(events.TypeDisconnect))
	return err
}

// Emit queues a request frame for the current connection
func (w *WebSocket) Emit(event events.Type, payload any) error {
	env, err := events.NewEnvelope(event, payload)
	if err != nil {
		return err
	}
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal %s envelope: %w", event, err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.send == nil {
		return ErrNotConnected
	}
	select {
	case w.send <- data:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// connected reports whether a session is up
func (w *WebSocket) connected() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.send != nil
}

func (w *WebSocket) setSend(send chan []byte) {
	w.mu.Lock()
	w.send = send
	w.mu.Unlock()
}

// writePump handles sending frames and pings to the server
func (w *WebSocket) writePump(conn *websocket.Conn, send <-chan []byte, done <-chan struct{}) {
	ticker := time.NewTicker(w.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			conn.SetWriteDeadline(time.Now().Add(w.config.WriteTimeout))
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return

		case message := <-send:
			conn.SetWriteDeadline(time.Now().Add(w.config.WriteTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().Err(err).Msg("failed to write message to websocket")
				conn.Close()
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(w.config.WriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Error().Err(err).Msg("failed to send ping")
				conn.Close()
				return
			}
		}
	}
}

// readPump delivers inbound frames until the connection fails
func (w *WebSocket) readPump(conn *websocket.Conn, deliver Deliver) error {
	conn.SetReadLimit(w.config.MaxMessageSize)
	conn.SetReadDeadline(time.Now().Add(w.config.ReadTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(w.config.ReadTimeout))
		return nil
	})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				return fmt.Errorf("read: %w", err)
			}
			return nil
		}
		conn.SetReadDeadline(time.Now().Add(w.config.ReadTimeout))

		var env events.Envelope
		if err := json.Unmarshal(message, &env); err != nil {
			log.Warn().Err(err).Msg("dropping undecodable frame")
			continue
		}
		if env.Event == "" {
			log.Warn().Msg("dropping frame without event name")
			continue
		}
		deliver(env)
	}
}
