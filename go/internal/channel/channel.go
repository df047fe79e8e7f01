// Package channel carries events between a console and the game server.
// Adapters synthesise connect and disconnect events when the underlying
// connection changes, so the engine never has to watch the transport.
package channel

import (
	"context"
	"errors"
	"time"

	"github.com/yash0238/quizmaster/go/internal/events"
	"github.com/yash0238/quizmaster/go/internal/models"
)

var (
	// ErrNotConnected is returned by Emit while no connection is up
	ErrNotConnected = errors.New("channel not connected")

	// ErrSendBufferFull is returned by Emit when outbound frames back up
	ErrSendBufferFull = errors.New("channel send buffer full")
)

// Deliver receives every inbound envelope. It is called from the adapter's
// goroutine and must hand the envelope off without blocking for long.
type Deliver func(events.Envelope)

// Channel is a bidirectional event channel to the game server
type Channel interface {
	// Run connects and delivers events until ctx is cancelled
	Run(ctx context.Context, deliver Deliver) error

	// Emit sends one request. Delivery is fire-and-forget.
	Emit(event events.Type, payload any) error
}

// Scope is the part of a console identity the transport routes on
type Scope struct {
	GameID   models.ID
	Role     models.Role
	TeamCode string
}

func lifecycle(event events.Type) events.Envelope {
	return events.Envelope{Event: event, Timestamp: time.Now().UTC()}
}
