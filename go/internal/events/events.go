package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/yash0238/quizmaster/go/internal/models"
)

// Envelope is the frame carried by the event channel
type Envelope struct {
	ID        string          `json:"id,omitempty"` // Event UUID, set on frames the console emits
	Event     Type            `json:"event"`        // Event name
	Timestamp time.Time       `json:"timestamp"`    // Creation time at the sender
	Data      json.RawMessage `json:"data,omitempty"`
}

// Type names an event on the channel
type Type string

const (
	// Synthesised by the channel adapters on connection changes
	TypeConnect    Type = "connect"
	TypeDisconnect Type = "disconnect"

	// Pushed by the game server
	TypeJoined      Type = "joined"
	TypeStateUpdate Type = "state_update"
	TypeBuzzLock    Type = "buzz_lock"
	TypeMaskApplied Type = "mask_applied"
	TypeError       Type = "error"
	TypeToast       Type = "toast"

	// Emitted by the console
	TypeJoin         Type = "join"
	TypeStateRequest Type = "state_request"
	TypeBuzz         Type = "buzz"
	TypeFiftyRequest Type = "fifty_request"
)

// ErrUnknownEvent is returned for event names the console does not consume
var ErrUnknownEvent = errors.New("unknown event")

// NewEnvelope wraps a payload in a fresh envelope
func NewEnvelope(event Type, payload any) (Envelope, error) {
	env := Envelope{
		ID:        uuid.New().String(),
		Event:     event,
		Timestamp: time.Now().UTC(),
	}
	if payload == nil {
		return env, nil
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s payload: %w", event, err)
	}
	env.Data = data
	return env, nil
}

// ParsePayload parses envelope data into the payload struct for its event.
// Connection events and "joined" carry nothing and return a nil payload.
func ParsePayload(env Envelope) (any, error) {
	switch env.Event {
	case TypeConnect, TypeDisconnect, TypeJoined:
		return nil, nil

	case TypeStateUpdate:
		var payload models.GameSnapshot
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	case TypeBuzzLock:
		var payload BuzzLockPayload
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	case TypeMaskApplied:
		var payload MaskAppliedPayload
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	case TypeError:
		var payload ErrorPayload
		if len(env.Data) == 0 {
			payload.Message = DefaultRejectionMessage
			return payload, nil
		}
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	case TypeToast:
		var payload ToastPayload
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Event)
	}
}
