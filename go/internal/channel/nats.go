package channel

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
	"github.com/sasha-s/go-deadlock"
	"github.com/yash0238/quizmaster/go/internal/events"
	"github.com/yash0238/quizmaster/go/internal/models"
)

// NATSConfig holds configuration for the NATS channel
type NATSConfig struct {
	URL           string
	SubjectPrefix string // e.g. "quiz"
	Name          string
	MaxReconnects int
	ReconnectWait time.Duration
	Buffer        int
}

// DefaultNATSConfig returns default NATS configuration
func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		URL:           nats.DefaultURL,
		SubjectPrefix: "quiz",
		Name:          "quizconsole",
		MaxReconnects: -1, // Infinite
		ReconnectWait: 2 * time.Second,
		Buffer:        256,
	}
}

// Subjects are the NATS subjects one console listens and publishes on.
//
//	<prefix>.game.<gameId>.room.<event>            pushed to every console
//	<prefix>.game.<gameId>.team.<teamCode>.<event> pushed to one team
//	<prefix>.game.<gameId>.client.<event>          requests from consoles
type Subjects struct {
	Room   string
	Team   string // empty for host consoles
	client string
}

// Emit returns the subject a request event is published on
func (s Subjects) Emit(event events.Type) string {
	return s.client + "." + string(event)
}

// BuildSubjects derives the subjects for scope
func BuildSubjects(prefix string, scope Scope) (Subjects, error) {
	if err := validateToken("subject prefix", prefix, true); err != nil {
		return Subjects{}, err
	}
	if err := validateToken("game id", scope.GameID.String(), false); err != nil {
		return Subjects{}, err
	}

	game := fmt.Sprintf("%s.game.%s", prefix, scope.GameID)
	s := Subjects{
		Room:   game + ".room.*",
		client: game + ".client",
	}
	if scope.Role == models.RoleTeam {
		if err := validateToken("team code", scope.TeamCode, false); err != nil {
			return Subjects{}, err
		}
		s.Team = fmt.Sprintf("%s.team.%s.*", game, scope.TeamCode)
	}
	return s, nil
}

// validateToken rejects values that would change the subject's shape
func validateToken(name, value string, dotted bool) error {
	if value == "" {
		return fmt.Errorf("%s is required", name)
	}
	if strings.ContainsAny(value, "*> \t\r\n") {
		return fmt.Errorf("%s %q contains a reserved character", name, value)
	}
	if !dotted && strings.Contains(value, ".") {
		return fmt.Errorf("%s %q must be a single subject token", name, value)
	}
	if dotted && (strings.HasPrefix(value, ".") || strings.HasSuffix(value, ".") || strings.Contains(value, "..")) {
		return fmt.Errorf("%s %q has an empty subject token", name, value)
	}
	return nil
}

// NATS is a Channel over core NATS subjects
type NATS struct {
	config   NATSConfig
	subjects Subjects

	mu deadlock.Mutex
	nc *nats.Conn
}

// NewNATS creates a NATS channel for scope. Nothing connects until Run.
func NewNATS(config NATSConfig, scope Scope) (*NATS, error) {
	defaults := DefaultNATSConfig()
	if config.URL == "" {
		config.URL = defaults.URL
	}
	if config.SubjectPrefix == "" {
		config.SubjectPrefix = defaults.SubjectPrefix
	}
	if config.Name == "" {
		config.Name = defaults.Name
	}
	if config.ReconnectWait <= 0 {
		config.ReconnectWait = defaults.ReconnectWait
	}
	if config.Buffer <= 0 {
		config.Buffer = defaults.Buffer
	}

	subjects, err := BuildSubjects(config.SubjectPrefix, scope)
	if err != nil {
		return nil, fmt.Errorf("build subjects: %w", err)
	}
	return &NATS{config: config, subjects: subjects}, nil
}

// Subjects returns the subjects this channel uses
func (n *NATS) Subjects() Subjects {
	return n.subjects
}

// Run connects, subscribes and delivers events until ctx is cancelled.
// Reconnects are handled by the NATS client and surface as connect and
// disconnect events.
func (n *NATS) Run(ctx context.Context, deliver Deliver) error {
	opts := []nats.Option{
		nats.Name(n.config.Name),
		nats.MaxReconnects(n.config.MaxReconnects),
		nats.ReconnectWait(n.config.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
			deliver(lifecycle(events.TypeDisconnect))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
			deliver(lifecycle(events.TypeConnect))
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(n.config.URL, opts...)
	if err != nil {
		return fmt.Errorf("connect to NATS: %w", err)
	}
	defer nc.Close()

	msgs := make(chan *nats.Msg, n.config.Buffer)
	for _, subject := range []string{n.subjects.Room, n.subjects.Team} {
		if subject == "" {
			continue
		}
		if _, err := nc.ChanSubscribe(subject, msgs); err != nil {
			return fmt.Errorf("subscribe %s: %w", subject, err)
		}
	}

	n.mu.Lock()
	n.nc = nc
	n.mu.Unlock()
	defer func() {
		n.mu.Lock()
		n.nc = nil
		n.mu.Unlock()
	}()

	log.Info().
		Str("url", nc.ConnectedUrl()).
		Str("room_subject", n.subjects.Room).
		Str("team_subject", n.subjects.Team).
		Msg("NATS channel started")
	deliver(lifecycle(events.TypeConnect))

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("NATS channel shutting down")
			if err := nc.Drain(); err != nil {
				log.Error().Err(err).Msg("failed to drain NATS connection")
			}
			return nil
		case msg := <-msgs:
			env, err := decodeMsg(msg.Subject, msg.Data)
			if err != nil {
				log.Warn().
					Err(err).
					Str("subject", msg.Subject).
					Msg("dropping undecodable message")
				continue
			}
			deliver(env)
		}
	}
}

// decodeMsg reads an envelope, taking the event name from the last subject
// token when the envelope does not carry one
func decodeMsg(subject string, data []byte) (events.Envelope, error) {
	var env events.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return events.Envelope{}, fmt.Errorf("unmarshal event envelope: %w", err)
	}
	if env.Event == "" {
		i := strings.LastIndexByte(subject, '.')
		env.Event = events.Type(subject[i+1:])
	}
	if env.Event == "" {
		return events.Envelope{}, fmt.Errorf("no event name in %s", subject)
	}
	return env, nil
}

// Emit publishes a request on the client subject for its event
func (n *NATS) Emit(event events.Type, payload any) error {
	env, err := events.NewEnvelope(event, payload)
	if err != nil {
		return err
	}
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal %s envelope: %w", event, err)
	}

	n.mu.Lock()
	nc := n.nc
	n.mu.Unlock()
	if nc == nil {
		return ErrNotConnected
	}

	subject := n.subjects.Emit(event)
	if err := nc.Publish(subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}
