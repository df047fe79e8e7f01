// Package config loads console settings from a YAML file and QUIZ_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/yash0238/quizmaster/go/internal/models"
	"gopkg.in/yaml.v3"
)

// ChannelKind selects the event channel transport
type ChannelKind string

const (
	ChannelWebSocket ChannelKind = "websocket"
	ChannelNATS      ChannelKind = "nats"
)

// Config holds everything a console session needs
type Config struct {
	Console ConsoleConfig `yaml:"console"`
	Timing  TimingConfig  `yaml:"timing"`
	Channel ChannelConfig `yaml:"channel"`
	View    ViewConfig    `yaml:"view"`
	Log     LogConfig     `yaml:"log"`
}

// ConsoleConfig identifies the console within a game
type ConsoleConfig struct {
	GameID   models.ID   `yaml:"game_id"`
	Role     models.Role `yaml:"role"`
	TeamCode string      `yaml:"team_code"`
	TeamID   models.ID   `yaml:"team_id"`
}

// TimingConfig holds the engine's timer durations
type TimingConfig struct {
	Tick            time.Duration `yaml:"tick"`
	LifelineTimeout time.Duration `yaml:"lifeline_timeout"`
	BuzzDebounce    time.Duration `yaml:"buzz_debounce"`
}

// ChannelConfig selects and configures the event channel
type ChannelConfig struct {
	Kind          ChannelKind     `yaml:"kind"`
	ReconnectWait time.Duration   `yaml:"reconnect_wait"`
	WebSocket     WebSocketConfig `yaml:"websocket"`
	NATS          NATSConfig      `yaml:"nats"`
}

// WebSocketConfig holds websocket channel settings
type WebSocketConfig struct {
	URL          string        `yaml:"url"`
	PingInterval time.Duration `yaml:"ping_interval"`
}

// NATSConfig holds NATS channel settings
type NATSConfig struct {
	URL           string `yaml:"url"`
	SubjectPrefix string `yaml:"subject_prefix"`
}

// ViewConfig configures the local view hub
type ViewConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	Render  string `yaml:"render"` // "text" or "none"
}

// LogConfig configures logging
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		Console: ConsoleConfig{Role: models.RoleTeam},
		Timing: TimingConfig{
			Tick:            100 * time.Millisecond,
			LifelineTimeout: 4 * time.Second,
			BuzzDebounce:    time.Second,
		},
		Channel: ChannelConfig{
			Kind:          ChannelWebSocket,
			ReconnectWait: 2 * time.Second,
			WebSocket: WebSocketConfig{
				URL:          "ws://localhost:8080/ws",
				PingInterval: 30 * time.Second,
			},
			NATS: NATSConfig{
				URL:           "nats://localhost:4222",
				SubjectPrefix: "quiz",
			},
		},
		View: ViewConfig{
			Enabled: true,
			Addr:    ":8090",
			Render:  "none",
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads the YAML file at path over the defaults and then applies
// environment overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() error {
	c.Console.GameID = models.ID(getEnv("QUIZ_GAME_ID", c.Console.GameID.String()))
	c.Console.TeamCode = getEnv("QUIZ_TEAM_CODE", c.Console.TeamCode)
	c.Console.TeamID = models.ID(getEnv("QUIZ_TEAM_ID", c.Console.TeamID.String()))
	c.Channel.Kind = ChannelKind(getEnv("QUIZ_CHANNEL", string(c.Channel.Kind)))
	c.Channel.WebSocket.URL = getEnv("QUIZ_WS_URL", c.Channel.WebSocket.URL)
	c.Channel.NATS.URL = getEnv("QUIZ_NATS_URL", c.Channel.NATS.URL)
	c.View.Addr = getEnv("QUIZ_VIEW_ADDR", c.View.Addr)
	c.Log.Level = getEnv("QUIZ_LOG_LEVEL", c.Log.Level)

	if v := os.Getenv("QUIZ_ROLE"); v != "" {
		role, err := models.ParseRole(v)
		if err != nil {
			return fmt.Errorf("QUIZ_ROLE: %w", err)
		}
		c.Console.Role = role
	}

	var err error
	if c.Timing.LifelineTimeout, err = getEnvAsDuration("QUIZ_LIFELINE_TIMEOUT", c.Timing.LifelineTimeout); err != nil {
		return err
	}
	if c.Timing.BuzzDebounce, err = getEnvAsDuration("QUIZ_BUZZ_DEBOUNCE", c.Timing.BuzzDebounce); err != nil {
		return err
	}
	if c.View.Enabled, err = getEnvAsBool("QUIZ_VIEW_ENABLED", c.View.Enabled); err != nil {
		return err
	}
	return nil
}

// Validate reports every problem with the configuration at once
func (c *Config) Validate() error {
	var errs []error

	if c.Console.GameID.IsZero() {
		errs = append(errs, errors.New("console.game_id is required"))
	}
	switch c.Console.Role {
	case models.RoleHost:
	case models.RoleTeam:
		if strings.TrimSpace(c.Console.TeamCode) == "" {
			errs = append(errs, errors.New("console.team_code is required for team consoles"))
		}
	default:
		errs = append(errs, fmt.Errorf("console.role %q must be host or team", c.Console.Role))
	}

	switch c.Channel.Kind {
	case ChannelWebSocket:
		if c.Channel.WebSocket.URL == "" {
			errs = append(errs, errors.New("channel.websocket.url is required"))
		}
	case ChannelNATS:
		if c.Channel.NATS.URL == "" {
			errs = append(errs, errors.New("channel.nats.url is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("channel.kind %q must be websocket or nats", c.Channel.Kind))
	}

	durations := []struct {
		name string
		d    time.Duration
	}{
		{"timing.tick", c.Timing.Tick},
		{"timing.lifeline_timeout", c.Timing.LifelineTimeout},
		{"timing.buzz_debounce", c.Timing.BuzzDebounce},
		{"channel.reconnect_wait", c.Channel.ReconnectWait},
	}
	for _, d := range durations {
		if d.d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", d.name, d.d))
		}
	}

	if c.View.Enabled && c.View.Addr == "" {
		errs = append(errs, errors.New("view.addr is required when the view hub is enabled"))
	}
	switch c.View.Render {
	case "", "none", "text":
	default:
		errs = append(errs, fmt.Errorf("view.render %q must be text or none", c.View.Render))
	}
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}

	return errors.Join(errs...)
}

// LogLevel returns the configured zerolog level, defaulting to info
func (c *Config) LogLevel() zerolog.Level {
	level, err := zerolog.ParseLevel(c.Log.Level)
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		if ms, convErr := strconv.Atoi(value); convErr == nil {
			return time.Duration(ms) * time.Millisecond, nil
		}
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func getEnvAsBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}
