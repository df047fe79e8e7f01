package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/yash0238/quizmaster/go/internal/config"
	"github.com/yash0238/quizmaster/go/internal/models"
)

var CLI struct {
	Config   string `help:"Path to a YAML configuration file." short:"c" type:"path"`
	GameID   string `help:"Game to join." name:"game-id"`
	Role     string `help:"Console role (host or team)."`
	TeamCode string `help:"Team code for team consoles." name:"team-code"`
	Debug    bool   `help:"Whether to enable debug logging."`
	Render   string `help:"Local renderer (text or none)."`
}

func writeError(err error) {
	fmt.Fprintf(os.Stderr, "%s\n", err)
	os.Exit(1)
}

func main() {
	kong.Parse(&CLI,
		kong.Name("quizconsole"),
		kong.Description("host and team console for the quiz game"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
			Summary: true,
		}))

	// Load .env file if it exists
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	cfg, err := loadConfig()
	if err != nil {
		writeError(err)
	}

	// Setup logging
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().
		Str("session_id", uuid.New().String()).
		Logger()
	zerolog.SetGlobalLevel(cfg.LogLevel())
	if CLI.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		log.Warn().Msg("debug logging enabled")
	}

	if err := run(cfg); err != nil {
		log.Fatal().Err(err).Msg("console failed")
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return nil, err
	}

	// Flags win over the file and the environment
	if CLI.GameID != "" {
		cfg.Console.GameID = models.ID(CLI.GameID)
	}
	if CLI.Role != "" {
		role, err := models.ParseRole(CLI.Role)
		if err != nil {
			return nil, err
		}
		cfg.Console.Role = role
	}
	if CLI.TeamCode != "" {
		cfg.Console.TeamCode = CLI.TeamCode
	}
	if CLI.Render != "" {
		cfg.View.Render = CLI.Render
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration:\n%w", err)
	}
	return cfg, nil
}

func run(cfg *config.Config) error {
	services, err := setupServices(cfg)
	if err != nil {
		return err
	}

	log.Info().
		Str("game_id", cfg.Console.GameID.String()).
		Str("role", string(cfg.Console.Role)).
		Str("team_code", cfg.Console.TeamCode).
		Str("channel", string(cfg.Channel.Kind)).
		Msg("starting quiz console")

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go services.Loop.Run(ctx)
	services.Loop.Post(func() { services.Engine.Render() })

	channelErr := make(chan error, 1)
	go func() {
		channelErr <- services.Channel.Run(ctx, services.deliver)
	}()

	if services.Hub != nil {
		go services.Hub.Start(ctx)
		go func() {
			log.Info().Str("addr", services.Server.Addr).Msg("view hub listening")
			if err := services.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error().Err(err).Msg("view hub server failed")
				cancel()
			}
		}()
	}

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-sigChan:
		log.Info().Str("signal", sig.String()).Msg("received shutdown signal")
	case runErr = <-channelErr:
		if runErr != nil {
			runErr = fmt.Errorf("event channel: %w", runErr)
		}
	case <-ctx.Done():
	}

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if services.Server != nil {
		if err := services.Server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("view hub shutdown failed")
		}
	}
	cancel()

	log.Info().Msg("quiz console shutdown complete")
	return runErr
}
