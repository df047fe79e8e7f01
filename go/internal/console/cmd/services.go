package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"github.com/yash0238/quizmaster/go/internal/channel"
	"github.com/yash0238/quizmaster/go/internal/config"
	"github.com/yash0238/quizmaster/go/internal/console"
	"github.com/yash0238/quizmaster/go/internal/console/render"
	"github.com/yash0238/quizmaster/go/internal/console/viewhub"
	"github.com/yash0238/quizmaster/go/internal/events"
)

// Services holds everything one console session runs
type Services struct {
	Loop    *console.Loop
	Engine  *console.Engine
	Channel channel.Channel
	Hub     *viewhub.Hub
	Server  *http.Server
}

func setupServices(cfg *config.Config) (*Services, error) {
	ch, err := setupChannel(cfg)
	if err != nil {
		return nil, err
	}

	loop := console.NewLoop(0)
	sched := console.NewScheduler(clockwork.NewRealClock(), loop)
	engine := console.NewEngine(console.Config{
		Identity: console.Identity{
			GameID:   cfg.Console.GameID,
			Role:     cfg.Console.Role,
			TeamCode: cfg.Console.TeamCode,
			TeamID:   cfg.Console.TeamID,
		},
		Tick:            cfg.Timing.Tick,
		LifelineTimeout: cfg.Timing.LifelineTimeout,
		BuzzDebounce:    cfg.Timing.BuzzDebounce,
	}, sched, ch)

	engine.Subscribe(render.NewLog())
	if cfg.View.Render == "text" {
		engine.Subscribe(render.NewText(os.Stdout))
	}

	s := &Services{
		Loop:    loop,
		Engine:  engine,
		Channel: ch,
	}

	if cfg.View.Enabled {
		s.Hub = viewhub.New(viewhub.DefaultConfig(), s.dispatch)
		engine.Subscribe(s.Hub)
		s.Server = &http.Server{
			Addr:        cfg.View.Addr,
			Handler:     s.Hub.Handler(),
			ReadTimeout: 10 * time.Second,
			IdleTimeout: 120 * time.Second,
		}
	}
	return s, nil
}

func setupChannel(cfg *config.Config) (channel.Channel, error) {
	switch cfg.Channel.Kind {
	case config.ChannelNATS:
		natsCfg := channel.DefaultNATSConfig()
		natsCfg.URL = cfg.Channel.NATS.URL
		natsCfg.SubjectPrefix = cfg.Channel.NATS.SubjectPrefix
		natsCfg.ReconnectWait = cfg.Channel.ReconnectWait

		ch, err := channel.NewNATS(natsCfg, channel.Scope{
			GameID:   cfg.Console.GameID,
			Role:     cfg.Console.Role,
			TeamCode: cfg.Console.TeamCode,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create NATS channel: %w", err)
		}
		return ch, nil

	case config.ChannelWebSocket:
		wsCfg := channel.DefaultWebSocketConfig()
		wsCfg.URL = cfg.Channel.WebSocket.URL
		wsCfg.PingInterval = cfg.Channel.WebSocket.PingInterval
		wsCfg.ReconnectWait = cfg.Channel.ReconnectWait
		return channel.NewWebSocket(wsCfg), nil
	}
	return nil, fmt.Errorf("unknown channel kind %q", cfg.Channel.Kind)
}

// deliver moves an inbound event onto the loop
func (s *Services) deliver(env events.Envelope) {
	s.Loop.Post(func() { s.Engine.Receive(env) })
}

// dispatch moves a render adapter action onto the loop
func (s *Services) dispatch(a console.Action) {
	s.Loop.Post(func() {
		if err := s.Engine.Perform(a); err != nil {
			log.Debug().
				Err(err).
				Str("action", string(a.Action)).
				Msg("action refused")
		}
	})
}
