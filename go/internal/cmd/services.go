package main

import (
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcourt/clutchtime/go/clients/nba"
	"github.com/mcourt/clutchtime/go/internal/alerts"
	"github.com/mcourt/clutchtime/go/internal/conditions"
	"github.com/mcourt/clutchtime/go/internal/gateway"
	"github.com/mcourt/clutchtime/go/internal/orchestrator"
	"github.com/mcourt/clutchtime/go/internal/session"
)

// Services holds the wired application graph.
type Services struct {
	Conditions   *conditions.Repository
	Sessions     *session.Repository
	Feed         *nba.Client
	Hub          *gateway.Hub
	Orchestrator *orchestrator.Orchestrator

	nats *alerts.NATSNotifier
}

func setupServices(pool *pgxpool.Pool, cfg *Config) (*Services, error) {
	clock := clockwork.NewRealClock()

	conditionRepo := conditions.NewRepository(pool)
	sessionRepo := session.NewRepository(pool)
	feed := nba.NewClient()
	hub := gateway.NewHub()

	evaluator := conditions.NewEvaluator(clock, cfg.Heuristics(), feed)

	// Alarms always go to the log and the websocket stream; NATS joins
	// the fan-out when a broker URL is configured.
	notifiers := alerts.MultiNotifier{alerts.LogNotifier{}, hub}
	var natsNotifier *alerts.NATSNotifier
	if url := os.Getenv("NATS_URL"); url != "" {
		n, err := alerts.NewNATSNotifier(url, cfg.Alerts.NATSSubject)
		if err != nil {
			return nil, err
		}
		notifiers = append(notifiers, n)
		natsNotifier = n
		log.Info().Str("subject", cfg.Alerts.NATSSubject).Msg("NATS alert publishing enabled")
	}

	orch := orchestrator.New(
		sessionRepo,
		conditionRepo,
		feed,
		evaluator,
		notifiers,
		clock,
		cfg.RetryPolicy(),
	)

	return &Services{
		Conditions:   conditionRepo,
		Sessions:     sessionRepo,
		Feed:         feed,
		Hub:          hub,
		Orchestrator: orch,
		nats:         natsNotifier,
	}, nil
}

// Close releases external connections held by the graph.
func (s *Services) Close() {
	if s.nats != nil {
		s.nats.Close()
	}
}
