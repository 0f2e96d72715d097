// Package alerts implements the sinks that fired alarms are delivered
// to.
package alerts

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/mcourt/clutchtime/go/internal/orchestrator"
)

// LogNotifier writes fired alarms to the log. It is the development
// fallback when no broker is configured.
type LogNotifier struct{}

func (LogNotifier) Notify(ctx context.Context, alarms []orchestrator.Alarm) error {
	for _, a := range alarms {
		log.Info().
			Int64("session_id", a.SessionID).
			Str("game_id", a.Game.GameID).
			Str("matchup", fmt.Sprintf("%s vs %s", a.Game.HomeTeamTricode, a.Game.AwayTeamTricode)).
			Int("home_score", a.Snapshot.HomeTeam.Score).
			Int("away_score", a.Snapshot.AwayTeam.Score).
			Msg("ALARM: game conditions met")
	}
	return nil
}

// NATSNotifier publishes fired alarms to a NATS subject, one message
// per alarmed game.
type NATSNotifier struct {
	nc      *nats.Conn
	subject string
}

// NewNATSNotifier connects to NATS with reconnect handling.
func NewNATSNotifier(url, subject string) (*NATSNotifier, error) {
	opts := []nats.Option{
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return &NATSNotifier{nc: nc, subject: subject}, nil
}

func (n *NATSNotifier) Notify(ctx context.Context, alarms []orchestrator.Alarm) error {
	for _, a := range alarms {
		payload, err := json.Marshal(a)
		if err != nil {
			return fmt.Errorf("marshal alarm for game %s: %w", a.Game.GameID, err)
		}
		subject := fmt.Sprintf("%s.%s", n.subject, a.Game.GameID)
		if err := n.nc.Publish(subject, payload); err != nil {
			return fmt.Errorf("publish alarm for game %s: %w", a.Game.GameID, err)
		}
		log.Debug().Str("subject", subject).Msg("alarm published")
	}
	return n.nc.Flush()
}

// Close drains the NATS connection.
func (n *NATSNotifier) Close() {
	n.nc.Close()
}

// MultiNotifier fans one alarm batch out to several sinks. A failing
// sink does not block the others; the first error is returned.
type MultiNotifier []orchestrator.Notifier

func (m MultiNotifier) Notify(ctx context.Context, alarms []orchestrator.Alarm) error {
	var firstErr error
	for _, n := range m {
		if err := n.Notify(ctx, alarms); err != nil {
			log.Error().Err(err).Msg("alert sink failed")
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
