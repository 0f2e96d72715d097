// Package nba fetches live game data from the NBA's public CDN feeds.
package nba

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mcourt/clutchtime/go/clients"
	"github.com/mcourt/clutchtime/go/internal/models"
)

// Client reads the scoreboard, play-by-play, and league schedule feeds.
type Client struct {
	base *clients.BaseClient
}

// NewClient creates a client against the production CDN.
func NewClient() *Client {
	return NewClientWithBaseURL(BaseURL)
}

// NewClientWithBaseURL creates a client against an alternate base URL,
// used by tests to point at a local server.
func NewClientWithBaseURL(baseURL string) *Client {
	base := clients.NewBaseClient(baseURL)
	base.SetHeader("Accept", "application/json")
	return &Client{base: base}
}

// Scoreboard fetches today's scoreboard and returns one snapshot per game.
func (c *Client) Scoreboard(ctx context.Context) ([]models.GameSnapshot, error) {
	body, err := c.base.Get(ctx, scoreboardEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch scoreboard: %w", err)
	}

	var resp scoreboardResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse scoreboard: %w", err)
	}

	snapshots := make([]models.GameSnapshot, 0, len(resp.Scoreboard.Games))
	for _, g := range resp.Scoreboard.Games {
		snap, err := toSnapshot(g)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snap)
	}
	return snapshots, nil
}

// PlayByPlay fetches the play-by-play actions for one game.
func (c *Client) PlayByPlay(ctx context.Context, gameID string) ([]models.PlayAction, error) {
	body, err := c.base.Get(ctx, fmt.Sprintf(playByPlayEndpoint, gameID))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch play-by-play for game %s: %w", gameID, err)
	}

	var resp playByPlayResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse play-by-play for game %s: %w", gameID, err)
	}

	actions := make([]models.PlayAction, 0, len(resp.Game.Actions))
	for _, a := range resp.Game.Actions {
		actions = append(actions, models.PlayAction{
			ActionNumber: a.ActionNumber,
			OrderNumber:  a.OrderNumber,
			Period:       a.Period,
			ActionType:   a.ActionType,
			SubType:      a.SubType,
			TimeActual:   a.TimeActual,
		})
	}
	return actions, nil
}

// Schedule fetches the full league schedule and returns every listed game
// as a snapshot. Scheduled games carry no clock and zero scores.
func (c *Client) Schedule(ctx context.Context) ([]models.GameSnapshot, error) {
	body, err := c.base.Get(ctx, scheduleEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch schedule: %w", err)
	}

	var resp scheduleResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse schedule: %w", err)
	}

	var snapshots []models.GameSnapshot
	for _, date := range resp.LeagueSchedule.GameDates {
		for _, g := range date.Games {
			snap, err := toSnapshot(g)
			if err != nil {
				return nil, err
			}
			snapshots = append(snapshots, snap)
		}
	}
	return snapshots, nil
}

func toSnapshot(g wireGame) (models.GameSnapshot, error) {
	clock, err := ParseGameClock(g.GameClock)
	if err != nil {
		return models.GameSnapshot{}, fmt.Errorf("game %s: %w", g.GameID, err)
	}
	return models.GameSnapshot{
		GameID:       g.GameID,
		Status:       models.GameStatus(g.GameStatus),
		StartTimeUTC: g.GameTimeUTC,
		Period:       g.Period,
		Clock:        clock,
		HomeTeam:     toTeamScore(g.HomeTeam),
		AwayTeam:     toTeamScore(g.AwayTeam),
	}, nil
}

func toTeamScore(t wireTeam) models.TeamScore {
	return models.TeamScore{
		TeamID:  t.TeamID,
		Name:    t.TeamName,
		Tricode: t.TeamTricode,
		Score:   t.Score,
	}
}
