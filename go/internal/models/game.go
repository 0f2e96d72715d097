package models

import (
	"time"

	"github.com/mcourt/clutchtime/go/internal/gameclock"
)

// GameStatus is the scoreboard feed's status code for a game.
type GameStatus int

const (
	GameStatusScheduled GameStatus = 1
	GameStatusLive      GameStatus = 2
	GameStatusFinal     GameStatus = 3
)

// TeamScore is one side's identity and score within a snapshot.
type TeamScore struct {
	TeamID  int    `json:"teamId"`
	Name    string `json:"name"`
	Tricode string `json:"tricode"`
	Score   int    `json:"score"`
}

// GameSnapshot is one game's state as reported by the live scoreboard.
type GameSnapshot struct {
	GameID       string          `json:"gameId"`
	Status       GameStatus      `json:"status"`
	StartTimeUTC time.Time       `json:"startTimeUtc"`
	Period       int             `json:"period"`
	Clock        *gameclock.Clock `json:"clock,omitempty"`
	HomeTeam     TeamScore       `json:"homeTeam"`
	AwayTeam     TeamScore       `json:"awayTeam"`
}

// Moment returns the snapshot's in-game moment. Before tip-off the feed
// carries period 0 and no clock; that maps to a zero moment whose elapsed
// arithmetic resolves to the start of period 1.
func (s *GameSnapshot) Moment() gameclock.Moment {
	m := gameclock.Moment{Period: s.Period}
	if s.Clock != nil {
		m.Clock = *s.Clock
	}
	return m
}

// ScoreDiff returns the absolute score difference.
func (s *GameSnapshot) ScoreDiff() int {
	diff := s.HomeTeam.Score - s.AwayTeam.Score
	if diff < 0 {
		return -diff
	}
	return diff
}

// PlayAction is one entry of a game's play-by-play feed.
type PlayAction struct {
	ActionNumber int       `json:"actionNumber"`
	OrderNumber  int       `json:"orderNumber"`
	Period       int       `json:"period"`
	ActionType   string    `json:"actionType"`
	SubType      string    `json:"subType"`
	TimeActual   time.Time `json:"timeActual"`
}

// Play-by-play action markers the scheduler cares about.
const (
	ActionTypePeriod = "period"
	SubTypeEnd       = "end"
)
