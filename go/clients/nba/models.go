package nba

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/mcourt/clutchtime/go/internal/gameclock"
)

// Wire types for the CDN's JSON documents. Only the fields the scheduler
// reads are mapped.

type scoreboardResponse struct {
	Scoreboard struct {
		GameDate string     `json:"gameDate"`
		Games    []wireGame `json:"games"`
	} `json:"scoreboard"`
}

type wireGame struct {
	GameID      string    `json:"gameId"`
	GameStatus  int       `json:"gameStatus"`
	Period      int       `json:"period"`
	GameClock   string    `json:"gameClock"`
	GameTimeUTC time.Time `json:"gameTimeUTC"`
	HomeTeam    wireTeam  `json:"homeTeam"`
	AwayTeam    wireTeam  `json:"awayTeam"`
}

type wireTeam struct {
	TeamID      int    `json:"teamId"`
	TeamName    string `json:"teamName"`
	TeamTricode string `json:"teamTricode"`
	Score       int    `json:"score"`
}

type playByPlayResponse struct {
	Game struct {
		GameID  string       `json:"gameId"`
		Actions []wireAction `json:"actions"`
	} `json:"game"`
}

type wireAction struct {
	ActionNumber int       `json:"actionNumber"`
	OrderNumber  int       `json:"orderNumber"`
	Period       int       `json:"period"`
	ActionType   string    `json:"actionType"`
	SubType      string    `json:"subType"`
	TimeActual   time.Time `json:"timeActual"`
}

type scheduleResponse struct {
	LeagueSchedule struct {
		GameDates []struct {
			GameDate string     `json:"gameDate"`
			Games    []wireGame `json:"games"`
		} `json:"gameDates"`
	} `json:"leagueSchedule"`
}

// gameClockPattern matches the feed's ISO-8601 duration form, e.g.
// "PT11M23.00S".
var gameClockPattern = regexp.MustCompile(`^PT(\d+)M(\d+(?:\.\d+)?)S$`)

// ParseGameClock parses the feed's clock string. An empty string means
// the feed carries no clock (pregame, between periods) and yields nil.
func ParseGameClock(raw string) (*gameclock.Clock, error) {
	if raw == "" {
		return nil, nil
	}
	m := gameClockPattern.FindStringSubmatch(raw)
	if m == nil {
		return nil, fmt.Errorf("unrecognized game clock %q", raw)
	}
	minutes, err := strconv.Atoi(m[1])
	if err != nil {
		return nil, fmt.Errorf("unrecognized game clock %q: %w", raw, err)
	}
	seconds, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return nil, fmt.Errorf("unrecognized game clock %q: %w", raw, err)
	}
	return &gameclock.Clock{Minutes: minutes, Seconds: seconds}, nil
}
