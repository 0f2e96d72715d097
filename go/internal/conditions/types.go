// Package conditions defines the user-composable alert conditions and the
// relevance estimators that decide when each one is next worth checking.
package conditions

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/mcourt/clutchtime/go/internal/gameclock"
)

// Type tags the closed set of condition variants.
type Type string

const (
	TypeTimeRange  Type = "TIME_RANGE"
	TypeDifference Type = "DIFFERENCE"
	TypeLeader     Type = "LEADER"
)

// Comparator selects the direction of a difference condition.
type Comparator string

const (
	// CompGreater holds while |home-away| > threshold.
	CompGreater Comparator = ">"
	// CompAtMost holds while |home-away| <= threshold.
	CompAtMost Comparator = "<="
)

// Params is the closed set of per-variant condition parameters. Exactly
// one concrete type exists per Type tag; evaluation and the storage codec
// switch over them exhaustively.
type Params interface {
	conditionParams()
}

// TimeRangeParams holds while the game moment falls inside
// [Start, End) of in-game time.
type TimeRangeParams struct {
	Start gameclock.Moment `json:"start"`
	End   gameclock.Moment `json:"end"`
}

// DifferenceParams holds while the absolute score difference satisfies
// the comparator against the threshold.
type DifferenceParams struct {
	Comparator Comparator `json:"comparator"`
	Threshold  int        `json:"threshold"`
}

// LeaderParams holds while the named team is strictly ahead.
type LeaderParams struct {
	LeaderTeamID int `json:"leaderTeamId"`
}

func (TimeRangeParams) conditionParams()  {}
func (DifferenceParams) conditionParams() {}
func (LeaderParams) conditionParams()     {}

// TypeOf returns the tag for a Params value.
func TypeOf(p Params) Type {
	switch p.(type) {
	case TimeRangeParams:
		return TypeTimeRange
	case DifferenceParams:
		return TypeDifference
	case LeaderParams:
		return TypeLeader
	default:
		panic(fmt.Sprintf("conditions: unknown params type %T", p))
	}
}

// EncodeParams serializes params for storage alongside their type tag.
func EncodeParams(p Params) (Type, []byte, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return "", nil, fmt.Errorf("marshal condition params: %w", err)
	}
	return TypeOf(p), raw, nil
}

// DecodeParams is the inverse of EncodeParams; it rejects unknown tags
// so a bad row cannot carry an unevaluable condition into a cycle.
func DecodeParams(t Type, raw []byte) (Params, error) {
	switch t {
	case TypeTimeRange:
		var p TimeRangeParams
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("unmarshal time range params: %w", err)
		}
		return p, nil
	case TypeDifference:
		var p DifferenceParams
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("unmarshal difference params: %w", err)
		}
		return p, nil
	case TypeLeader:
		var p LeaderParams
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("unmarshal leader params: %w", err)
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown condition type %q", t)
	}
}

// Condition is one stored user condition, attached to a single game.
// Conditions are created by the editing surface and are read-only to the
// scheduler.
type Condition struct {
	ID          int64     `json:"id"`
	GameID      string    `json:"gameId"`
	GameTimeUTC time.Time `json:"gameTimeUtc"`

	HomeTeamID      int    `json:"homeTeamId"`
	HomeTeamName    string `json:"homeTeamName"`
	HomeTeamTricode string `json:"homeTeamTricode"`
	AwayTeamID      int    `json:"awayTeamId"`
	AwayTeamName    string `json:"awayTeamName"`
	AwayTeamTricode string `json:"awayTeamTricode"`

	Type   Type   `json:"type"`
	Params Params `json:"params"`
}

// GameWithConditions groups all conditions attached to one game.
type GameWithConditions struct {
	GameID      string    `json:"gameId"`
	GameTimeUTC time.Time `json:"gameTimeUtc"`

	HomeTeamID      int    `json:"homeTeamId"`
	HomeTeamName    string `json:"homeTeamName"`
	HomeTeamTricode string `json:"homeTeamTricode"`
	AwayTeamID      int    `json:"awayTeamId"`
	AwayTeamName    string `json:"awayTeamName"`
	AwayTeamTricode string `json:"awayTeamTricode"`

	Conditions []Condition `json:"conditions"`
}
