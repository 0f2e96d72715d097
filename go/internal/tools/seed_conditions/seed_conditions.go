package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mcourt/clutchtime/go/internal/conditions"
	"github.com/mcourt/clutchtime/go/internal/dbconfig"
)

// seedCondition mirrors the JSON snapshot structure.
type seedCondition struct {
	GameID      string    `json:"game_id"`
	GameTimeUTC time.Time `json:"game_time_utc"`

	HomeTeamID      int    `json:"home_team_id"`
	HomeTeamName    string `json:"home_team_name"`
	HomeTeamTricode string `json:"home_team_tricode"`
	AwayTeamID      int    `json:"away_team_id"`
	AwayTeamName    string `json:"away_team_name"`
	AwayTeamTricode string `json:"away_team_tricode"`

	Type   conditions.Type `json:"type"`
	Params json.RawMessage `json:"params"`
}

func main() {
	path := "go/internal/assets/conditions.json"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read JSON: %v\n", err)
		os.Exit(1)
	}
	var seeds []seedCondition
	if err := json.Unmarshal(data, &seeds); err != nil {
		fmt.Fprintf(os.Stderr, "unmarshal JSON: %v\n", err)
		os.Exit(1)
	}

	cfg := dbconfig.NewConfigFromEnv()
	pool, err := pgxpool.New(context.Background(), cfg.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	repo := conditions.NewRepository(pool)

	var inserted, errs int
	for _, s := range seeds {
		params, err := conditions.DecodeParams(s.Type, s.Params)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error decoding condition for game %s: %v\n", s.GameID, err)
			errs++
			continue
		}
		_, err = repo.InsertCondition(context.Background(), conditions.Condition{
			GameID:          s.GameID,
			GameTimeUTC:     s.GameTimeUTC,
			HomeTeamID:      s.HomeTeamID,
			HomeTeamName:    s.HomeTeamName,
			HomeTeamTricode: s.HomeTeamTricode,
			AwayTeamID:      s.AwayTeamID,
			AwayTeamName:    s.AwayTeamName,
			AwayTeamTricode: s.AwayTeamTricode,
			Type:            s.Type,
			Params:          params,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "error inserting condition for game %s: %v\n", s.GameID, err)
			errs++
			continue
		}
		inserted++
	}

	fmt.Printf("Seed complete: total=%d inserted=%d errors=%d\n", len(seeds), inserted, errs)
	if errs > 0 {
		os.Exit(1)
	}
}
