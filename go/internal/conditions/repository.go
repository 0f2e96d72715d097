package conditions

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository implements condition storage on Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a conditions repository backed by the pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// InsertCondition validates and stores a new condition, returning it
// with its assigned ID.
func (r *Repository) InsertCondition(ctx context.Context, c Condition) (*Condition, error) {
	if err := Validate(c.Params); err != nil {
		return nil, fmt.Errorf("invalid condition params: %w", err)
	}

	condType, raw, err := EncodeParams(c.Params)
	if err != nil {
		return nil, err
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO conditions (
			game_id, game_time_utc,
			home_team_id, home_team_name, home_team_tricode,
			away_team_id, away_team_name, away_team_tricode,
			condition_type, params
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`,
		c.GameID, c.GameTimeUTC,
		c.HomeTeamID, c.HomeTeamName, c.HomeTeamTricode,
		c.AwayTeamID, c.AwayTeamName, c.AwayTeamTricode,
		condType, raw,
	)
	if err := row.Scan(&c.ID); err != nil {
		return nil, fmt.Errorf("insert condition: %w", err)
	}
	c.Type = condType
	return &c, nil
}

// DeleteCondition removes a condition by ID.
func (r *Repository) DeleteCondition(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM conditions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete condition %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("condition %d not found", id)
	}
	return nil
}

// GameConditions returns all conditions attached to one game.
func (r *Repository) GameConditions(ctx context.Context, gameID string) ([]Condition, error) {
	rows, err := r.pool.Query(ctx, selectConditions+` WHERE game_id = $1 ORDER BY id`, gameID)
	if err != nil {
		return nil, fmt.Errorf("query game conditions: %w", err)
	}
	defer rows.Close()
	return scanConditions(rows)
}

// ConditionsWithinRange returns all conditions whose game starts inside
// [from, from+window).
func (r *Repository) ConditionsWithinRange(ctx context.Context, from time.Time, window time.Duration) ([]Condition, error) {
	rows, err := r.pool.Query(ctx,
		selectConditions+` WHERE game_time_utc >= $1 AND game_time_utc < $2 ORDER BY id`,
		from, from.Add(window),
	)
	if err != nil {
		return nil, fmt.Errorf("query conditions within range: %w", err)
	}
	defer rows.Close()
	return scanConditions(rows)
}

// GamesWithConditionsWithinRange groups the conditions of
// ConditionsWithinRange by game.
func (r *Repository) GamesWithConditionsWithinRange(ctx context.Context, from time.Time, window time.Duration) ([]GameWithConditions, error) {
	conds, err := r.ConditionsWithinRange(ctx, from, window)
	if err != nil {
		return nil, err
	}

	byGame := make(map[string]int)
	var games []GameWithConditions
	for _, c := range conds {
		i, ok := byGame[c.GameID]
		if !ok {
			i = len(games)
			byGame[c.GameID] = i
			games = append(games, GameWithConditions{
				GameID:          c.GameID,
				GameTimeUTC:     c.GameTimeUTC,
				HomeTeamID:      c.HomeTeamID,
				HomeTeamName:    c.HomeTeamName,
				HomeTeamTricode: c.HomeTeamTricode,
				AwayTeamID:      c.AwayTeamID,
				AwayTeamName:    c.AwayTeamName,
				AwayTeamTricode: c.AwayTeamTricode,
			})
		}
		games[i].Conditions = append(games[i].Conditions, c)
	}
	return games, nil
}

const selectConditions = `
	SELECT id, game_id, game_time_utc,
	       home_team_id, home_team_name, home_team_tricode,
	       away_team_id, away_team_name, away_team_tricode,
	       condition_type, params
	FROM conditions`

func scanConditions(rows pgx.Rows) ([]Condition, error) {
	var conds []Condition
	for rows.Next() {
		var c Condition
		var raw []byte
		if err := rows.Scan(
			&c.ID, &c.GameID, &c.GameTimeUTC,
			&c.HomeTeamID, &c.HomeTeamName, &c.HomeTeamTricode,
			&c.AwayTeamID, &c.AwayTeamName, &c.AwayTeamTricode,
			&c.Type, &raw,
		); err != nil {
			return nil, fmt.Errorf("scan condition: %w", err)
		}
		params, err := DecodeParams(c.Type, raw)
		if err != nil {
			return nil, fmt.Errorf("decode condition %d: %w", c.ID, err)
		}
		c.Params = params
		conds = append(conds, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate conditions: %w", err)
	}
	return conds, nil
}
