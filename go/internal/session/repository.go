// Package session persists monitoring sessions and their per-game
// scheduling records.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mcourt/clutchtime/go/internal/models"
)

// ErrNoSession is returned when a lookup finds no session.
var ErrNoSession = errors.New("no session found")

// Repository implements session storage on Postgres. The orchestrator
// is its only writer.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a session repository backed by the pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateSession starts a new RUNNING session.
func (r *Repository) CreateSession(ctx context.Context, createdAt time.Time) (*models.Session, error) {
	s := models.Session{
		CreatedAt: createdAt,
		Status:    models.SessionRunning,
	}
	row := r.pool.QueryRow(ctx,
		`INSERT INTO sessions (created_at, status) VALUES ($1, $2) RETURNING id`,
		s.CreatedAt, s.Status,
	)
	if err := row.Scan(&s.ID); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return &s, nil
}

// GetSession fetches a session by ID.
func (r *Repository) GetSession(ctx context.Context, id int64) (*models.Session, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, created_at, fail_count, status FROM sessions WHERE id = $1`, id)
	return scanSession(row)
}

// LatestSession fetches the most recently created session.
func (r *Repository) LatestSession(ctx context.Context) (*models.Session, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, created_at, fail_count, status FROM sessions ORDER BY created_at DESC LIMIT 1`)
	return scanSession(row)
}

// UpdateSessionStatus moves a session to the given lifecycle state.
func (r *Repository) UpdateSessionStatus(ctx context.Context, id int64, status models.SessionStatus) error {
	tag, err := r.pool.Exec(ctx, `UPDATE sessions SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("update session %d status: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNoSession
	}
	return nil
}

// UpdateSessionFailCount records the consecutive fetch-failure count.
func (r *Repository) UpdateSessionFailCount(ctx context.Context, id int64, failCount int) error {
	tag, err := r.pool.Exec(ctx, `UPDATE sessions SET fail_count = $2 WHERE id = $1`, id, failCount)
	if err != nil {
		return fmt.Errorf("update session %d fail count: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNoSession
	}
	return nil
}

// UpsertSessionGames writes a batch of per-game scheduling records.
func (r *Repository) UpsertSessionGames(ctx context.Context, games []models.SessionGame) error {
	if len(games) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, g := range games {
		batch.Queue(`
			INSERT INTO session_games (session_id, game_id, status, scheduled_time)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (session_id, game_id)
			DO UPDATE SET status = EXCLUDED.status, scheduled_time = EXCLUDED.scheduled_time`,
			g.SessionID, g.GameID, g.Status, g.ScheduledTime,
		)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()
	for range games {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("upsert session games: %w", err)
		}
	}
	return nil
}

// UpsertSessionGame writes one per-game scheduling record.
func (r *Repository) UpsertSessionGame(ctx context.Context, g models.SessionGame) error {
	return r.UpsertSessionGames(ctx, []models.SessionGame{g})
}

// SessionGames lists every scheduling record of a session.
func (r *Repository) SessionGames(ctx context.Context, sessionID int64) ([]models.SessionGame, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT session_id, game_id, status, scheduled_time
		FROM session_games WHERE session_id = $1`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query session games: %w", err)
	}
	defer rows.Close()

	var games []models.SessionGame
	for rows.Next() {
		var g models.SessionGame
		if err := rows.Scan(&g.SessionID, &g.GameID, &g.Status, &g.ScheduledTime); err != nil {
			return nil, fmt.Errorf("scan session game: %w", err)
		}
		games = append(games, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate session games: %w", err)
	}
	return games, nil
}

func scanSession(row pgx.Row) (*models.Session, error) {
	var s models.Session
	if err := row.Scan(&s.ID, &s.CreatedAt, &s.FailCount, &s.Status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}
	return &s, nil
}
