package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/mcourt/clutchtime/go/internal/conditions"
	"github.com/mcourt/clutchtime/go/internal/models"
	"github.com/mcourt/clutchtime/go/internal/session"
)

// ConditionStore is what the handlers need from condition persistence.
type ConditionStore interface {
	InsertCondition(ctx context.Context, c conditions.Condition) (*conditions.Condition, error)
	DeleteCondition(ctx context.Context, id int64) error
	GameConditions(ctx context.Context, gameID string) ([]conditions.Condition, error)
}

// SessionStore is what the handlers need from session persistence.
type SessionStore interface {
	LatestSession(ctx context.Context) (*models.Session, error)
	SessionGames(ctx context.Context, sessionID int64) ([]models.SessionGame, error)
}

// SessionControl drives the orchestrator from the outside.
type SessionControl interface {
	StartSession(ctx context.Context) (*models.Session, error)
	KillSession(ctx context.Context, sessionID int64) error
	TriggerCheck(sessionID int64, reason string)
}

// LiveFeed exposes the upstream game feeds for browsing.
type LiveFeed interface {
	Scoreboard(ctx context.Context) ([]models.GameSnapshot, error)
	Schedule(ctx context.Context) ([]models.GameSnapshot, error)
}

// Handler holds shared dependencies for all endpoint handlers.
type Handler struct {
	pool     *pgxpool.Pool
	conds    ConditionStore
	sessions SessionStore
	control  SessionControl
	feed     LiveFeed
}

// NewHandler creates a Handler with shared dependencies. The pool is only
// used by the DB health check and may be nil in tests.
func NewHandler(pool *pgxpool.Pool, conds ConditionStore, sessions SessionStore, control SessionControl, feed LiveFeed) *Handler {
	return &Handler{
		pool:     pool,
		conds:    conds,
		sessions: sessions,
		control:  control,
		feed:     feed,
	}
}

// HealthCheck returns basic health status.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckDB verifies database connectivity.
func (h *Handler) HealthCheckDB(w http.ResponseWriter, r *http.Request) {
	if h.pool == nil {
		writeError(w, http.StatusServiceUnavailable, "database not configured")
		return
	}
	if err := h.pool.Ping(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "database unreachable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// createConditionRequest is the wire form of a new condition. Params stay
// raw until the type tag selects their concrete shape.
type createConditionRequest struct {
	GameID      string    `json:"gameId"`
	GameTimeUTC time.Time `json:"gameTimeUtc"`

	HomeTeamID      int    `json:"homeTeamId"`
	HomeTeamName    string `json:"homeTeamName"`
	HomeTeamTricode string `json:"homeTeamTricode"`
	AwayTeamID      int    `json:"awayTeamId"`
	AwayTeamName    string `json:"awayTeamName"`
	AwayTeamTricode string `json:"awayTeamTricode"`

	Type   conditions.Type `json:"type"`
	Params json.RawMessage `json:"params"`
}

// CreateCondition stores a new condition for a game.
func (h *Handler) CreateCondition(w http.ResponseWriter, r *http.Request) {
	var req createConditionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.GameID == "" {
		writeError(w, http.StatusBadRequest, "gameId is required")
		return
	}

	params, err := conditions.DecodeParams(req.Type, req.Params)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := conditions.Validate(params); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := h.conds.InsertCondition(r.Context(), conditions.Condition{
		GameID:          req.GameID,
		GameTimeUTC:     req.GameTimeUTC,
		HomeTeamID:      req.HomeTeamID,
		HomeTeamName:    req.HomeTeamName,
		HomeTeamTricode: req.HomeTeamTricode,
		AwayTeamID:      req.AwayTeamID,
		AwayTeamName:    req.AwayTeamName,
		AwayTeamTricode: req.AwayTeamTricode,
		Type:            req.Type,
		Params:          params,
	})
	if err != nil {
		log.Error().Err(err).Str("game_id", req.GameID).Msg("failed to create condition")
		writeError(w, http.StatusInternalServerError, "failed to create condition")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// DeleteCondition removes a condition by ID.
func (h *Handler) DeleteCondition(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "conditionID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid condition ID")
		return
	}
	if err := h.conds.DeleteCondition(r.Context(), id); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetGameConditions lists all conditions attached to one game.
func (h *Handler) GetGameConditions(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "gameID")
	conds, err := h.conds.GameConditions(r.Context(), gameID)
	if err != nil {
		log.Error().Err(err).Str("game_id", gameID).Msg("failed to list conditions")
		writeError(w, http.StatusInternalServerError, "failed to list conditions")
		return
	}
	if conds == nil {
		conds = []conditions.Condition{}
	}
	writeJSON(w, http.StatusOK, conds)
}

// GetScoreboard passes through today's live scoreboard.
func (h *Handler) GetScoreboard(w http.ResponseWriter, r *http.Request) {
	snaps, err := h.feed.Scoreboard(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("scoreboard fetch failed")
		writeError(w, http.StatusBadGateway, "scoreboard unavailable")
		return
	}
	writeJSON(w, http.StatusOK, snaps)
}

// GetSchedule passes through the league schedule for game browsing.
func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	games, err := h.feed.Schedule(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("schedule fetch failed")
		writeError(w, http.StatusBadGateway, "schedule unavailable")
		return
	}
	writeJSON(w, http.StatusOK, games)
}

// sessionResponse joins a session with its per-game scheduling records.
type sessionResponse struct {
	Session *models.Session      `json:"session"`
	Games   []models.SessionGame `json:"games"`
}

// StartSession creates a new monitoring session and queues its first
// check.
func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.control.StartSession(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to start session")
		writeError(w, http.StatusInternalServerError, "failed to start session")
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

// GetLatestSession returns the most recent session and its games.
func (h *Handler) GetLatestSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.LatestSession(r.Context())
	if err != nil {
		if errors.Is(err, session.ErrNoSession) {
			writeError(w, http.StatusNotFound, "no sessions yet")
			return
		}
		log.Error().Err(err).Msg("failed to load latest session")
		writeError(w, http.StatusInternalServerError, "failed to load latest session")
		return
	}
	games, err := h.sessions.SessionGames(r.Context(), sess.ID)
	if err != nil {
		log.Error().Err(err).Int64("session_id", sess.ID).Msg("failed to load session games")
		writeError(w, http.StatusInternalServerError, "failed to load session games")
		return
	}
	if games == nil {
		games = []models.SessionGame{}
	}
	writeJSON(w, http.StatusOK, sessionResponse{Session: sess, Games: games})
}

// KillSession terminates a session.
func (h *Handler) KillSession(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "sessionID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session ID")
		return
	}
	if err := h.control.KillSession(r.Context(), id); err != nil {
		log.Error().Err(err).Int64("session_id", id).Msg("failed to kill session")
		writeError(w, http.StatusInternalServerError, "failed to kill session")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "killed"})
}

// TriggerCheck queues an immediate check cycle for a session.
func (h *Handler) TriggerCheck(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "sessionID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session ID")
		return
	}
	h.control.TriggerCheck(id, "manual")
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "check queued"})
}
