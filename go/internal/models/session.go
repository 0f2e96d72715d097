package models

import "time"

// SessionStatus is the lifecycle state of a monitoring session.
// FINISHED and KILLED are terminal.
type SessionStatus string

const (
	SessionRunning  SessionStatus = "RUNNING"
	SessionFinished SessionStatus = "FINISHED"
	SessionKilled   SessionStatus = "KILLED"
)

// Session is one calendar-day monitoring run across all tracked games.
type Session struct {
	ID        int64         `json:"id"`
	CreatedAt time.Time     `json:"createdAt"`
	FailCount int           `json:"failCount"`
	Status    SessionStatus `json:"status"`
}

// SessionGameStatus is the per-(session, game) scheduling state.
type SessionGameStatus string

const (
	SessionGameToBeScheduled SessionGameStatus = "TO_BE_SCHEDULED"
	SessionGameScheduling    SessionGameStatus = "SCHEDULING"
	SessionGameScheduled     SessionGameStatus = "SCHEDULED"
	SessionGameAlarmed       SessionGameStatus = "ALARMED"
	SessionGameFinished      SessionGameStatus = "FINISHED"
)

// IsSettled reports whether the game needs no further scheduling in its
// session: it has either fired its alarm or can never fire again.
func (s SessionGameStatus) IsSettled() bool {
	return s == SessionGameAlarmed || s == SessionGameFinished
}

// SessionGame is the scheduling record for one game within a session.
type SessionGame struct {
	SessionID     int64             `json:"sessionId"`
	GameID        string            `json:"gameId"`
	Status        SessionGameStatus `json:"status"`
	ScheduledTime *time.Time        `json:"scheduledTime,omitempty"`
}
