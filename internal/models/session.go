package models

import (
	"database/sql"
	"time"
)

// SessionRecord is the durable row behind a live game session.
type SessionRecord struct {
	ID          string         `json:"id"`
	RoomID      string         `json:"room_id"`
	Status      string         `json:"status"` // waiting, starting, in_progress, finished, cancelled
	Phase       string         `json:"phase"`  // lobby, playing, results
	EndReason   sql.NullString `json:"end_reason"`
	PlayerCount int            `json:"player_count"`
	PrizePool   int64          `json:"prize_pool"`
	WinnerID    sql.NullString `json:"winner_id"`
	WinPattern  sql.NullString `json:"win_pattern"`
	WinPrize    int64          `json:"win_prize"`
	TotalCalls  int            `json:"total_calls"`
	StartedAt   sql.NullTime   `json:"started_at"`
	EndedAt     sql.NullTime   `json:"ended_at"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}
