package models

import "time"

// CardRecord is the durable row for a generated bingo card. Grid holds the
// serialized 5x5 layout (JSON, column-major).
type CardRecord struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	PlayerID  string    `json:"player_id"`
	Grid      string    `json:"grid"`
	HasBingo  bool      `json:"has_bingo"`
	Pattern   string    `json:"pattern,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
