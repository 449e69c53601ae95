package models

import (
	"database/sql"
	"time"
)

// Player represents the players table.
type Player struct {
	PlayerID       string         `json:"player_id"`
	Name           string         `json:"name"`
	Avatar         string         `json:"avatar,omitempty"`
	Status         string         `json:"status,omitempty"` // 'ACTIVE', 'BANNED'
	CurrentSession sql.NullString `json:"current_session"`
	GamesPlayed    int64          `json:"games_played"`
	GamesWon       int64          `json:"games_won"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}
