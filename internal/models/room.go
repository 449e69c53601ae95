package models

import "time"

// Room is the lobby-facing grouping that supplies configuration to a game
// session at creation time.
type Room struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	MaxPlayers int       `json:"max_players"`
	MinPlayers int       `json:"min_players"`
	EntryFee   int64     `json:"entry_fee"`
	Duration   int       `json:"duration"` // seconds
	AutoStart  bool      `json:"auto_start"`
	Status     string    `json:"status"` // 'open', 'closed'
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
