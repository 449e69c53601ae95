package engine

import (
	"time"

	"github.com/natneal/bingo-live/internal/comm"
)

// ParticipantView is the outward shape of a session entry.
type ParticipantView struct {
	PlayerID     string    `json:"player_id"`
	JoinedAt     time.Time `json:"joined_at"`
	IsReady      bool      `json:"is_ready"`
	HasClaimed   bool      `json:"has_claimed"`
	Disconnected bool      `json:"disconnected,omitempty"`
}

// Snapshot is a consistent read of a session, safe to serialize after the
// session lock is released.
type Snapshot struct {
	SessionID   string            `json:"session_id"`
	RoomID      string            `json:"room_id"`
	Status      Status            `json:"status"`
	Phase       Phase             `json:"phase"`
	Players     []ParticipantView `json:"players"`
	MaxPlayers  int               `json:"max_players"`
	MinPlayers  int               `json:"min_players"`
	EntryFee    int64             `json:"entry_fee"`
	PrizePool   int64             `json:"prize_pool"`
	Duration    int               `json:"duration"` // seconds
	Drawn       []DrawnNumber     `json:"drawn_numbers"`
	Current     *DrawnNumber      `json:"current_number,omitempty"`
	Winner      *comm.WinnerInfo  `json:"winner,omitempty"`
	Reason      EndReason         `json:"end_reason,omitempty"`
	TotalCalls  int               `json:"total_calls"`
	StartedAt   time.Time         `json:"started_at"`
	EndedAt     time.Time         `json:"ended_at"`
	CreatedAt   time.Time         `json:"created_at"`
	TimeLeft    int               `json:"time_remaining"` // seconds
}

// StateView is the getState response: the session snapshot plus the
// caller's own card rendered with per-cell marked flags.
type StateView struct {
	Session Snapshot                  `json:"session"`
	Card    *[GridSize][GridSize]Cell `json:"card,omitempty"`
	CardID  string                    `json:"card_id,omitempty"`
}

// ClaimResult is returned on an accepted win.
type ClaimResult struct {
	Prize   int64   `json:"prize"`
	Pattern Pattern `json:"pattern"`
}

func winnerInfo(w *Winner) *comm.WinnerInfo {
	if w == nil {
		return nil
	}
	return &comm.WinnerInfo{
		PlayerID:       w.PlayerID,
		Pattern:        string(w.Pattern),
		Prize:          w.Prize,
		ClaimTime:      w.ClaimTime,
		WinningNumbers: append([]int(nil), w.WinningNumbers...),
	}
}

// Snapshot copies the observable session state. Callers must hold the
// session's serialization context (the scheduler does).
func (s *Session) Snapshot(now time.Time) Snapshot {
	players := make([]ParticipantView, 0, len(s.Participants))
	for _, p := range s.Participants {
		players = append(players, ParticipantView{
			PlayerID:     p.PlayerID,
			JoinedAt:     p.JoinedAt,
			IsReady:      p.IsReady,
			HasClaimed:   p.HasClaimed,
			Disconnected: p.Disconnected,
		})
	}

	timeLeft := 0
	if s.Status == StatusInProgress {
		if left := time.Until(s.Deadline()); left > 0 {
			timeLeft = int(left.Seconds())
		}
	}

	var current *DrawnNumber
	if s.Current != nil {
		c := *s.Current
		current = &c
	}

	return Snapshot{
		SessionID:  s.ID,
		RoomID:     s.RoomID,
		Status:     s.Status,
		Phase:      s.Phase,
		Players:    players,
		MaxPlayers: s.Config.MaxPlayers,
		MinPlayers: s.Config.MinPlayers,
		EntryFee:   s.Config.EntryFee,
		PrizePool:  s.Config.PrizePool,
		Duration:   int(s.Config.Duration.Seconds()),
		Drawn:      append([]DrawnNumber(nil), s.Drawn...),
		Current:    current,
		Winner:     winnerInfo(s.Winner),
		Reason:     s.Reason,
		TotalCalls: s.Stats.TotalCalls,
		StartedAt:  s.StartedAt,
		EndedAt:    s.EndedAt,
		CreatedAt:  s.CreatedAt,
		TimeLeft:   timeLeft,
	}
}
