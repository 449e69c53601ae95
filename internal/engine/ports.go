package engine

import (
	"context"
	"time"

	"github.com/natneal/bingo-live/internal/comm"
)

// The scheduler's external collaborators sit behind narrow ports. Calls to
// them are the only operations allowed to block; they run under a single
// session's lock and never stall other sessions.

// Store persists session and card records.
type Store interface {
	SaveSession(ctx context.Context, s *Session) error
	SaveCards(ctx context.Context, cards []*Card) error
	// MarkWinningCard flags the accepted claim's card with its winning
	// pattern on the durable record.
	MarkWinningCard(ctx context.Context, cardID string, pattern Pattern) error
	// ArchiveSession retires a finished session's cards until the
	// retention deadline passes.
	ArchiveSession(ctx context.Context, s *Session, retainUntil time.Time) error
}

// Ledger records entry-fee debits and prize credits against a player
// balance. DebitEntryFee fails with ErrInsufficientBalance when the
// player cannot cover the fee.
type Ledger interface {
	DebitEntryFee(ctx context.Context, playerID, sessionID string, amount int64) error
	CreditPrize(ctx context.Context, playerID, sessionID string, amount int64) error
}

// Directory tracks each player's current-session reference and running
// totals.
type Directory interface {
	SetCurrentSession(ctx context.Context, playerID, sessionID string) error
	ClearCurrentSession(ctx context.Context, playerIDs []string) error
	RecordResult(ctx context.Context, winnerID string, playerIDs []string) error
}

// Notifier pushes session events to every participant.
type Notifier interface {
	PlayerJoined(ev comm.PlayerJoined)
	PlayerLeft(ev comm.PlayerLeft)
	GameStart(ev comm.GameStart)
	NumberCalled(ev comm.NumberCalled)
	GameEnd(ev comm.GameEnd)
}
