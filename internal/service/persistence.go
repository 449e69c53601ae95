package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/natneal/bingo-live/internal/board"
	"github.com/natneal/bingo-live/internal/engine"
	"github.com/natneal/bingo-live/internal/models"
	"github.com/natneal/bingo-live/internal/store"
)

// Persistence implements the engine's Store port on top of the Postgres
// stores and the Mongo card archive. The engine hands over live state;
// conversion to durable records happens here so validation and
// persistence stay separate steps.
type Persistence struct {
	sessions *store.SessionStore
	cards    *store.CardStore
	archive  *board.CardArchive
}

func NewPersistence(sessions *store.SessionStore, cards *store.CardStore, archive *board.CardArchive) *Persistence {
	return &Persistence{sessions: sessions, cards: cards, archive: archive}
}

func (p *Persistence) SaveSession(ctx context.Context, s *engine.Session) error {
	r := sessionRecord(s)
	if err := p.sessions.Upsert(ctx, r); err != nil {
		return fmt.Errorf("persist session %s: %w", s.ID, err)
	}
	return nil
}

func (p *Persistence) SaveCards(ctx context.Context, cards []*engine.Card) error {
	records := make([]models.CardRecord, 0, len(cards))
	for _, c := range cards {
		grid, err := json.Marshal(gridOf(c))
		if err != nil {
			return fmt.Errorf("encode card %s: %w", c.ID, err)
		}
		records = append(records, models.CardRecord{
			ID:        c.ID,
			SessionID: c.SessionID,
			PlayerID:  c.PlayerID,
			Grid:      string(grid),
		})
	}
	return p.cards.InsertBatch(ctx, records)
}

func (p *Persistence) MarkWinningCard(ctx context.Context, cardID string, pattern engine.Pattern) error {
	if err := p.cards.MarkWinner(ctx, cardID, string(pattern)); err != nil {
		return fmt.Errorf("mark winning card %s: %w", cardID, err)
	}
	return nil
}

func (p *Persistence) ArchiveSession(ctx context.Context, s *engine.Session, retainUntil time.Time) error {
	if p.archive == nil {
		return nil
	}
	var docs []board.ArchivedCard
	for _, part := range s.Participants {
		c := part.Card
		if c == nil {
			continue
		}
		marked := make([]int, 0, c.MarkedCount())
		for _, m := range c.MarkedNumbers() {
			marked = append(marked, m.Number)
		}
		docs = append(docs, board.ArchivedCard{
			CardID:    c.ID,
			SessionID: s.ID,
			PlayerID:  c.PlayerID,
			Grid:      gridOf(c),
			Marked:    marked,
			HasBingo:  c.HasBingo,
			Pattern:   string(c.WinningPattern),
			EndReason: string(s.Reason),
			EndedAt:   s.EndedAt,
			ExpiresAt: retainUntil,
		})
	}
	return p.archive.Archive(ctx, docs)
}

func gridOf(c *engine.Card) [][]int {
	grid := make([][]int, engine.GridSize)
	for col := 0; col < engine.GridSize; col++ {
		grid[col] = make([]int, engine.GridSize)
		for row := 0; row < engine.GridSize; row++ {
			grid[col][row] = c.Columns[col][row]
		}
	}
	return grid
}

func sessionRecord(s *engine.Session) models.SessionRecord {
	r := models.SessionRecord{
		ID:          s.ID,
		RoomID:      s.RoomID,
		Status:      string(s.Status),
		Phase:       string(s.Phase),
		PlayerCount: s.PlayerCount(),
		PrizePool:   s.Config.PrizePool,
		TotalCalls:  s.Stats.TotalCalls,
	}
	if s.Reason != "" {
		r.EndReason = sql.NullString{String: string(s.Reason), Valid: true}
	}
	if w := s.Winner; w != nil {
		r.WinnerID = sql.NullString{String: w.PlayerID, Valid: true}
		r.WinPattern = sql.NullString{String: string(w.Pattern), Valid: true}
		r.WinPrize = w.Prize
	}
	if !s.StartedAt.IsZero() {
		r.StartedAt = sql.NullTime{Time: s.StartedAt, Valid: true}
	}
	if !s.EndedAt.IsZero() {
		r.EndedAt = sql.NullTime{Time: s.EndedAt, Valid: true}
	}
	return r
}
