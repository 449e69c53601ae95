package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/natneal/bingo-live/internal/models"
)

type CardStore struct {
	db *pgxpool.Pool
}

func NewCardStore(db *pgxpool.Pool) *CardStore {
	return &CardStore{db: db}
}

// InsertBatch writes the cards dealt at game start in one transaction.
func (s *CardStore) InsertBatch(ctx context.Context, cards []models.CardRecord) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO cards (id, session_id, player_id, grid, has_bingo, pattern, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
	`
	for _, c := range cards {
		if _, err := tx.Exec(ctx, query, c.ID, c.SessionID, c.PlayerID, c.Grid, c.HasBingo, c.Pattern); err != nil {
			return fmt.Errorf("insert card %s: %w", c.ID, err)
		}
	}
	return tx.Commit(ctx)
}

func (s *CardStore) GetByID(ctx context.Context, id string) (*models.CardRecord, error) {
	query := `
		SELECT id, session_id, player_id, grid, has_bingo, pattern, created_at, updated_at
		FROM cards
		WHERE id = $1
		LIMIT 1
	`

	var c models.CardRecord
	err := s.db.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.SessionID, &c.PlayerID, &c.Grid, &c.HasBingo, &c.Pattern, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get card by id: %w", err)
	}
	return &c, nil
}

func (s *CardStore) GetBySessionAndPlayer(ctx context.Context, sessionID, playerID string) (*models.CardRecord, error) {
	query := `
		SELECT id, session_id, player_id, grid, has_bingo, pattern, created_at, updated_at
		FROM cards
		WHERE session_id = $1 AND player_id = $2
		LIMIT 1
	`

	var c models.CardRecord
	err := s.db.QueryRow(ctx, query, sessionID, playerID).Scan(
		&c.ID, &c.SessionID, &c.PlayerID, &c.Grid, &c.HasBingo, &c.Pattern, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get card for session %s player %s: %w", sessionID, playerID, err)
	}
	return &c, nil
}

// MarkWinner stamps the winning card after a claim is accepted.
func (s *CardStore) MarkWinner(ctx context.Context, id, pattern string) error {
	query := `
		UPDATE cards SET has_bingo = true, pattern = $2, updated_at = now()
		WHERE id = $1
	`
	if _, err := s.db.Exec(ctx, query, id, pattern); err != nil {
		return fmt.Errorf("failed to mark winning card: %w", err)
	}
	return nil
}
