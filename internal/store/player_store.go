package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/natneal/bingo-live/internal/models"
)

type PlayerStore struct {
	db *pgxpool.Pool
}

func NewPlayerStore(db *pgxpool.Pool) *PlayerStore {
	return &PlayerStore{db: db}
}

func (s *PlayerStore) GetByID(ctx context.Context, playerID string) (*models.Player, error) {
	query := `
		SELECT player_id, name, avatar, status, current_session, games_played, games_won, created_at, updated_at
		FROM players
		WHERE player_id = $1
	`

	p := &models.Player{}
	err := s.db.QueryRow(ctx, query, playerID).Scan(
		&p.PlayerID,
		&p.Name,
		&p.Avatar,
		&p.Status,
		&p.CurrentSession,
		&p.GamesPlayed,
		&p.GamesWon,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get player by id: %w", err)
	}
	return p, nil
}

func (s *PlayerStore) Create(ctx context.Context, p models.Player) error {
	query := `
		INSERT INTO players (player_id, name, avatar, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())
	`
	if _, err := s.db.Exec(ctx, query, p.PlayerID, p.Name, p.Avatar, p.Status); err != nil {
		return fmt.Errorf("failed to create player: %w", err)
	}
	return nil
}

func (s *PlayerStore) SetCurrentSession(ctx context.Context, playerID, sessionID string) error {
	query := `
		UPDATE players SET current_session = $2, updated_at = now()
		WHERE player_id = $1
	`
	if _, err := s.db.Exec(ctx, query, playerID, sessionID); err != nil {
		return fmt.Errorf("failed to set current session: %w", err)
	}
	return nil
}

func (s *PlayerStore) ClearCurrentSession(ctx context.Context, playerIDs []string) error {
	query := `
		UPDATE players SET current_session = NULL, updated_at = now()
		WHERE player_id = ANY($1)
	`
	if _, err := s.db.Exec(ctx, query, playerIDs); err != nil {
		return fmt.Errorf("failed to clear current session: %w", err)
	}
	return nil
}

// RecordResult bumps games_played for every participant and games_won for
// the winner.
func (s *PlayerStore) RecordResult(ctx context.Context, winnerID string, playerIDs []string) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		UPDATE players SET games_played = games_played + 1, updated_at = now()
		WHERE player_id = ANY($1)
	`, playerIDs); err != nil {
		return fmt.Errorf("bump games_played: %w", err)
	}

	if winnerID != "" {
		if _, err := tx.Exec(ctx, `
			UPDATE players SET games_won = games_won + 1, updated_at = now()
			WHERE player_id = $1
		`, winnerID); err != nil {
			return fmt.Errorf("bump games_won: %w", err)
		}
	}

	return tx.Commit(ctx)
}
