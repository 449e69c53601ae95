package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/natneal/bingo-live/internal/models"
)

type SessionStore struct {
	db *pgxpool.Pool
}

func NewSessionStore(db *pgxpool.Pool) *SessionStore {
	return &SessionStore{db: db}
}

// Upsert writes the session row, inserting on first save.
func (s *SessionStore) Upsert(ctx context.Context, r models.SessionRecord) error {
	query := `
		INSERT INTO sessions
			(id, room_id, status, phase, end_reason, player_count, prize_pool,
			 winner_id, win_pattern, win_prize, total_calls, started_at, ended_at,
			 created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, now(), now())
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			phase = EXCLUDED.phase,
			end_reason = EXCLUDED.end_reason,
			player_count = EXCLUDED.player_count,
			prize_pool = EXCLUDED.prize_pool,
			winner_id = EXCLUDED.winner_id,
			win_pattern = EXCLUDED.win_pattern,
			win_prize = EXCLUDED.win_prize,
			total_calls = EXCLUDED.total_calls,
			started_at = EXCLUDED.started_at,
			ended_at = EXCLUDED.ended_at,
			updated_at = now()
	`
	_, err := s.db.Exec(ctx, query,
		r.ID, r.RoomID, r.Status, r.Phase, r.EndReason, r.PlayerCount, r.PrizePool,
		r.WinnerID, r.WinPattern, r.WinPrize, r.TotalCalls, r.StartedAt, r.EndedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert session: %w", err)
	}
	return nil
}

func (s *SessionStore) GetByID(ctx context.Context, id string) (*models.SessionRecord, error) {
	query := `
		SELECT id, room_id, status, phase, end_reason, player_count, prize_pool,
		       winner_id, win_pattern, win_prize, total_calls, started_at, ended_at,
		       created_at, updated_at
		FROM sessions
		WHERE id = $1
	`

	r := &models.SessionRecord{}
	err := s.db.QueryRow(ctx, query, id).Scan(
		&r.ID, &r.RoomID, &r.Status, &r.Phase, &r.EndReason, &r.PlayerCount, &r.PrizePool,
		&r.WinnerID, &r.WinPattern, &r.WinPrize, &r.TotalCalls, &r.StartedAt, &r.EndedAt,
		&r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get session by id: %w", err)
	}
	return r, nil
}

// ListFinishedSince returns finished sessions that ended on or after the
// cutoff; feeds the leaderboard aggregation.
func (s *SessionStore) ListFinishedSince(ctx context.Context, since time.Time) ([]*models.SessionRecord, error) {
	query := `
		SELECT id, room_id, status, phase, end_reason, player_count, prize_pool,
		       winner_id, win_pattern, win_prize, total_calls, started_at, ended_at,
		       created_at, updated_at
		FROM sessions
		WHERE status = 'finished' AND ended_at >= $1
		ORDER BY ended_at
	`

	rows, err := s.db.Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list finished sessions: %w", err)
	}
	defer rows.Close()

	var out []*models.SessionRecord
	for rows.Next() {
		r := &models.SessionRecord{}
		if err := rows.Scan(
			&r.ID, &r.RoomID, &r.Status, &r.Phase, &r.EndReason, &r.PlayerCount, &r.PrizePool,
			&r.WinnerID, &r.WinPattern, &r.WinPrize, &r.TotalCalls, &r.StartedAt, &r.EndedAt,
			&r.CreatedAt, &r.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan session row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return out, nil
}
