package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/natneal/bingo-live/internal/models"
)

type RoomStore struct {
	db *pgxpool.Pool
}

func NewRoomStore(db *pgxpool.Pool) *RoomStore {
	return &RoomStore{db: db}
}

func (s *RoomStore) GetByID(ctx context.Context, id string) (*models.Room, error) {
	query := `
		SELECT id, name, max_players, min_players, entry_fee, duration, auto_start, status, created_at, updated_at
		FROM rooms
		WHERE id = $1
	`

	r := &models.Room{}
	err := s.db.QueryRow(ctx, query, id).Scan(
		&r.ID, &r.Name, &r.MaxPlayers, &r.MinPlayers, &r.EntryFee,
		&r.Duration, &r.AutoStart, &r.Status, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get room by id: %w", err)
	}
	return r, nil
}

func (s *RoomStore) ListOpen(ctx context.Context) ([]*models.Room, error) {
	query := `
		SELECT id, name, max_players, min_players, entry_fee, duration, auto_start, status, created_at, updated_at
		FROM rooms
		WHERE status = 'open'
		ORDER BY name
	`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list open rooms: %w", err)
	}
	defer rows.Close()

	var out []*models.Room
	for rows.Next() {
		r := &models.Room{}
		if err := rows.Scan(
			&r.ID, &r.Name, &r.MaxPlayers, &r.MinPlayers, &r.EntryFee,
			&r.Duration, &r.AutoStart, &r.Status, &r.CreatedAt, &r.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan room row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return out, nil
}
