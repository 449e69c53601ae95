package service

import (
	"context"
	"time"

	"github.com/natneal/bingo-live/internal/engine"
	"github.com/natneal/bingo-live/internal/models"
	"github.com/natneal/bingo-live/internal/store"
)

type RoomService struct {
	roomStore *store.RoomStore
}

func NewRoomService(roomStore *store.RoomStore) *RoomService {
	return &RoomService{roomStore: roomStore}
}

func (s *RoomService) GetRoom(ctx context.Context, roomID string) (*models.Room, error) {
	return s.roomStore.GetByID(ctx, roomID)
}

func (s *RoomService) ListOpenRooms(ctx context.Context) ([]*models.Room, error) {
	return s.roomStore.ListOpen(ctx)
}

// SessionConfigFor translates room configuration into the engine's terms.
func SessionConfigFor(r *models.Room) engine.SessionConfig {
	return engine.SessionConfig{
		Duration:   time.Duration(r.Duration) * time.Second,
		MaxPlayers: r.MaxPlayers,
		MinPlayers: r.MinPlayers,
		EntryFee:   r.EntryFee,
		AutoStart:  r.AutoStart,
	}
}
