package service

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/natneal/bingo-live/internal/models"
	"github.com/natneal/bingo-live/internal/store"
)

// PlayerService is the player directory: profile upkeep plus the
// current-session reference and per-player game totals the engine needs.
type PlayerService struct {
	playerStore *store.PlayerStore
}

func NewPlayerService(playerStore *store.PlayerStore) *PlayerService {
	return &PlayerService{playerStore: playerStore}
}

// GetOrCreatePlayer checks if a player exists and creates them if not.
func (s *PlayerService) GetOrCreatePlayer(ctx context.Context, info models.Player) (*models.Player, error) {
	existing, err := s.playerStore.GetByID(ctx, info.PlayerID)
	if err != nil {
		return nil, fmt.Errorf("lookup player: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	log.Infof("player %s not found, creating", info.PlayerID)
	info.Status = "ACTIVE"
	if err := s.playerStore.Create(ctx, info); err != nil {
		return nil, fmt.Errorf("failed to create player: %w", err)
	}
	return &info, nil
}

func (s *PlayerService) GetPlayer(ctx context.Context, playerID string) (*models.Player, error) {
	return s.playerStore.GetByID(ctx, playerID)
}

// engine.Directory implementation.

func (s *PlayerService) SetCurrentSession(ctx context.Context, playerID, sessionID string) error {
	return s.playerStore.SetCurrentSession(ctx, playerID, sessionID)
}

func (s *PlayerService) ClearCurrentSession(ctx context.Context, playerIDs []string) error {
	return s.playerStore.ClearCurrentSession(ctx, playerIDs)
}

func (s *PlayerService) RecordResult(ctx context.Context, winnerID string, playerIDs []string) error {
	return s.playerStore.RecordResult(ctx, winnerID, playerIDs)
}
