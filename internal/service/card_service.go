package service

import (
	"context"

	"github.com/natneal/bingo-live/internal/models"
	"github.com/natneal/bingo-live/internal/store"
)

type CardService struct {
	cardStore *store.CardStore
}

func NewCardService(cardStore *store.CardStore) *CardService {
	return &CardService{cardStore: cardStore}
}

func (s *CardService) GetCardByID(ctx context.Context, id string) (*models.CardRecord, error) {
	return s.cardStore.GetByID(ctx, id)
}

func (s *CardService) GetPlayerCard(ctx context.Context, sessionID, playerID string) (*models.CardRecord, error) {
	return s.cardStore.GetBySessionAndPlayer(ctx, sessionID, playerID)
}
