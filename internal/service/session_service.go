package service

import (
	"context"
	"time"

	"github.com/natneal/bingo-live/internal/models"
	"github.com/natneal/bingo-live/internal/store"
)

// SessionService reads durable session records for the query surface and
// the leaderboard aggregation.
type SessionService struct {
	sessionStore *store.SessionStore
}

func NewSessionService(sessionStore *store.SessionStore) *SessionService {
	return &SessionService{sessionStore: sessionStore}
}

func (s *SessionService) GetSession(ctx context.Context, id string) (*models.SessionRecord, error) {
	return s.sessionStore.GetByID(ctx, id)
}

func (s *SessionService) ListFinishedSince(ctx context.Context, since time.Time) ([]*models.SessionRecord, error) {
	return s.sessionStore.ListFinishedSince(ctx, since)
}
