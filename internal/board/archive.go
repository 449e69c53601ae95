package board

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

const cardArchiveCollection = "expired_cards"

// ArchivedCard is a finished session's card, retained until the TTL index
// reaps it at expires_at.
type ArchivedCard struct {
	CardID    string    `bson:"card_id"`
	SessionID string    `bson:"session_id"`
	PlayerID  string    `bson:"player_id"`
	Grid      [][]int   `bson:"grid"`
	Marked    []int     `bson:"marked"`
	HasBingo  bool      `bson:"has_bingo"`
	Pattern   string    `bson:"pattern,omitempty"`
	EndReason string    `bson:"end_reason"`
	EndedAt   time.Time `bson:"ended_at"`
	ExpiresAt time.Time `bson:"expires_at"`
}

// CardArchive retires cards of finished sessions into Mongo with a
// retention window.
type CardArchive struct {
	col *mongo.Collection
}

func NewCardArchive(db *mongo.Database) *CardArchive {
	EnsureTTLIndex(db, cardArchiveCollection)
	return &CardArchive{col: db.Collection(cardArchiveCollection)}
}

func (a *CardArchive) Archive(ctx context.Context, cards []ArchivedCard) error {
	if len(cards) == 0 {
		return nil
	}
	docs := make([]interface{}, len(cards))
	for i, c := range cards {
		docs[i] = c
	}
	_, err := a.col.InsertMany(ctx, docs)
	return err
}
