package board

import (
	"context"
	"errors"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/natneal/bingo-live/internal/models"
)

const leaderboardCollection = "leaderboards"

type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodAllTime Period = "alltime"
)

// Entry is one ranked row in a leaderboard snapshot.
type Entry struct {
	Rank          int     `bson:"rank" json:"rank"`
	PlayerID      string  `bson:"player_id" json:"player_id"`
	GamesWon      int     `bson:"games_won" json:"games_won"`
	GamesPlayed   int     `bson:"games_played" json:"games_played"`
	TotalWinnings int64   `bson:"total_winnings" json:"total_winnings"`
	WinRate       float64 `bson:"win_rate" json:"win_rate"`
}

// Snapshot is one aggregated leaderboard for a period.
type Snapshot struct {
	Period    Period    `bson:"period" json:"period"`
	StartDate time.Time `bson:"start_date" json:"start_date"`
	Rankings  []Entry   `bson:"rankings" json:"rankings"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// PeriodStart returns the aggregation window cutoff for a period.
func PeriodStart(p Period, now time.Time) time.Time {
	switch p {
	case PeriodDaily:
		return now.AddDate(0, 0, -1)
	case PeriodWeekly:
		return now.AddDate(0, 0, -7)
	default:
		return time.Time{}
	}
}

// BuildRankings folds finished session records into ranked entries:
// wins first, then total winnings.
func BuildRankings(sessions []*models.SessionRecord) []Entry {
	type acc struct {
		won      int
		played   int
		winnings int64
	}
	byPlayer := make(map[string]*acc)

	for _, s := range sessions {
		if !s.WinnerID.Valid {
			continue
		}
		id := s.WinnerID.String
		a := byPlayer[id]
		if a == nil {
			a = &acc{}
			byPlayer[id] = a
		}
		a.won++
		a.played += s.PlayerCount
		a.winnings += s.WinPrize
	}

	entries := make([]Entry, 0, len(byPlayer))
	for id, a := range byPlayer {
		winRate := 0.0
		if a.played > 0 {
			winRate = float64(a.won) / float64(a.played)
		}
		entries = append(entries, Entry{
			PlayerID:      id,
			GamesWon:      a.won,
			GamesPlayed:   a.played,
			TotalWinnings: a.winnings,
			WinRate:       winRate,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].GamesWon != entries[j].GamesWon {
			return entries[i].GamesWon > entries[j].GamesWon
		}
		return entries[i].TotalWinnings > entries[j].TotalWinnings
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

// LeaderboardStore persists snapshots in Mongo, one live document per
// period.
type LeaderboardStore struct {
	col *mongo.Collection
}

func NewLeaderboardStore(db *mongo.Database) *LeaderboardStore {
	return &LeaderboardStore{col: db.Collection(leaderboardCollection)}
}

// SaveSnapshot replaces the current document for the snapshot's period.
func (s *LeaderboardStore) SaveSnapshot(ctx context.Context, snap Snapshot) error {
	filter := bson.M{"period": snap.Period}
	opts := options.Replace().SetUpsert(true)
	_, err := s.col.ReplaceOne(ctx, filter, snap, opts)
	return err
}

// Latest returns the current snapshot for a period, or nil when none has
// been aggregated yet.
func (s *LeaderboardStore) Latest(ctx context.Context, period Period) (*Snapshot, error) {
	var snap Snapshot
	err := s.col.FindOne(ctx, bson.M{"period": period}).Decode(&snap)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &snap, nil
}
