package board

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/natneal/bingo-live/internal/models"
)

func wonSession(winner string, prize int64, players int) *models.SessionRecord {
	return &models.SessionRecord{
		WinnerID:    sql.NullString{String: winner, Valid: true},
		WinPrize:    prize,
		PlayerCount: players,
	}
}

func TestBuildRankings(t *testing.T) {
	sessions := []*models.SessionRecord{
		wonSession("alice", 20, 4),
		wonSession("alice", 30, 2),
		wonSession("bob", 100, 5),
		{PlayerCount: 3}, // cancelled, no winner
	}

	entries := BuildRankings(sessions)
	require.Len(t, entries, 2)

	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, "alice", entries[0].PlayerID)
	assert.Equal(t, 2, entries[0].GamesWon)
	assert.Equal(t, int64(50), entries[0].TotalWinnings)

	assert.Equal(t, 2, entries[1].Rank)
	assert.Equal(t, "bob", entries[1].PlayerID)
	assert.Equal(t, int64(100), entries[1].TotalWinnings)

	t.Run("equal wins ranked by winnings", func(t *testing.T) {
		entries := BuildRankings([]*models.SessionRecord{
			wonSession("carol", 10, 2),
			wonSession("dave", 60, 2),
		})
		require.Len(t, entries, 2)
		assert.Equal(t, "dave", entries[0].PlayerID)
		assert.Equal(t, "carol", entries[1].PlayerID)
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, BuildRankings(nil))
	})
}

func TestPeriodStart(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, now.AddDate(0, 0, -1), PeriodStart(PeriodDaily, now))
	assert.Equal(t, now.AddDate(0, 0, -7), PeriodStart(PeriodWeekly, now))
	assert.True(t, PeriodStart(PeriodAllTime, now).IsZero())
}
