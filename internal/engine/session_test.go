package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testPrizes = PrizeConfig{BasePrize: 10, SpeedBonusCeiling: 10, FullHouseBonus: 50}

func newTestSession(cfg SessionConfig) *Session {
	return NewSession("s1", "room-1", cfg, testPrizes, 42)
}

func TestSessionJoinRules(t *testing.T) {
	s := newTestSession(SessionConfig{MaxPlayers: 2, MinPlayers: 2, Duration: time.Minute})
	now := time.Now()

	require.NoError(t, s.Join("p1", now))
	assert.Equal(t, 1, s.PlayerCount())

	t.Run("duplicate join", func(t *testing.T) {
		assert.ErrorIs(t, s.Join("p1", now), ErrAlreadyJoined)
	})

	t.Run("session full", func(t *testing.T) {
		require.NoError(t, s.Join("p2", now))
		assert.ErrorIs(t, s.Join("p3", now), ErrSessionFull)
	})

	t.Run("no joins after start", func(t *testing.T) {
		require.NoError(t, s.Start(now))
		assert.ErrorIs(t, s.Join("p4", now), ErrAlreadyStarted)
	})
}

func TestSessionReadyAndStart(t *testing.T) {
	s := newTestSession(SessionConfig{MaxPlayers: 4, MinPlayers: 2, Duration: time.Minute})
	now := time.Now()
	require.NoError(t, s.Join("p1", now))

	t.Run("not enough players", func(t *testing.T) {
		assert.ErrorIs(t, s.MarkStarting(now), ErrNotEnoughPlayers)
		assert.Equal(t, StatusWaiting, s.Status)
	})

	require.NoError(t, s.Join("p2", now))

	t.Run("all ready", func(t *testing.T) {
		assert.False(t, s.AllReady())
		require.NoError(t, s.SetReady("p1", true, now))
		require.NoError(t, s.SetReady("p2", true, now))
		assert.True(t, s.AllReady())
	})

	t.Run("ready for unknown player", func(t *testing.T) {
		assert.ErrorIs(t, s.SetReady("ghost", true, now), ErrNotParticipant)
	})

	t.Run("start deals one card per player", func(t *testing.T) {
		require.NoError(t, s.MarkStarting(now))
		assert.Equal(t, StatusStarting, s.Status)
		require.NoError(t, s.Start(now))
		assert.Equal(t, StatusInProgress, s.Status)
		assert.Equal(t, PhasePlaying, s.Phase)
		for _, p := range s.Participants {
			require.NotNil(t, p.Card)
			assert.Equal(t, p.PlayerID, p.Card.PlayerID)
			assert.Equal(t, s.ID, p.Card.SessionID)
		}
		assert.Equal(t, now.Add(time.Minute), s.Deadline())
	})

	t.Run("double start", func(t *testing.T) {
		assert.ErrorIs(t, s.Start(now), ErrAlreadyStarted)
	})
}

func TestSessionLeave(t *testing.T) {
	t.Run("waiting participant is removed", func(t *testing.T) {
		s := newTestSession(SessionConfig{MaxPlayers: 4, MinPlayers: 1, Duration: time.Minute})
		now := time.Now()
		require.NoError(t, s.Join("p1", now))
		require.NoError(t, s.Join("p2", now))

		removed, err := s.Leave("p1", now)
		require.NoError(t, err)
		assert.True(t, removed)
		assert.Equal(t, 1, s.PlayerCount())
		assert.Nil(t, s.Participant("p1"))
	})

	t.Run("in-progress participant stays on record", func(t *testing.T) {
		s := newTestSession(SessionConfig{MaxPlayers: 4, MinPlayers: 1, Duration: time.Minute})
		now := time.Now()
		require.NoError(t, s.Join("p1", now))
		require.NoError(t, s.Start(now))

		removed, err := s.Leave("p1", now)
		require.NoError(t, err)
		assert.False(t, removed)
		require.NotNil(t, s.Participant("p1"))
		assert.True(t, s.Participant("p1").Disconnected)
	})

	t.Run("unknown player", func(t *testing.T) {
		s := newTestSession(SessionConfig{MaxPlayers: 4, MinPlayers: 1, Duration: time.Minute})
		_, err := s.Leave("ghost", time.Now())
		assert.ErrorIs(t, err, ErrNotParticipant)
	})
}

func TestSessionMarkNumber(t *testing.T) {
	s := newTestSession(SessionConfig{MaxPlayers: 4, MinPlayers: 1, Duration: time.Minute})
	now := time.Now()
	require.NoError(t, s.Join("p1", now))
	require.NoError(t, s.Start(now))

	d, err := s.Draw(now)
	require.NoError(t, err)

	t.Run("uncalled number rejected", func(t *testing.T) {
		uncalled := d.Number%MaxNumber + 1
		err := s.MarkNumber("p1", uncalled, now)
		assert.Error(t, err)
	})

	t.Run("called number accepted", func(t *testing.T) {
		assert.NoError(t, s.MarkNumber("p1", d.Number, now))
	})

	t.Run("non participant rejected", func(t *testing.T) {
		assert.ErrorIs(t, s.MarkNumber("ghost", d.Number, now), ErrNotParticipant)
	})
}

// cardNumbers collects every real number on a card.
func cardNumbers(c *Card) []int {
	var nums []int
	for col := 0; col < GridSize; col++ {
		for row := 0; row < GridSize; row++ {
			if n := c.Columns[col][row]; n != FreeNumber {
				nums = append(nums, n)
			}
		}
	}
	return nums
}

func TestSessionClaimFullGame(t *testing.T) {
	s := newTestSession(SessionConfig{MaxPlayers: 4, MinPlayers: 1, Duration: 10 * time.Minute})
	start := time.Now()
	require.NoError(t, s.Join("p1", start))
	require.NoError(t, s.Start(start))

	// call every number so any card is fully coverable
	for i := 0; i < MaxNumber; i++ {
		_, err := s.Draw(start.Add(time.Duration(i) * time.Millisecond))
		require.NoError(t, err)
	}
	assert.Equal(t, MaxNumber, s.Stats.TotalCalls)

	card := s.Participant("p1").Card
	nums := cardNumbers(card)
	for _, n := range nums {
		require.NoError(t, s.MarkNumber("p1", n, start))
	}

	t.Run("claim before completion fails cleanly", func(t *testing.T) {
		_, err := s.Claim("p1", PatternFourCorners, []int{999}, start)
		assert.ErrorIs(t, err, ErrInvalidClaim)
		assert.Nil(t, s.Winner)
	})

	claimAt := start.Add(12 * time.Second)
	w, err := s.Claim("p1", PatternFullHouse, nums, claimAt)
	require.NoError(t, err)
	assert.Equal(t, "p1", w.PlayerID)
	assert.Equal(t, PatternFullHouse, w.Pattern)
	// base 10 + speed bonus (10 - 12/5) + full house 50
	assert.Equal(t, int64(68), w.Prize)
	assert.Equal(t, 12, s.Stats.FastestBingo)
	assert.True(t, card.HasBingo)

	t.Run("second claim rejected regardless of validity", func(t *testing.T) {
		_, err := s.Claim("p1", PatternSingleLine, nums, claimAt)
		assert.ErrorIs(t, err, ErrAlreadyClaimed)
	})
}

func TestSessionFourCornersScenario(t *testing.T) {
	s := newTestSession(SessionConfig{MaxPlayers: 50, MinPlayers: 2, Duration: 30 * time.Second, AutoStart: true})
	start := time.Now()
	require.NoError(t, s.Join("alice", start))
	require.NoError(t, s.Join("bob", start))
	require.NoError(t, s.Start(start))

	// call until every corner of alice's card has been drawn
	card := s.Participant("alice").Card
	corners := []int{
		card.Columns[0][0], card.Columns[4][0],
		card.Columns[0][4], card.Columns[4][4],
	}
	called := make(map[int]bool)
	for {
		d, err := s.Draw(start)
		require.NoError(t, err)
		called[d.Number] = true
		if called[corners[0]] && called[corners[1]] && called[corners[2]] && called[corners[3]] {
			break
		}
	}
	for _, n := range corners {
		require.NoError(t, s.MarkNumber("alice", n, start))
	}

	w, err := s.Claim("alice", PatternFourCorners, corners, start.Add(3*time.Second))
	require.NoError(t, err)
	assert.Equal(t, "alice", w.PlayerID)
	assert.Equal(t, PatternFourCorners, w.Pattern)

	t.Run("second claim loses even when independently valid", func(t *testing.T) {
		_, err := s.Claim("bob", PatternFourCorners, corners, start.Add(4*time.Second))
		assert.ErrorIs(t, err, ErrAlreadyClaimed)
	})

	assert.True(t, s.End(ReasonBingo, start.Add(5*time.Second)))
	assert.Equal(t, StatusFinished, s.Status)
	assert.Equal(t, ReasonBingo, s.Reason)
}

func TestSessionEnd(t *testing.T) {
	cases := []struct {
		reason EndReason
		status Status
	}{
		{ReasonBingo, StatusFinished},
		{ReasonTimeUp, StatusFinished},
		{ReasonAllNumbersCalled, StatusFinished},
		{ReasonNoPlayers, StatusCancelled},
		{ReasonAbandoned, StatusCancelled},
		{ReasonRoomClosed, StatusCancelled},
	}
	for _, c := range cases {
		t.Run(string(c.reason), func(t *testing.T) {
			s := newTestSession(SessionConfig{MaxPlayers: 4, MinPlayers: 1, Duration: time.Minute})
			now := time.Now()
			assert.True(t, s.End(c.reason, now))
			assert.Equal(t, c.status, s.Status)
			assert.Equal(t, PhaseResults, s.Phase)
			assert.Equal(t, c.reason, s.Reason)
		})
	}

	t.Run("idempotent, first reason sticks", func(t *testing.T) {
		s := newTestSession(SessionConfig{MaxPlayers: 4, MinPlayers: 1, Duration: time.Minute})
		now := time.Now()
		require.True(t, s.End(ReasonTimeUp, now))
		assert.False(t, s.End(ReasonBingo, now.Add(time.Second)))
		assert.Equal(t, ReasonTimeUp, s.Reason)
		assert.Equal(t, now, s.EndedAt)
	})
}
