package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/natneal/bingo-live/internal/comm"
)

type fakeStore struct {
	mu         sync.Mutex
	sessions   int
	cards      int
	archived   int
	winnerCard string
	winPattern Pattern
}

func (f *fakeStore) SaveSession(ctx context.Context, s *Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions++
	return nil
}

func (f *fakeStore) SaveCards(ctx context.Context, cards []*Card) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cards += len(cards)
	return nil
}

func (f *fakeStore) MarkWinningCard(ctx context.Context, cardID string, pattern Pattern) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.winnerCard = cardID
	f.winPattern = pattern
	return nil
}

func (f *fakeStore) ArchiveSession(ctx context.Context, s *Session, retainUntil time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.archived++
	return nil
}

type fakeLedger struct {
	mu      sync.Mutex
	balance map[string]int64
	credits map[string]int64
}

func newFakeLedger(balances map[string]int64) *fakeLedger {
	return &fakeLedger{balance: balances, credits: make(map[string]int64)}
}

func (f *fakeLedger) DebitEntryFee(ctx context.Context, playerID, sessionID string, amount int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.balance[playerID] < amount {
		return ErrInsufficientBalance
	}
	f.balance[playerID] -= amount
	return nil
}

func (f *fakeLedger) CreditPrize(ctx context.Context, playerID, sessionID string, amount int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.balance[playerID] += amount
	f.credits[playerID] += amount
	return nil
}

func (f *fakeLedger) balanceOf(playerID string) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.balance[playerID]
}

func (f *fakeLedger) creditOf(playerID string) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.credits[playerID]
}

type fakeDirectory struct {
	mu      sync.Mutex
	current map[string]string
	wins    map[string]int
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{current: make(map[string]string), wins: make(map[string]int)}
}

func (f *fakeDirectory) SetCurrentSession(ctx context.Context, playerID, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current[playerID] = sessionID
	return nil
}

func (f *fakeDirectory) ClearCurrentSession(ctx context.Context, playerIDs []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range playerIDs {
		delete(f.current, id)
	}
	return nil
}

func (f *fakeDirectory) RecordResult(ctx context.Context, winnerID string, playerIDs []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.wins[winnerID]++
	return nil
}

func (f *fakeDirectory) currentOf(playerID string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.current[playerID]
	return id, ok
}

type fakeNotifier struct {
	mu     sync.Mutex
	joined []comm.PlayerJoined
	left   []comm.PlayerLeft
	starts []comm.GameStart
	called []comm.NumberCalled
	ends   []comm.GameEnd
}

func (f *fakeNotifier) PlayerJoined(ev comm.PlayerJoined) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.joined = append(f.joined, ev)
}

func (f *fakeNotifier) PlayerLeft(ev comm.PlayerLeft) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.left = append(f.left, ev)
}

func (f *fakeNotifier) GameStart(ev comm.GameStart) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts = append(f.starts, ev)
}

func (f *fakeNotifier) NumberCalled(ev comm.NumberCalled) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.called = append(f.called, ev)
}

func (f *fakeNotifier) GameEnd(ev comm.GameEnd) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ends = append(f.ends, ev)
}

func (f *fakeNotifier) startCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.starts)
}

func (f *fakeNotifier) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.called)
}

func (f *fakeNotifier) endEvents() []comm.GameEnd {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]comm.GameEnd(nil), f.ends...)
}

type schedulerFixture struct {
	sc     *Scheduler
	store  *fakeStore
	ledger *fakeLedger
	dir    *fakeDirectory
	notify *fakeNotifier
}

func newFixture(cfg Config, balances map[string]int64) *schedulerFixture {
	f := &schedulerFixture{
		store:  &fakeStore{},
		ledger: newFakeLedger(balances),
		dir:    newFakeDirectory(),
		notify: &fakeNotifier{},
	}
	f.sc = NewScheduler(cfg, f.store, f.ledger, f.dir, f.notify)
	return f
}

func slowConfig() Config {
	cfg := DefaultConfig()
	cfg.DrawInterval = time.Minute
	cfg.AutoStartGrace = time.Minute
	cfg.SweepInterval = time.Minute
	return cfg
}

func TestSchedulerJoinSettlesFeeFirst(t *testing.T) {
	f := newFixture(slowConfig(), map[string]int64{"p1": 20, "p2": 3})
	ctx := context.Background()

	snap, err := f.sc.CreateSession(ctx, "room-1", SessionConfig{
		MaxPlayers: 4, MinPlayers: 2, EntryFee: 5, Duration: time.Minute,
	})
	require.NoError(t, err)

	view, err := f.sc.Join(ctx, snap.SessionID, "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(15), f.ledger.balanceOf("p1"))
	assert.Equal(t, int64(5), view.Session.PrizePool)

	cur, ok := f.dir.currentOf("p1")
	require.True(t, ok)
	assert.Equal(t, snap.SessionID, cur)

	t.Run("duplicate join does not double-charge", func(t *testing.T) {
		_, err := f.sc.Join(ctx, snap.SessionID, "p1")
		assert.ErrorIs(t, err, ErrAlreadyJoined)
		assert.Equal(t, int64(15), f.ledger.balanceOf("p1"))
	})

	t.Run("insufficient balance leaves session untouched", func(t *testing.T) {
		_, err := f.sc.Join(ctx, snap.SessionID, "p2")
		assert.ErrorIs(t, err, ErrInsufficientBalance)
		assert.Equal(t, int64(3), f.ledger.balanceOf("p2"))

		_, err = f.sc.GetState(snap.SessionID, "p2")
		assert.ErrorIs(t, err, ErrNotParticipant)
	})

	t.Run("missing player id", func(t *testing.T) {
		_, err := f.sc.Join(ctx, snap.SessionID, "")
		assert.ErrorIs(t, err, ErrMissingPlayer)
	})

	t.Run("unknown session", func(t *testing.T) {
		_, err := f.sc.Join(ctx, "nope", "p1")
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})
}

func TestSchedulerOneLiveSessionPerRoom(t *testing.T) {
	f := newFixture(slowConfig(), nil)
	ctx := context.Background()

	snap, err := f.sc.CreateSession(ctx, "room-1", SessionConfig{MaxPlayers: 4, MinPlayers: 1, Duration: time.Minute})
	require.NoError(t, err)

	_, err = f.sc.CreateSession(ctx, "room-1", SessionConfig{MaxPlayers: 4, MinPlayers: 1, Duration: time.Minute})
	assert.Error(t, err)

	id, ok := f.sc.SessionForRoom("room-1")
	require.True(t, ok)
	assert.Equal(t, snap.SessionID, id)
}

func TestSchedulerLastLeaveEndsSession(t *testing.T) {
	f := newFixture(slowConfig(), map[string]int64{"p1": 10})
	ctx := context.Background()

	snap, err := f.sc.CreateSession(ctx, "room-1", SessionConfig{MaxPlayers: 4, MinPlayers: 2, EntryFee: 2, Duration: time.Minute})
	require.NoError(t, err)
	_, err = f.sc.Join(ctx, snap.SessionID, "p1")
	require.NoError(t, err)

	require.NoError(t, f.sc.Leave(ctx, snap.SessionID, "p1"))

	ends := f.notify.endEvents()
	require.Len(t, ends, 1)
	assert.Equal(t, string(ReasonNoPlayers), ends[0].Reason)
	assert.Nil(t, ends[0].Winner)

	_, err = f.sc.Snapshot(snap.SessionID)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, ok := f.sc.SessionForRoom("room-1")
	assert.False(t, ok, "room slot released")

	_, ok = f.dir.currentOf("p1")
	assert.False(t, ok)
}

func TestSchedulerAutoStartLifecycle(t *testing.T) {
	cfg := slowConfig()
	cfg.AutoStartGrace = 20 * time.Millisecond
	cfg.DrawInterval = 10 * time.Millisecond
	f := newFixture(cfg, map[string]int64{"p1": 10, "p2": 10})
	ctx := context.Background()

	snap, err := f.sc.CreateSession(ctx, "room-1", SessionConfig{
		MaxPlayers: 4, MinPlayers: 2, Duration: time.Minute, AutoStart: true,
	})
	require.NoError(t, err)

	_, err = f.sc.Join(ctx, snap.SessionID, "p1")
	require.NoError(t, err)

	t.Run("below minimum nothing is scheduled", func(t *testing.T) {
		time.Sleep(50 * time.Millisecond)
		assert.Zero(t, f.notify.startCount())
	})

	_, err = f.sc.Join(ctx, snap.SessionID, "p2")
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return f.notify.startCount() == 1 },
		time.Second, 5*time.Millisecond, "game should auto-start after the grace window")
	assert.Eventually(t, func() bool { return f.notify.callCount() >= 3 },
		time.Second, 5*time.Millisecond, "numbers should be called on the draw interval")

	view, err := f.sc.GetState(snap.SessionID, "p1")
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, view.Session.Status)
	require.NotNil(t, view.Card)
	assert.NotEmpty(t, view.CardID)

	require.NoError(t, f.sc.EndSession(snap.SessionID, ReasonRoomClosed))

	ends := f.notify.endEvents()
	require.Len(t, ends, 1)
	assert.Equal(t, string(ReasonRoomClosed), ends[0].Reason)

	t.Run("end is delivered exactly once", func(t *testing.T) {
		assert.ErrorIs(t, f.sc.EndSession(snap.SessionID, ReasonTimeUp), ErrSessionNotFound)
		time.Sleep(50 * time.Millisecond)
		assert.Len(t, f.notify.endEvents(), 1)
	})
}

func TestSchedulerClaimWinsAndEnds(t *testing.T) {
	f := newFixture(slowConfig(), map[string]int64{"p1": 10, "p2": 10})
	ctx := context.Background()

	snap, err := f.sc.CreateSession(ctx, "room-1", SessionConfig{
		MaxPlayers: 4, MinPlayers: 1, EntryFee: 5, Duration: 10 * time.Minute,
	})
	require.NoError(t, err)
	_, err = f.sc.Join(ctx, snap.SessionID, "p1")
	require.NoError(t, err)
	_, err = f.sc.Join(ctx, snap.SessionID, "p2")
	require.NoError(t, err)

	f.sc.startSession(snap.SessionID)

	h, err := f.sc.handle(snap.SessionID)
	require.NoError(t, err)
	for i := 0; i < MaxNumber; i++ {
		f.sc.drawOnce(h)
	}

	view, err := f.sc.GetState(snap.SessionID, "p1")
	require.NoError(t, err)
	require.NotNil(t, view.Card)

	var nums []int
	for row := 0; row < GridSize; row++ {
		for col := 0; col < GridSize; col++ {
			cell := view.Card[row][col]
			if cell.Free {
				continue
			}
			nums = append(nums, cell.Number)
			require.NoError(t, f.sc.MarkNumber(ctx, snap.SessionID, "p1", cell.Number))
		}
	}

	result, err := f.sc.Claim(ctx, snap.SessionID, "p1", PatternFullHouse, nums)
	require.NoError(t, err)
	assert.Equal(t, PatternFullHouse, result.Pattern)
	assert.Greater(t, result.Prize, int64(0))
	assert.Equal(t, result.Prize, f.ledger.creditOf("p1"))

	f.dir.mu.Lock()
	assert.Equal(t, 1, f.dir.wins["p1"])
	f.dir.mu.Unlock()

	ends := f.notify.endEvents()
	require.Len(t, ends, 1)
	assert.Equal(t, string(ReasonBingo), ends[0].Reason)
	require.NotNil(t, ends[0].Winner)
	assert.Equal(t, "p1", ends[0].Winner.PlayerID)
	assert.Equal(t, MaxNumber, ends[0].TotalDraws)

	f.store.mu.Lock()
	assert.Equal(t, 1, f.store.archived)
	assert.Equal(t, 2, f.store.cards)
	assert.Equal(t, view.CardID, f.store.winnerCard)
	assert.Equal(t, PatternFullHouse, f.store.winPattern)
	f.store.mu.Unlock()

	t.Run("losing claim after the win is rejected as already claimed", func(t *testing.T) {
		_, err := f.sc.Claim(ctx, snap.SessionID, "p2", PatternSingleLine, nums)
		assert.ErrorIs(t, err, ErrAlreadyClaimed)
	})

	t.Run("claims against an unknown session still report not found", func(t *testing.T) {
		_, err := f.sc.Claim(ctx, "nope", "p2", PatternSingleLine, nums)
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})
}

func TestSchedulerSweepAbandonsIdleSessions(t *testing.T) {
	cfg := slowConfig()
	cfg.StalenessThreshold = 30 * time.Millisecond
	cfg.SweepInterval = 10 * time.Millisecond
	f := newFixture(cfg, map[string]int64{"p1": 10})
	ctx := context.Background()

	f.sc.Start()
	defer f.sc.Shutdown()

	snap, err := f.sc.CreateSession(ctx, "room-1", SessionConfig{MaxPlayers: 4, MinPlayers: 2, Duration: time.Minute})
	require.NoError(t, err)
	_, err = f.sc.Join(ctx, snap.SessionID, "p1")
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		ends := f.notify.endEvents()
		return len(ends) == 1 && ends[0].Reason == string(ReasonAbandoned)
	}, time.Second, 5*time.Millisecond, "idle session should be abandoned by the sweep")
}

func TestSchedulerShutdownClosesEverything(t *testing.T) {
	f := newFixture(slowConfig(), map[string]int64{"p1": 10, "p2": 10})
	ctx := context.Background()

	a, err := f.sc.CreateSession(ctx, "room-a", SessionConfig{MaxPlayers: 4, MinPlayers: 2, Duration: time.Minute})
	require.NoError(t, err)
	b, err := f.sc.CreateSession(ctx, "room-b", SessionConfig{MaxPlayers: 4, MinPlayers: 2, Duration: time.Minute})
	require.NoError(t, err)
	_, err = f.sc.Join(ctx, a.SessionID, "p1")
	require.NoError(t, err)
	_, err = f.sc.Join(ctx, b.SessionID, "p2")
	require.NoError(t, err)

	f.sc.Start()
	f.sc.Shutdown()

	ends := f.notify.endEvents()
	require.Len(t, ends, 2)
	for _, ev := range ends {
		assert.Equal(t, string(ReasonRoomClosed), ev.Reason)
	}
	assert.Empty(t, f.sc.ActiveSessions())
}
