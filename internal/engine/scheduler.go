package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/natneal/bingo-live/internal/comm"
)

const collaboratorTimeout = 10 * time.Second

// handle owns one live session together with its timers. Every mutating
// operation against the session, timer callbacks included, runs under mu,
// so no two read-modify-write sequences for the same session id ever
// interleave. Handles for different sessions never share a lock.
type handle struct {
	mu sync.Mutex
	s  *Session

	startTimer    *time.Timer // auto-start grace delay
	durationTimer *time.Timer // single-shot game timeout
	drawStop      chan struct{}
}

// Scheduler manages the set of concurrently live sessions. The session map
// is the only cross-session shared state and is mutated solely on
// creation and termination.
type Scheduler struct {
	cfg     Config
	store   Store
	ledger  Ledger
	players Directory
	notify  Notifier

	mu       sync.RWMutex
	sessions map[string]*handle
	byRoom   map[string]string    // roomID -> live sessionID
	finished map[string]time.Time // sessionID that ended with a winner -> end time

	sweepStop chan struct{}
	sweepDone chan struct{}
}

func NewScheduler(cfg Config, store Store, ledger Ledger, players Directory, notify Notifier) *Scheduler {
	return &Scheduler{
		cfg:      cfg,
		store:    store,
		ledger:   ledger,
		players:  players,
		notify:   notify,
		sessions: make(map[string]*handle),
		byRoom:   make(map[string]string),
		finished: make(map[string]time.Time),
	}
}

// Start launches the staleness sweeper.
func (sc *Scheduler) Start() {
	sc.sweepStop = make(chan struct{})
	sc.sweepDone = make(chan struct{})
	go sc.sweep()
}

// Shutdown stops the sweeper and terminates every live session with
// reason room_closed.
func (sc *Scheduler) Shutdown() {
	if sc.sweepStop != nil {
		close(sc.sweepStop)
		<-sc.sweepDone
	}
	for _, h := range sc.handles() {
		h.mu.Lock()
		sc.endLocked(h, ReasonRoomClosed)
		h.mu.Unlock()
	}
}

func (sc *Scheduler) handles() []*handle {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	out := make([]*handle, 0, len(sc.sessions))
	for _, h := range sc.sessions {
		out = append(out, h)
	}
	return out
}

func (sc *Scheduler) handle(sessionID string) (*handle, error) {
	if sessionID == "" {
		return nil, ErrMissingSession
	}
	sc.mu.RLock()
	h, ok := sc.sessions[sessionID]
	sc.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return h, nil
}

// CreateSession registers a new waiting session for a room.
func (sc *Scheduler) CreateSession(ctx context.Context, roomID string, cfg SessionConfig) (Snapshot, error) {
	id := uuid.New().String()
	s := NewSession(id, roomID, cfg, sc.cfg.Prizes, time.Now().UnixNano())
	h := &handle{s: s}

	sc.mu.Lock()
	if live, ok := sc.byRoom[roomID]; ok {
		sc.mu.Unlock()
		return Snapshot{}, fmt.Errorf("room %s already has live session %s", roomID, live)
	}
	sc.sessions[id] = h
	if roomID != "" {
		sc.byRoom[roomID] = id
	}
	sc.mu.Unlock()

	if err := sc.store.SaveSession(ctx, s); err != nil {
		log.Errorf("save new session %s: %v", id, err)
	}
	log.Infof("session %s created for room %s", id, roomID)
	return s.Snapshot(time.Now()), nil
}

// SessionForRoom resolves the live session for a room, if any.
func (sc *Scheduler) SessionForRoom(roomID string) (string, bool) {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	id, ok := sc.byRoom[roomID]
	return id, ok
}

// Join admits a player. The entry fee is settled before any session
// mutation; an insufficient balance leaves the session untouched.
func (sc *Scheduler) Join(ctx context.Context, sessionID, playerID string) (StateView, error) {
	if playerID == "" {
		return StateView{}, ErrMissingPlayer
	}
	h, err := sc.handle(sessionID)
	if err != nil {
		return StateView{}, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	s := h.s

	if err := s.CanJoin(playerID); err != nil {
		return StateView{}, err
	}

	if fee := s.Config.EntryFee; fee > 0 {
		if err := sc.ledger.DebitEntryFee(ctx, playerID, s.ID, fee); err != nil {
			return StateView{}, err
		}
		s.Config.PrizePool += fee
	}

	now := time.Now()
	if err := s.Join(playerID, now); err != nil {
		return StateView{}, err
	}

	if err := sc.players.SetCurrentSession(ctx, playerID, s.ID); err != nil {
		log.Errorf("set current session for player %s: %v", playerID, err)
	}
	if err := sc.store.SaveSession(ctx, s); err != nil {
		log.Errorf("save session %s after join: %v", s.ID, err)
	}

	sc.notify.PlayerJoined(comm.PlayerJoined{
		PlayerID:    playerID,
		PlayerCount: s.PlayerCount(),
		SessionID:   s.ID,
	})

	if s.Config.AutoStart && s.CanStart() {
		sc.scheduleStartLocked(h)
	}

	return StateView{Session: s.Snapshot(now)}, nil
}

// Leave removes a waiting participant, or flags an in-progress one as
// disconnected. Dropping the last waiting player terminates the session
// with reason no_players.
func (sc *Scheduler) Leave(ctx context.Context, sessionID, playerID string) error {
	if playerID == "" {
		return ErrMissingPlayer
	}
	h, err := sc.handle(sessionID)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	s := h.s

	removed, err := s.Leave(playerID, time.Now())
	if err != nil {
		return err
	}

	if removed {
		if err := sc.players.ClearCurrentSession(ctx, []string{playerID}); err != nil {
			log.Errorf("clear current session for player %s: %v", playerID, err)
		}
	}

	sc.notify.PlayerLeft(comm.PlayerLeft{
		PlayerID:    playerID,
		PlayerCount: s.PlayerCount(),
		SessionID:   s.ID,
	})

	if removed && s.PlayerCount() == 0 {
		sc.endLocked(h, ReasonNoPlayers)
		return nil
	}

	if err := sc.store.SaveSession(ctx, s); err != nil {
		log.Errorf("save session %s after leave: %v", s.ID, err)
	}
	return nil
}

// SetReady flips a participant's ready flag; once everyone is ready and
// the minimum threshold holds, the start is scheduled.
func (sc *Scheduler) SetReady(ctx context.Context, sessionID, playerID string, ready bool) error {
	if playerID == "" {
		return ErrMissingPlayer
	}
	h, err := sc.handle(sessionID)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	s := h.s

	if err := s.SetReady(playerID, ready, time.Now()); err != nil {
		return err
	}
	if err := sc.store.SaveSession(ctx, s); err != nil {
		log.Errorf("save session %s after ready: %v", s.ID, err)
	}
	if s.AllReady() && s.CanStart() {
		sc.scheduleStartLocked(h)
	}
	return nil
}

// MarkNumber daubs an already-drawn number on the caller's card.
func (sc *Scheduler) MarkNumber(ctx context.Context, sessionID, playerID string, number int) error {
	if playerID == "" {
		return ErrMissingPlayer
	}
	h, err := sc.handle(sessionID)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	return h.s.MarkNumber(playerID, number, time.Now())
}

// Claim adjudicates a win attempt. First valid claim wins; the session
// finishes with reason bingo and the prize is credited through the ledger.
func (sc *Scheduler) Claim(ctx context.Context, sessionID, playerID string, pattern Pattern, numbers []int) (ClaimResult, error) {
	if playerID == "" {
		return ClaimResult{}, ErrMissingPlayer
	}
	h, err := sc.handle(sessionID)
	if err != nil {
		// a claim racing the winning one may arrive after the session was
		// released; the first winner stands, so it resolves as already
		// claimed rather than not found
		if errors.Is(err, ErrSessionNotFound) && sc.hadWinner(sessionID) {
			return ClaimResult{}, ErrAlreadyClaimed
		}
		return ClaimResult{}, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	s := h.s

	w, err := s.Claim(playerID, pattern, numbers, time.Now())
	if err != nil {
		return ClaimResult{}, err
	}

	if err := sc.ledger.CreditPrize(ctx, w.PlayerID, s.ID, w.Prize); err != nil {
		log.Errorf("credit prize for player %s in session %s: %v", w.PlayerID, s.ID, err)
	}
	if err := sc.players.RecordResult(ctx, w.PlayerID, playerIDs(s)); err != nil {
		log.Errorf("record result for session %s: %v", s.ID, err)
	}
	if err := sc.store.MarkWinningCard(ctx, w.CardID, w.Pattern); err != nil {
		log.Errorf("mark winning card %s for session %s: %v", w.CardID, s.ID, err)
	}

	log.Infof("bingo accepted: session %s player %s pattern %s prize %d", s.ID, w.PlayerID, w.Pattern, w.Prize)
	sc.endLocked(h, ReasonBingo)

	return ClaimResult{Prize: w.Prize, Pattern: w.Pattern}, nil
}

// GetState returns a session snapshot plus the caller's own card view,
// restricted to participants.
func (sc *Scheduler) GetState(sessionID, playerID string) (StateView, error) {
	if playerID == "" {
		return StateView{}, ErrMissingPlayer
	}
	h, err := sc.handle(sessionID)
	if err != nil {
		return StateView{}, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	s := h.s

	p := s.Participant(playerID)
	if p == nil {
		return StateView{}, ErrNotParticipant
	}

	view := StateView{Session: s.Snapshot(time.Now())}
	if p.Card != nil {
		grid := p.Card.Grid()
		view.Card = &grid
		view.CardID = p.Card.ID
	}
	return view, nil
}

// Snapshot returns the public view of one live session.
func (sc *Scheduler) Snapshot(sessionID string) (Snapshot, error) {
	h, err := sc.handle(sessionID)
	if err != nil {
		return Snapshot{}, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.s.Snapshot(time.Now()), nil
}

// EndSession terminates a session for an external reason (admin close).
func (sc *Scheduler) EndSession(sessionID string, reason EndReason) error {
	h, err := sc.handle(sessionID)
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	sc.endLocked(h, reason)
	return nil
}

// ActiveSessions snapshots every live session, for the query surface.
func (sc *Scheduler) ActiveSessions() []Snapshot {
	now := time.Now()
	var out []Snapshot
	for _, h := range sc.handles() {
		h.mu.Lock()
		out = append(out, h.s.Snapshot(now))
		h.mu.Unlock()
	}
	return out
}

// scheduleStartLocked arms the grace-delay timer once. The session stays
// in waiting during the grace window so late joiners are still admitted.
func (sc *Scheduler) scheduleStartLocked(h *handle) {
	if h.startTimer != nil || h.s.Status != StatusWaiting {
		return
	}
	h.s.ScheduledStart = time.Now().Add(sc.cfg.AutoStartGrace)
	id := h.s.ID
	h.startTimer = time.AfterFunc(sc.cfg.AutoStartGrace, func() {
		sc.startSession(id)
	})
	log.Infof("session %s start scheduled in %s", id, sc.cfg.AutoStartGrace)
}

// startSession is the grace-timer callback: it transitions the session to
// in_progress, deals cards, arms the duration timeout and begins drawing.
func (sc *Scheduler) startSession(sessionID string) {
	h, err := sc.handle(sessionID)
	if err != nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	s := h.s
	h.startTimer = nil

	if err := s.MarkStarting(time.Now()); err != nil {
		if errors.Is(err, ErrNotEnoughPlayers) {
			// players left during the grace window; wait for more joins
			log.Infof("session %s start aborted: %v", s.ID, err)
		}
		return
	}
	now := time.Now()
	if err := s.Start(now); err != nil {
		log.Errorf("start session %s: %v", s.ID, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), collaboratorTimeout)
	defer cancel()

	cards := make([]*Card, 0, len(s.Participants))
	for _, p := range s.Participants {
		cards = append(cards, p.Card)
	}
	if err := sc.store.SaveCards(ctx, cards); err != nil {
		log.Errorf("save cards for session %s: %v", s.ID, err)
	}
	if err := sc.store.SaveSession(ctx, s); err != nil {
		log.Errorf("save session %s after start: %v", s.ID, err)
	}

	h.durationTimer = time.AfterFunc(s.Config.Duration, func() {
		sc.endSession(sessionID, ReasonTimeUp)
	})
	h.drawStop = make(chan struct{})
	go sc.drawLoop(h, h.drawStop)

	players := make([]comm.GamePlayerInfo, 0, len(s.Participants))
	for _, p := range s.Participants {
		players = append(players, comm.GamePlayerInfo{PlayerID: p.PlayerID, IsReady: p.IsReady})
	}
	sc.notify.GameStart(comm.GameStart{
		SessionID: s.ID,
		Duration:  int(s.Config.Duration.Seconds()),
		StartTime: s.StartedAt,
		Players:   players,
	})
	log.Infof("session %s started with %d players", s.ID, len(players))
}

// drawLoop ticks until the session terminates. Each tick is a mutating
// operation and runs under the same per-session lock as client calls.
func (sc *Scheduler) drawLoop(h *handle, stop <-chan struct{}) {
	ticker := time.NewTicker(sc.cfg.DrawInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			sc.drawOnce(h)
		}
	}
}

func (sc *Scheduler) drawOnce(h *handle) {
	h.mu.Lock()
	defer h.mu.Unlock()
	s := h.s

	if s.Status != StatusInProgress {
		return
	}

	d, err := s.Draw(time.Now())
	if errors.Is(err, ErrExhaustedPool) {
		sc.endLocked(h, ReasonAllNumbersCalled)
		return
	}
	if err != nil {
		// transient; retried on the next tick
		log.Errorf("draw for session %s: %v", s.ID, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), collaboratorTimeout)
	defer cancel()
	if err := sc.store.SaveSession(ctx, s); err != nil {
		log.Errorf("save session %s after draw: %v", s.ID, err)
	}

	sc.notify.NumberCalled(comm.NumberCalled{
		SessionID: s.ID,
		Number:    d.Number,
		Letter:    d.Letter,
		Order:     d.Order,
		Timestamp: d.CalledAt,
	})
}

// endSession is the duration-timeout callback and the sweep entry point.
func (sc *Scheduler) endSession(sessionID string, reason EndReason) {
	h, err := sc.handle(sessionID)
	if err != nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	sc.endLocked(h, reason)
}

// endLocked terminates the session under its lock: both timers are
// cancelled exactly once before this returns, the record is persisted,
// participants' current-session references are cleared and the slot is
// released from the scheduler's map.
func (sc *Scheduler) endLocked(h *handle, reason EndReason) {
	s := h.s
	if !s.End(reason, time.Now()) {
		return
	}

	if h.startTimer != nil {
		h.startTimer.Stop()
		h.startTimer = nil
	}
	if h.durationTimer != nil {
		h.durationTimer.Stop()
		h.durationTimer = nil
	}
	if h.drawStop != nil {
		close(h.drawStop)
		h.drawStop = nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), collaboratorTimeout)
	defer cancel()

	if err := sc.store.SaveSession(ctx, s); err != nil {
		log.Errorf("save session %s at end: %v", s.ID, err)
	}
	if err := sc.store.ArchiveSession(ctx, s, s.EndedAt.Add(sc.cfg.CardRetention)); err != nil {
		log.Errorf("archive session %s: %v", s.ID, err)
	}
	if ids := playerIDs(s); len(ids) > 0 {
		if err := sc.players.ClearCurrentSession(ctx, ids); err != nil {
			log.Errorf("clear current session refs for session %s: %v", s.ID, err)
		}
	}

	sc.notify.GameEnd(comm.GameEnd{
		SessionID:  s.ID,
		Reason:     string(reason),
		Winner:     winnerInfo(s.Winner),
		TotalDraws: len(s.Drawn),
		Duration:   int(s.Elapsed(time.Now()).Seconds()),
	})

	sc.mu.Lock()
	delete(sc.sessions, s.ID)
	if live, ok := sc.byRoom[s.RoomID]; ok && live == s.ID {
		delete(sc.byRoom, s.RoomID)
	}
	if s.Winner != nil {
		sc.finished[s.ID] = s.EndedAt
	}
	sc.mu.Unlock()

	log.Infof("session %s ended: reason=%s draws=%d", s.ID, reason, len(s.Drawn))
}

// sweep terminates sessions idle past the staleness threshold.
func (sc *Scheduler) sweep() {
	defer close(sc.sweepDone)
	ticker := time.NewTicker(sc.cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-sc.sweepStop:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-sc.cfg.StalenessThreshold)
			for _, h := range sc.handles() {
				h.mu.Lock()
				if !h.s.IsTerminal() && h.s.LastActivity.Before(cutoff) {
					log.Warnf("session %s stale since %s, abandoning", h.s.ID, h.s.LastActivity)
					sc.endLocked(h, ReasonAbandoned)
				}
				h.mu.Unlock()
			}
			sc.mu.Lock()
			for id, endedAt := range sc.finished {
				if endedAt.Before(cutoff) {
					delete(sc.finished, id)
				}
			}
			sc.mu.Unlock()
		}
	}
}

// hadWinner reports whether a no-longer-live session ended with a
// recorded winner.
func (sc *Scheduler) hadWinner(sessionID string) bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	_, ok := sc.finished[sessionID]
	return ok
}

func playerIDs(s *Session) []string {
	ids := make([]string, 0, len(s.Participants))
	for _, p := range s.Participants {
		ids = append(ids, p.PlayerID)
	}
	return ids
}
