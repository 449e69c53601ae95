package engine

import (
	"fmt"
	"time"
)

// Status is the session lifecycle state. Transitions are monotonic:
// waiting -> starting -> in_progress -> finished | cancelled.
type Status string

const (
	StatusWaiting    Status = "waiting"
	StatusStarting   Status = "starting"
	StatusInProgress Status = "in_progress"
	StatusFinished   Status = "finished"
	StatusCancelled  Status = "cancelled"
)

type Phase string

const (
	PhaseLobby   Phase = "lobby"
	PhasePlaying Phase = "playing"
	PhaseResults Phase = "results"
)

// EndReason explains why a session reached a terminal state.
type EndReason string

const (
	ReasonBingo            EndReason = "bingo"
	ReasonTimeUp           EndReason = "time_up"
	ReasonAllNumbersCalled EndReason = "all_numbers_called"
	ReasonNoPlayers        EndReason = "no_players"
	ReasonAbandoned        EndReason = "abandoned"
	ReasonRoomClosed       EndReason = "room_closed"
)

// terminalStatus maps an end reason to its terminal state.
func terminalStatus(reason EndReason) Status {
	switch reason {
	case ReasonBingo, ReasonTimeUp, ReasonAllNumbersCalled:
		return StatusFinished
	default:
		return StatusCancelled
	}
}

// Participant is one player's entry in a session.
type Participant struct {
	PlayerID     string
	Card         *Card
	JoinedAt     time.Time
	IsReady      bool
	HasClaimed   bool
	ClaimTime    time.Time
	Disconnected bool
}

// Winner is recorded at most once per session.
type Winner struct {
	PlayerID       string
	CardID         string
	Pattern        Pattern
	Prize          int64
	ClaimTime      time.Time
	WinningNumbers []int
}

// SessionConfig comes from the owning room at creation time.
type SessionConfig struct {
	Duration   time.Duration
	MaxPlayers int
	MinPlayers int
	EntryFee   int64
	PrizePool  int64
	AutoStart  bool
}

// SessionStats carries per-game aggregates.
type SessionStats struct {
	TotalCalls   int
	FastestBingo int // seconds from start to the winning claim
}

// Session is the per-game state machine. It is deliberately unsynchronized;
// the Scheduler serializes every mutating call per session id, including
// timer callbacks.
type Session struct {
	ID     string
	RoomID string
	Status Status
	Phase  Phase

	Participants []*Participant
	Config       SessionConfig

	Drawn   []DrawnNumber
	Current *DrawnNumber
	Winner  *Winner
	Reason  EndReason
	Stats   SessionStats

	ScheduledStart time.Time
	StartedAt      time.Time
	EndedAt        time.Time
	LastActivity   time.Time
	CreatedAt      time.Time

	awarded map[Pattern]bool
	drawer  *Drawer
	cards   *CardGenerator
	prizes  PrizeConfig
}

// NewSession creates a session in the waiting state.
func NewSession(id, roomID string, cfg SessionConfig, prizes PrizeConfig, seed int64) *Session {
	now := time.Now()
	return &Session{
		ID:           id,
		RoomID:       roomID,
		Status:       StatusWaiting,
		Phase:        PhaseLobby,
		Config:       cfg,
		CreatedAt:    now,
		LastActivity: now,
		awarded:      make(map[Pattern]bool),
		drawer:       NewDrawer(seed),
		cards:        NewCardGenerator(seed + 1),
		prizes:       prizes,
	}
}

func (s *Session) PlayerCount() int { return len(s.Participants) }

func (s *Session) IsFull() bool { return len(s.Participants) >= s.Config.MaxPlayers }

func (s *Session) IsTerminal() bool {
	return s.Status == StatusFinished || s.Status == StatusCancelled
}

// CanStart reports whether the minimum player threshold is met while still
// admitting players.
func (s *Session) CanStart() bool {
	return s.Status == StatusWaiting && len(s.Participants) >= s.Config.MinPlayers
}

// AllReady reports whether every participant has readied up.
func (s *Session) AllReady() bool {
	if len(s.Participants) == 0 {
		return false
	}
	for _, p := range s.Participants {
		if !p.IsReady {
			return false
		}
	}
	return true
}

func (s *Session) Participant(playerID string) *Participant {
	for _, p := range s.Participants {
		if p.PlayerID == playerID {
			return p
		}
	}
	return nil
}

// CanJoin checks admission without mutating, so callers can settle the
// entry fee before committing the join.
func (s *Session) CanJoin(playerID string) error {
	if s.Status != StatusWaiting {
		return ErrAlreadyStarted
	}
	if s.IsFull() {
		return ErrSessionFull
	}
	if s.Participant(playerID) != nil {
		return ErrAlreadyJoined
	}
	return nil
}

// Join admits a player while the session is waiting and not full. Each
// player may hold at most one entry.
func (s *Session) Join(playerID string, now time.Time) error {
	if err := s.CanJoin(playerID); err != nil {
		return err
	}
	s.Participants = append(s.Participants, &Participant{PlayerID: playerID, JoinedAt: now})
	s.LastActivity = now
	return nil
}

// Leave removes a waiting participant. Once in progress the entry and its
// card stay on record; the player is only flagged disconnected.
func (s *Session) Leave(playerID string, now time.Time) (removed bool, err error) {
	p := s.Participant(playerID)
	if p == nil {
		return false, ErrNotParticipant
	}
	s.LastActivity = now

	if s.Status == StatusWaiting || s.Status == StatusStarting {
		for i, e := range s.Participants {
			if e.PlayerID == playerID {
				s.Participants = append(s.Participants[:i], s.Participants[i+1:]...)
				break
			}
		}
		return true, nil
	}

	p.Disconnected = true
	return false, nil
}

// SetReady flips a waiting participant's ready flag.
func (s *Session) SetReady(playerID string, ready bool, now time.Time) error {
	if s.Status != StatusWaiting {
		return ErrAlreadyStarted
	}
	p := s.Participant(playerID)
	if p == nil {
		return ErrNotParticipant
	}
	p.IsReady = ready
	s.LastActivity = now
	return nil
}

// MarkStarting moves the session into the grace window before the actual
// start. Joins are no longer accepted.
func (s *Session) MarkStarting(scheduled time.Time) error {
	if s.Status != StatusWaiting {
		return ErrAlreadyStarted
	}
	if len(s.Participants) < s.Config.MinPlayers {
		return ErrNotEnoughPlayers
	}
	s.Status = StatusStarting
	s.ScheduledStart = scheduled
	return nil
}

// Start transitions to in_progress: one card is generated per participant,
// the actual start time is stamped and the end deadline derives from it.
func (s *Session) Start(now time.Time) error {
	if s.Status != StatusWaiting && s.Status != StatusStarting {
		return ErrAlreadyStarted
	}
	if len(s.Participants) < s.Config.MinPlayers {
		return ErrNotEnoughPlayers
	}
	for _, p := range s.Participants {
		p.Card = s.cards.Generate(p.PlayerID, s.ID)
	}
	s.Status = StatusInProgress
	s.Phase = PhasePlaying
	s.StartedAt = now
	s.EndedAt = time.Time{}
	s.LastActivity = now
	return nil
}

// Deadline is the wall-clock moment the duration timeout fires.
func (s *Session) Deadline() time.Time {
	return s.StartedAt.Add(s.Config.Duration)
}

// Draw commits the next number. ErrExhaustedPool propagates so the caller
// can end the session with reason all_numbers_called.
func (s *Session) Draw(now time.Time) (DrawnNumber, error) {
	if s.Status != StatusInProgress {
		return DrawnNumber{}, ErrNotInProgress
	}
	d, err := s.drawer.Draw(now)
	if err != nil {
		return DrawnNumber{}, err
	}
	s.Drawn = append(s.Drawn, d)
	s.Current = &s.Drawn[len(s.Drawn)-1]
	s.Stats.TotalCalls = d.Order
	s.LastActivity = now
	return d, nil
}

// MarkNumber daubs a drawn number on a participant's card. Numbers never
// drawn cannot be marked.
func (s *Session) MarkNumber(playerID string, number int, now time.Time) error {
	if s.Status != StatusInProgress {
		return ErrNotInProgress
	}
	p := s.Participant(playerID)
	if p == nil {
		return ErrNotParticipant
	}
	drawn := false
	for _, d := range s.Drawn {
		if d.Number == number {
			drawn = true
			break
		}
	}
	if !drawn {
		return fmt.Errorf("number %d has not been called", number)
	}
	p.Card.Mark(number, now)
	s.LastActivity = now
	return nil
}

// Claim adjudicates a win attempt. First valid claim wins; once a winner
// is recorded every later claim fails with ErrAlreadyClaimed regardless of
// its own validity. Validation happens against the committed draw history
// only, and no state changes on a failed claim.
func (s *Session) Claim(playerID string, pattern Pattern, numbers []int, now time.Time) (*Winner, error) {
	if s.Winner != nil {
		return nil, ErrAlreadyClaimed
	}
	if s.Status != StatusInProgress {
		return nil, ErrNotInProgress
	}
	p := s.Participant(playerID)
	if p == nil {
		return nil, ErrNotParticipant
	}

	if err := ValidateClaim(p.Card, pattern, numbers, s.Drawn); err != nil {
		return nil, err
	}

	elapsed := now.Sub(s.StartedAt)
	w := &Winner{
		PlayerID:       playerID,
		CardID:         p.Card.ID,
		Pattern:        pattern,
		Prize:          s.prizes.Prize(pattern, elapsed),
		ClaimTime:      now,
		WinningNumbers: append([]int(nil), numbers...),
	}

	s.Winner = w
	s.awarded[pattern] = true
	p.HasClaimed = true
	p.ClaimTime = now
	p.Card.HasBingo = true
	p.Card.WinningPattern = pattern
	p.Card.WinningNumbers = w.WinningNumbers

	s.Stats.FastestBingo = int(elapsed.Seconds())
	s.LastActivity = now
	return w, nil
}

// End moves the session to its terminal state. Idempotent; the first
// reason sticks.
func (s *Session) End(reason EndReason, now time.Time) bool {
	if s.IsTerminal() {
		return false
	}
	s.Status = terminalStatus(reason)
	s.Phase = PhaseResults
	s.Reason = reason
	s.EndedAt = now
	return true
}

// Elapsed is the playing time so far, or the final duration once ended.
func (s *Session) Elapsed(now time.Time) time.Duration {
	if s.StartedAt.IsZero() {
		return 0
	}
	end := now
	if !s.EndedAt.IsZero() {
		end = s.EndedAt
	}
	return end.Sub(s.StartedAt)
}
