package engine

import "errors"

var (
	// validation
	ErrMissingPlayer  = errors.New("player id is required")
	ErrMissingSession = errors.New("session id is required")

	// lookup
	ErrSessionNotFound = errors.New("session not found")
	ErrNotParticipant  = errors.New("player is not a participant of this session")

	// state
	ErrSessionFull      = errors.New("session is full")
	ErrAlreadyStarted   = errors.New("session has already started")
	ErrAlreadyJoined    = errors.New("player already joined this session")
	ErrNotInProgress    = errors.New("session is not in progress")
	ErrNotEnoughPlayers = errors.New("not enough players to start")

	// claims
	ErrInvalidClaim   = errors.New("invalid bingo claim")
	ErrAlreadyClaimed = errors.New("bingo already claimed for this session")

	// draws
	ErrExhaustedPool = errors.New("all 75 numbers have been drawn")

	// economy
	ErrInsufficientBalance = errors.New("insufficient balance for entry fee")
)
