package comm

import (
	"encoding/json"
	"time"
)

// WSMessage is the envelope every payload travels in, both over the
// websocket and across NATS between services.
type WSMessage struct {
	Type     string          `json:"type"` // e.g. "join-game", "number_called"
	Data     json.RawMessage `json:"data"`
	SocketId string          `json:"socketid"`
}

// Res is a bare success/failure reply.
type Res struct {
	Status bool   `json:"status"`
	Error  string `json:"error,omitempty"`
}

// ---- client requests ----

type JoinRequest struct {
	SessionID string `json:"session_id,omitempty"`
	RoomID    string `json:"room_id,omitempty"`
	PlayerID  string `json:"player_id"`
}

type LeaveRequest struct {
	SessionID string `json:"session_id"`
	PlayerID  string `json:"player_id"`
}

type ReadyRequest struct {
	SessionID string `json:"session_id"`
	PlayerID  string `json:"player_id"`
	IsReady   bool   `json:"is_ready"`
}

type MarkRequest struct {
	SessionID string `json:"session_id"`
	PlayerID  string `json:"player_id"`
	Number    int    `json:"number"`
}

type ClaimRequest struct {
	SessionID string `json:"session_id"`
	PlayerID  string `json:"player_id"`
	Pattern   string `json:"pattern"`
	Numbers   []int  `json:"numbers"`
}

type StateRequest struct {
	SessionID string `json:"session_id"`
	PlayerID  string `json:"player_id"`
}

// ---- session notification events, pushed to every participant ----

type PlayerJoined struct {
	PlayerID    string `json:"playerId"`
	PlayerCount int    `json:"playerCount"`
	SessionID   string `json:"sessionId"`
}

type PlayerLeft struct {
	PlayerID    string `json:"playerId"`
	PlayerCount int    `json:"playerCount"`
	SessionID   string `json:"sessionId"`
}

type GamePlayerInfo struct {
	PlayerID string `json:"playerId"`
	IsReady  bool   `json:"isReady"`
}

type GameStart struct {
	SessionID string           `json:"sessionId"`
	Duration  int              `json:"duration"` // seconds
	StartTime time.Time        `json:"startTime"`
	Players   []GamePlayerInfo `json:"players"`
}

type NumberCalled struct {
	SessionID string    `json:"sessionId"`
	Number    int       `json:"number"`
	Letter    string    `json:"letter"`
	Order     int       `json:"order"`
	Timestamp time.Time `json:"timestamp"`
}

type WinnerInfo struct {
	PlayerID       string    `json:"playerId"`
	Pattern        string    `json:"pattern"`
	Prize          int64     `json:"prize"`
	ClaimTime      time.Time `json:"claimTime"`
	WinningNumbers []int     `json:"winningNumbers"`
}

type GameEnd struct {
	SessionID  string      `json:"sessionId"`
	Reason     string      `json:"reason"`
	Winner     *WinnerInfo `json:"winner,omitempty"`
	TotalDraws int         `json:"totalDraws"`
	Duration   int         `json:"duration"` // seconds
}

// Event names carried in WSMessage.Type for session notifications.
const (
	EventPlayerJoined = "player_joined"
	EventPlayerLeft   = "player_left"
	EventGameStart    = "game_start"
	EventNumberCalled = "number_called"
	EventGameEnd      = "game_end"
)
