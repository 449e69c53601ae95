package broker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"

	"github.com/natneal/bingo-live/internal/comm"
	"github.com/natneal/bingo-live/internal/engine"
	"github.com/natneal/bingo-live/internal/models"
	"github.com/natneal/bingo-live/internal/service"
)

const (
	// topic the socket gateway publishes client requests on
	TopicRequests = "socket.service"
	// topic the gateway consumes responses and session events from
	TopicEvents = "game.events"
)

// Broker routes client operations from the socket gateway into the
// scheduler and pushes responses and session events back out. It is also
// the engine's Notifier.
type Broker struct {
	Conn           *nats.Conn
	Scheduler      *engine.Scheduler
	PlayerService  *service.PlayerService
	BalanceService *service.BalanceService
	RoomService    *service.RoomService
}

func NewBroker(nc *nats.Conn, sched *engine.Scheduler,
	playerService *service.PlayerService, balanceService *service.BalanceService,
	roomService *service.RoomService) *Broker {
	return &Broker{
		Conn:           nc,
		Scheduler:      sched,
		PlayerService:  playerService,
		BalanceService: balanceService,
		RoomService:    roomService,
	}
}

// SubscribeRequests consumes client operations from the socket gateway.
func (b *Broker) SubscribeRequests() (*nats.Subscription, error) {
	return b.Conn.Subscribe(TopicRequests, b.handleMessage)
}

func (b *Broker) handleMessage(msgNat *nats.Msg) {
	msg := &comm.WSMessage{}
	if err := json.Unmarshal(msgNat.Data, msg); err != nil {
		log.Errorf("invalid nats message: %s", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch msg.Type {
	case "init":
		b.handleInit(ctx, msg)
	case "list-rooms":
		b.handleListRooms(ctx, msg)
	case "join-game":
		b.handleJoin(ctx, msg)
	case "leave-game":
		b.handleLeave(ctx, msg)
	case "player-ready":
		b.handleReady(ctx, msg)
	case "mark-number":
		b.handleMark(ctx, msg)
	case "claim-bingo":
		b.handleClaim(ctx, msg)
	case "get-state":
		b.handleGetState(msg)
	default:
		log.Errorf("unknown message type %q", msg.Type)
	}
}

func (b *Broker) handleInit(ctx context.Context, msg *comm.WSMessage) {
	var info models.Player
	if err := json.Unmarshal(msg.Data, &info); err != nil {
		log.Errorf("invalid init payload: %s", err)
		return
	}

	player, err := b.PlayerService.GetOrCreatePlayer(ctx, info)
	if err != nil {
		log.Errorf("[PlayerService.GetOrCreatePlayer] %s", err)
		return
	}

	balance, err := b.BalanceService.GetBalance(ctx, player.PlayerID)
	if err != nil {
		log.Errorf("[BalanceService.GetBalance] %s", err)
		return
	}

	b.respond("init-response", map[string]interface{}{
		"player":  player,
		"balance": balance.StringFixed(2),
	}, msg.SocketId)
}

func (b *Broker) handleListRooms(ctx context.Context, msg *comm.WSMessage) {
	rooms, err := b.RoomService.ListOpenRooms(ctx)
	if err != nil {
		log.Errorf("[RoomService.ListOpenRooms] %s", err)
		return
	}
	b.respond("list-rooms-response", rooms, msg.SocketId)
}

// handleJoin admits a player into the room's live session, creating one
// when the room has none yet.
func (b *Broker) handleJoin(ctx context.Context, msg *comm.WSMessage) {
	var req comm.JoinRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		log.Errorf("invalid join payload: %s", err)
		return
	}

	sessionID := req.SessionID
	if sessionID == "" && req.RoomID != "" {
		var ok bool
		sessionID, ok = b.Scheduler.SessionForRoom(req.RoomID)
		if !ok {
			room, err := b.RoomService.GetRoom(ctx, req.RoomID)
			if err != nil || room == nil {
				b.respondError("join-game-response", engine.ErrSessionNotFound, msg.SocketId)
				return
			}
			snap, err := b.Scheduler.CreateSession(ctx, room.ID, service.SessionConfigFor(room))
			if err != nil {
				// lost the creation race; the room has a session now
				if sessionID, ok = b.Scheduler.SessionForRoom(req.RoomID); !ok {
					b.respondError("join-game-response", err, msg.SocketId)
					return
				}
			} else {
				sessionID = snap.SessionID
			}
		}
	}

	view, err := b.Scheduler.Join(ctx, sessionID, req.PlayerID)
	if err != nil {
		b.respondError("join-game-response", err, msg.SocketId)
		return
	}
	b.respond("join-game-response", view, msg.SocketId)
}

func (b *Broker) handleLeave(ctx context.Context, msg *comm.WSMessage) {
	var req comm.LeaveRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		log.Errorf("invalid leave payload: %s", err)
		return
	}

	if err := b.Scheduler.Leave(ctx, req.SessionID, req.PlayerID); err != nil {
		b.respondError("leave-game-response", err, msg.SocketId)
		return
	}
	b.respond("leave-game-response", comm.Res{Status: true}, msg.SocketId)
}

func (b *Broker) handleReady(ctx context.Context, msg *comm.WSMessage) {
	var req comm.ReadyRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		log.Errorf("invalid ready payload: %s", err)
		return
	}

	if err := b.Scheduler.SetReady(ctx, req.SessionID, req.PlayerID, req.IsReady); err != nil {
		b.respondError("player-ready-response", err, msg.SocketId)
		return
	}
	b.respond("player-ready-response", comm.Res{Status: true}, msg.SocketId)
}

func (b *Broker) handleMark(ctx context.Context, msg *comm.WSMessage) {
	var req comm.MarkRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		log.Errorf("invalid mark payload: %s", err)
		return
	}

	if err := b.Scheduler.MarkNumber(ctx, req.SessionID, req.PlayerID, req.Number); err != nil {
		b.respondError("mark-number-response", err, msg.SocketId)
		return
	}
	b.respond("mark-number-response", comm.Res{Status: true}, msg.SocketId)
}

func (b *Broker) handleClaim(ctx context.Context, msg *comm.WSMessage) {
	var req comm.ClaimRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		log.Errorf("invalid claim payload: %s", err)
		return
	}

	result, err := b.Scheduler.Claim(ctx, req.SessionID, req.PlayerID, engine.Pattern(req.Pattern), req.Numbers)
	if err != nil {
		b.respondError("claim-bingo-response", err, msg.SocketId)
		return
	}
	b.respond("claim-bingo-response", map[string]interface{}{
		"success": true,
		"prize":   result.Prize,
		"pattern": result.Pattern,
	}, msg.SocketId)
}

func (b *Broker) handleGetState(msg *comm.WSMessage) {
	var req comm.StateRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		log.Errorf("invalid state payload: %s", err)
		return
	}

	view, err := b.Scheduler.GetState(req.SessionID, req.PlayerID)
	if err != nil {
		b.respondError("get-state-response", err, msg.SocketId)
		return
	}
	b.respond("get-state-response", view, msg.SocketId)
}

// respond publishes a typed payload back to one socket.
func (b *Broker) respond(msgType string, payload interface{}, socketId string) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Errorf("[%s] unable to marshal payload: %s", msgType, err)
		return
	}
	b.publish(&comm.WSMessage{Type: msgType, Data: data, SocketId: socketId})
}

func (b *Broker) respondError(msgType string, opErr error, socketId string) {
	data, err := json.Marshal(comm.Res{Status: false, Error: errorCode(opErr)})
	if err != nil {
		log.Errorf("[%s] unable to marshal error: %s", msgType, err)
		return
	}
	b.publish(&comm.WSMessage{Type: msgType, Data: data, SocketId: socketId})
}

// errorCode maps engine errors to stable wire codes.
func errorCode(err error) string {
	switch {
	case errors.Is(err, engine.ErrSessionFull):
		return "full"
	case errors.Is(err, engine.ErrAlreadyStarted):
		return "already_started"
	case errors.Is(err, engine.ErrAlreadyJoined):
		return "already_joined"
	case errors.Is(err, engine.ErrAlreadyClaimed):
		return "already_claimed"
	case errors.Is(err, engine.ErrInvalidClaim):
		return "invalid_claim"
	case errors.Is(err, engine.ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, engine.ErrSessionNotFound):
		return "not_found"
	case errors.Is(err, engine.ErrNotParticipant):
		return "not_participant"
	case errors.Is(err, engine.ErrMissingPlayer), errors.Is(err, engine.ErrMissingSession):
		return "validation"
	default:
		return "internal"
	}
}

// engine.Notifier implementation: every session event goes out on the
// events topic; the gateway fans it out to the session's sockets.

func (b *Broker) PlayerJoined(ev comm.PlayerJoined) { b.event(comm.EventPlayerJoined, ev) }
func (b *Broker) PlayerLeft(ev comm.PlayerLeft)     { b.event(comm.EventPlayerLeft, ev) }
func (b *Broker) GameStart(ev comm.GameStart)       { b.event(comm.EventGameStart, ev) }
func (b *Broker) NumberCalled(ev comm.NumberCalled) { b.event(comm.EventNumberCalled, ev) }
func (b *Broker) GameEnd(ev comm.GameEnd)           { b.event(comm.EventGameEnd, ev) }

func (b *Broker) event(eventType string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Errorf("[%s] unable to marshal event: %s", eventType, err)
		return
	}
	b.publish(&comm.WSMessage{Type: eventType, Data: data})
}

func (b *Broker) publish(msg *comm.WSMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		log.Errorf("unable to marshal envelope: %s", err)
		return
	}
	if err := b.Conn.Publish(TopicEvents, payload); err != nil {
		log.Errorf("error publishing to topic %s: %s", TopicEvents, err)
	}
}
