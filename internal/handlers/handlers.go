package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"

	"github.com/go-chi/chi"
	"github.com/go-chi/jwtauth"
	log "github.com/sirupsen/logrus"

	"github.com/natneal/bingo-live/internal/board"
	"github.com/natneal/bingo-live/internal/engine"
	"github.com/natneal/bingo-live/internal/service"
)

// Handler serves the read-side HTTP API: live session snapshots, room
// listings and leaderboards. All mutating traffic goes over the socket
// gateway.
type Handler struct {
	tokenAuth      *jwtauth.JWTAuth
	scheduler      *engine.Scheduler
	sessionService *service.SessionService
	cardService    *service.CardService
	roomService    *service.RoomService
	leaderboards   *board.LeaderboardStore
}

type Response struct {
	Message string      `json:"message"`
	Code    int         `json:"code"`
	Data    interface{} `json:"data"`
	Error   string      `json:"error"`
}

func NewHandler(sched *engine.Scheduler, sessionService *service.SessionService,
	cardService *service.CardService, roomService *service.RoomService,
	leaderboards *board.LeaderboardStore) *Handler {
	return &Handler{
		scheduler:      sched,
		sessionService: sessionService,
		cardService:    cardService,
		roomService:    roomService,
		leaderboards:   leaderboards,
	}
}

func (h *Handler) CreateResponse(w http.ResponseWriter, rsp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(rsp.Code)

	json.NewEncoder(w).Encode(rsp)
}

func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	rsp := Response{
		Message: "game service is running at port " + os.Getenv("GAME_SERVICE_PORT"),
		Code:    200,
		Data:    nil,
	}
	json.NewEncoder(w).Encode(rsp)
}

// ListSessionsHandler returns a snapshot of every live session.
func (h *Handler) ListSessionsHandler(w http.ResponseWriter, r *http.Request) {
	h.CreateResponse(w, Response{Code: 200, Data: h.scheduler.ActiveSessions()})
}

// GetSessionHandler returns the live snapshot when the session is still
// running, falling back to the durable record for finished ones.
func (h *Handler) GetSessionHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionId")

	if snap, err := h.scheduler.Snapshot(id); err == nil {
		h.CreateResponse(w, Response{Code: 200, Data: snap})
		return
	} else if !errors.Is(err, engine.ErrSessionNotFound) {
		log.Errorf("[Scheduler.Snapshot] %s", err)
		h.CreateResponse(w, Response{Code: 500, Error: "internal"})
		return
	}

	record, err := h.sessionService.GetSession(r.Context(), id)
	if err != nil {
		log.Errorf("[SessionService.GetSession] %s", err)
		h.CreateResponse(w, Response{Code: 500, Error: "internal"})
		return
	}
	if record == nil {
		h.CreateResponse(w, Response{Code: 404, Error: "session not found"})
		return
	}
	h.CreateResponse(w, Response{Code: 200, Data: record})
}

// GetCardHandler returns a card's durable record, including the winning
// pattern once a claim on it has been accepted.
func (h *Handler) GetCardHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "cardId")

	record, err := h.cardService.GetCardByID(r.Context(), id)
	if err != nil {
		log.Errorf("[CardService.GetCardByID] %s", err)
		h.CreateResponse(w, Response{Code: 500, Error: "internal"})
		return
	}
	if record == nil {
		h.CreateResponse(w, Response{Code: 404, Error: "card not found"})
		return
	}
	h.CreateResponse(w, Response{Code: 200, Data: record})
}

func (h *Handler) ListRoomsHandler(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.roomService.ListOpenRooms(r.Context())
	if err != nil {
		log.Errorf("[RoomService.ListOpenRooms] %s", err)
		h.CreateResponse(w, Response{Code: 500, Error: "internal"})
		return
	}
	h.CreateResponse(w, Response{Code: 200, Data: rooms})
}

// LeaderboardHandler serves the latest ranking snapshot for a period
// (daily, weekly or alltime).
func (h *Handler) LeaderboardHandler(w http.ResponseWriter, r *http.Request) {
	period := board.Period(chi.URLParam(r, "period"))
	switch period {
	case board.PeriodDaily, board.PeriodWeekly, board.PeriodAllTime:
	default:
		h.CreateResponse(w, Response{Code: 400, Error: "unknown period"})
		return
	}

	snap, err := h.leaderboards.Latest(r.Context(), period)
	if err != nil {
		log.Errorf("[LeaderboardStore.Latest] %s", err)
		h.CreateResponse(w, Response{Code: 500, Error: "internal"})
		return
	}
	if snap == nil {
		h.CreateResponse(w, Response{Code: 404, Error: "no rankings yet"})
		return
	}
	h.CreateResponse(w, Response{Code: 200, Data: snap})
}

// CloseSessionHandler force-ends a live session. Operator only.
func (h *Handler) CloseSessionHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionId")

	if err := h.scheduler.EndSession(id, engine.ReasonRoomClosed); err != nil {
		if errors.Is(err, engine.ErrSessionNotFound) {
			h.CreateResponse(w, Response{Code: 404, Error: "session not found"})
			return
		}
		log.Errorf("[Scheduler.EndSession] %s", err)
		h.CreateResponse(w, Response{Code: 500, Error: "internal"})
		return
	}
	h.CreateResponse(w, Response{Code: 200, Data: map[string]bool{"closed": true}})
}
