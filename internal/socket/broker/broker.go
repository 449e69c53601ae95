package broker

import (
	"encoding/json"

	"github.com/gorilla/websocket"
	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"

	"github.com/natneal/bingo-live/internal/comm"
)

const (
	// topic the gateway publishes client requests on
	TopicRequests = "socket.service"
	// topic the game service publishes responses and session events on
	TopicEvents = "game.events"
)

// Broker bridges the game service's NATS traffic back onto websockets.
// Responses carry a socket id and go to one client; session events carry
// a session id and fan out to every socket watching that session.
type Broker struct {
	Conn              *nats.Conn
	GetConnection     func(string) (*websocket.Conn, bool)
	GetSessionSockets func(string) ([]string, bool)
	WatchSession      func(socketId, sessionId string)
	UnwatchSession    func(socketId string)
}

func NewBroker(conn *nats.Conn,
	fncGetConnection func(string) (*websocket.Conn, bool),
	fncGetSessionSockets func(string) ([]string, bool),
	fncWatchSession func(socketId, sessionId string),
	fncUnwatchSession func(socketId string)) *Broker {
	return &Broker{
		Conn:              conn,
		GetConnection:     fncGetConnection,
		GetSessionSockets: fncGetSessionSockets,
		WatchSession:      fncWatchSession,
		UnwatchSession:    fncUnwatchSession,
	}
}

// Subscribe consumes responses and session events from the game service.
func (b *Broker) Subscribe(topic string) (*nats.Subscription, error) {
	return b.Conn.Subscribe(topic, b.handleMessages)
}

// Publish sends a client request to the game service.
func (b *Broker) Publish(topic string, payload []byte) error {
	if err := b.Conn.Publish(topic, payload); err != nil {
		log.Errorf("error publishing to topic %s: %s", topic, err)
		return err
	}
	return nil
}

func (b *Broker) handleMessages(msgNats *nats.Msg) {
	message := &comm.WSMessage{}
	if err := json.Unmarshal(msgNats.Data, message); err != nil {
		log.Errorf("invalid nats message: %s", err)
		return
	}

	switch message.Type {
	case comm.EventPlayerJoined, comm.EventPlayerLeft,
		comm.EventGameStart, comm.EventNumberCalled:
		b.broadcast(message)
	case comm.EventGameEnd:
		b.broadcastGameEnd(message)
	case "join-game-response":
		b.handleJoinResponse(message)
	case "leave-game-response":
		b.handleLeaveResponse(message)
	default:
		if message.SocketId != "" {
			b.sendMessage(message)
			return
		}
		log.Warnf("unroutable message type %q", message.Type)
	}
}

// handleJoinResponse delivers the reply and, on success, starts routing
// the session's events to this socket.
func (b *Broker) handleJoinResponse(m *comm.WSMessage) {
	var view struct {
		Session struct {
			SessionID string `json:"session_id"`
		} `json:"session"`
	}
	if err := json.Unmarshal(m.Data, &view); err == nil && view.Session.SessionID != "" {
		b.WatchSession(m.SocketId, view.Session.SessionID)
	}
	b.sendMessage(m)
}

func (b *Broker) handleLeaveResponse(m *comm.WSMessage) {
	var res comm.Res
	if err := json.Unmarshal(m.Data, &res); err == nil && res.Status {
		b.UnwatchSession(m.SocketId)
	}
	b.sendMessage(m)
}

// broadcast fans a session event out to every watching socket.
func (b *Broker) broadcast(m *comm.WSMessage) {
	sessionId, ok := eventSession(m.Data)
	if !ok {
		log.Warnf("session event %q without session id", m.Type)
		return
	}

	sockets, ok := b.GetSessionSockets(sessionId)
	if !ok {
		return
	}
	for _, socketId := range sockets {
		b.sendTo(socketId, m)
	}
}

// broadcastGameEnd delivers the final event and then releases every
// socket from the session.
func (b *Broker) broadcastGameEnd(m *comm.WSMessage) {
	sessionId, ok := eventSession(m.Data)
	if !ok {
		return
	}

	sockets, ok := b.GetSessionSockets(sessionId)
	if !ok {
		return
	}
	for _, socketId := range sockets {
		b.sendTo(socketId, m)
		b.UnwatchSession(socketId)
	}
}

func eventSession(data json.RawMessage) (string, bool) {
	var payload struct {
		SessionID string `json:"sessionId"`
	}
	if err := json.Unmarshal(data, &payload); err != nil || payload.SessionID == "" {
		return "", false
	}
	return payload.SessionID, true
}

// sendMessage routes a response to the socket it belongs to.
func (b *Broker) sendMessage(m *comm.WSMessage) {
	b.sendTo(m.SocketId, m)
}

func (b *Broker) sendTo(socketId string, m *comm.WSMessage) {
	if conn, ok := b.GetConnection(socketId); ok {
		if err := conn.WriteJSON(m); err != nil {
			log.Errorf("write to socket %s failed: %v", socketId, err)
		}
	}
}
