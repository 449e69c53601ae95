package ws

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/natneal/bingo-live/internal/comm"
	"github.com/natneal/bingo-live/internal/socket/broker"
)

// Ws tracks live socket connections and which game session each socket
// is watching, so session events can be fanned out to the right clients.
type Ws struct {
	connMap    sync.Map // socketId -> *websocket.Conn
	sessionMap sync.Map // socketId -> sessionId
	Broker     *broker.Broker
}

func NewWs() *Ws {
	return &Ws{}
}

// SocketMessage forwards a client request to the game service. The
// gateway does no game logic; it only stamps the socket id so responses
// find their way back.
func (s *Ws) SocketMessage(socketId string, message *comm.WSMessage) {
	switch message.Type {
	case "init", "list-rooms", "join-game", "leave-game",
		"player-ready", "mark-number", "claim-bingo", "get-state":
		s.forward(socketId, message)
	default:
		log.Warnf("unknown event received: %s", message.Type)
	}
}

func (s *Ws) forward(socketId string, msg *comm.WSMessage) {
	msg.SocketId = socketId

	bytes, err := json.Marshal(msg)
	if err != nil {
		log.Errorf("unable to marshal message for socket %s: %v", socketId, err)
		return
	}

	if err := s.Broker.Publish(broker.TopicRequests, bytes); err != nil {
		log.Errorf("unable to publish to topic %s: %v", broker.TopicRequests, err)
	}
}

func (s *Ws) StoreConnection(socketId string, conn *websocket.Conn) {
	s.connMap.Store(socketId, conn)
}

func (s *Ws) GetConnection(socketId string) (*websocket.Conn, bool) {
	conn, ok := s.connMap.Load(socketId)
	if !ok {
		return nil, false
	}
	return conn.(*websocket.Conn), true
}

// WatchSession subscribes a socket to a session's event stream. A socket
// watches at most one session at a time.
func (s *Ws) WatchSession(socketId string, sessionId string) {
	s.sessionMap.Store(socketId, sessionId)
}

func (s *Ws) UnwatchSession(socketId string) {
	s.sessionMap.Delete(socketId)
}

// GetSessionSockets returns every socket watching the given session.
func (s *Ws) GetSessionSockets(sessionId string) ([]string, bool) {
	var sockets []string
	found := false

	s.sessionMap.Range(func(key, value interface{}) bool {
		if value.(string) == sessionId {
			sockets = append(sockets, key.(string))
			found = true
		}
		return true
	})

	return sockets, found
}

// HandleDisconnect drops all gateway state for a closed socket.
func (s *Ws) HandleDisconnect(socketId string) {
	s.connMap.Delete(socketId)
	s.sessionMap.Delete(socketId)
}
