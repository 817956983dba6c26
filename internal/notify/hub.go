// README: WebSocket hub mapping topics to connected sessions.
package notify

import (
	"context"
	"errors"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var ErrNoSubscriber = errors.New("no subscriber for topic")

// Session wraps a websocket connection with a write lock, since gorilla
// connections do not allow concurrent writers.
type Session struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *Session) send(msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(msg)
}

// Hub is a topic-keyed registry of websocket sessions.
type Hub struct {
	log      *zap.Logger
	mu       sync.RWMutex
	sessions map[string][]*Session
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{log: log, sessions: make(map[string][]*Session)}
}

// Subscribe attaches a connection to a topic and returns the session handle.
func (h *Hub) Subscribe(topic string, conn *websocket.Conn) *Session {
	s := &Session{conn: conn}
	h.mu.Lock()
	h.sessions[topic] = append(h.sessions[topic], s)
	h.mu.Unlock()
	return s
}

// Unsubscribe detaches a session from a topic.
func (h *Hub) Unsubscribe(topic string, s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	list := h.sessions[topic]
	for i, cur := range list {
		if cur == s {
			h.sessions[topic] = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(h.sessions[topic]) == 0 {
		delete(h.sessions, topic)
	}
}

func (h *Hub) Notify(_ context.Context, topic string, msg Message) error {
	h.mu.RLock()
	list := make([]*Session, len(h.sessions[topic]))
	copy(list, h.sessions[topic])
	h.mu.RUnlock()

	if len(list) == 0 {
		return ErrNoSubscriber
	}
	msg.Topic = topic
	var firstErr error
	for _, s := range list {
		if err := s.send(msg); err != nil {
			h.log.Warn("ws send failed", zap.String("topic", topic), zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
