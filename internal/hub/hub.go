package hub

import (
	"sync"

	"order-relay/internal/logger"
	"order-relay/internal/metrics"
	"order-relay/internal/model"

	"go.uber.org/zap"
)

// Hub owns the registry of live broadcast sessions and fans change
// events out to all of them. Register, Unregister and Publish are safe
// to call concurrently; Publish delivers against the membership snapshot
// taken under the lock, so a session unregistered before a publish never
// receives that event and a session registered after it never does either.
type Hub struct {
	mu       sync.Mutex
	sessions map[*Session]struct{}
}

func New() *Hub {
	return &Hub{sessions: make(map[*Session]struct{})}
}

// Register adds a session to the live set. The session only sees events
// published after this call; there is no history replay.
func (h *Hub) Register(s *Session) {
	h.mu.Lock()
	h.sessions[s] = struct{}{}
	n := len(h.sessions)
	h.mu.Unlock()

	metrics.SessionsConnected.Set(float64(n))
	logger.Log.Info("session registered", zap.String("session_id", s.ID), zap.Int("sessions", n))
}

// Unregister removes a session and closes its send buffer. Removing a
// session that is not registered is a no-op.
func (h *Hub) Unregister(s *Session) {
	h.mu.Lock()
	_, ok := h.sessions[s]
	if ok {
		delete(h.sessions, s)
	}
	n := len(h.sessions)
	h.mu.Unlock()

	if !ok {
		return
	}
	s.close()
	metrics.SessionsConnected.Set(float64(n))
	logger.Log.Info("session unregistered", zap.String("session_id", s.ID), zap.Int("sessions", n))
}

// Publish delivers the event to every registered session without
// blocking on any of them. A session whose buffer is full is dropped
// from the registry and closed so one slow consumer cannot hold up the
// rest. Events enqueue in publish order on each session's FIFO buffer,
// which preserves per-order delivery order as long as publishes for one
// order id arrive from a single goroutine (the change feed listener).
func (h *Hub) Publish(e model.ChangeEvent) {
	var dropped []*Session

	h.mu.Lock()
	for s := range h.sessions {
		select {
		case s.send <- e:
		default:
			delete(h.sessions, s)
			dropped = append(dropped, s)
		}
	}
	n := len(h.sessions)
	h.mu.Unlock()

	for _, s := range dropped {
		s.close()
		metrics.SessionsDroppedTotal.Inc()
		logger.Log.Warn("session dropped: send buffer full", zap.String("session_id", s.ID))
	}
	if len(dropped) > 0 {
		metrics.SessionsConnected.Set(float64(n))
	}
}

// Len reports the number of registered sessions.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}
