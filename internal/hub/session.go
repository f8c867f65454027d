package hub

import (
	"sync"
	"time"

	"order-relay/internal/logger"
	"order-relay/internal/model"
	"order-relay/internal/util"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// Clients never send application data on this channel.
	maxMessageSize = 512
)

// Session is one live client connection registered with the hub. Events
// queue on a bounded buffer; the write pump drains it to the socket.
type Session struct {
	ID string

	hub  *Hub
	conn *websocket.Conn
	send chan model.ChangeEvent
	once sync.Once
}

// NewSession wraps an upgraded connection. conn may be nil in tests that
// exercise the registry without a transport.
func NewSession(h *Hub, conn *websocket.Conn, buffer int) *Session {
	if buffer <= 0 {
		buffer = 64
	}
	return &Session{
		ID:   util.NewID(),
		hub:  h,
		conn: conn,
		send: make(chan model.ChangeEvent, buffer),
	}
}

// Events exposes the session's receive buffer.
func (s *Session) Events() <-chan model.ChangeEvent { return s.send }

func (s *Session) close() {
	s.once.Do(func() { close(s.send) })
}

// WritePump drains the send buffer to the socket, wrapping each event in
// an order_update envelope. It owns all writes on the connection,
// including the keepalive pings. Runs until the session is closed or a
// write fails.
func (s *Session) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = s.conn.Close()
	}()

	for {
		select {
		case e, ok := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// hub closed the session
				_ = s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteJSON(model.NewEnvelope(e)); err != nil {
				logger.Log.Debug("session write failed", zap.String("session_id", s.ID), zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ReadPump discards inbound frames (the broadcast channel is
// receive-only for clients) and unregisters the session the moment the
// connection errors, so no further publish references it.
func (s *Session) ReadPump() {
	defer func() {
		s.hub.Unregister(s)
		_ = s.conn.Close()
	}()

	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Log.Debug("session read failed", zap.String("session_id", s.ID), zap.Error(err))
			}
			return
		}
	}
}
