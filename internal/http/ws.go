package http

import (
	"net/http"

	"order-relay/internal/hub"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// same open-origin policy as the REST routes
	CheckOrigin: func(r *http.Request) bool { return true },
}

// serveWSHandler upgrades the connection and registers a session with
// the hub. The socket is receive-only from the client's perspective:
// every committed order mutation arrives as an order_update envelope
// from the moment the session joins, with no history replay.
func serveWSHandler(h *hub.Hub, sessionBuffer int) echo.HandlerFunc {
	return func(c echo.Context) error {
		conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
		if err != nil {
			// Upgrade already wrote the HTTP error response
			log.Errorf("websocket upgrade failed: %v", err)

			return nil
		}

		s := hub.NewSession(h, conn, sessionBuffer)
		h.Register(s)

		go s.WritePump()
		go s.ReadPump()

		return nil
	}
}
