package ws

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handler upgrades HTTP requests to relay connections.
type Handler struct {
	Hub    *Hub
	Logger *zap.Logger

	// AllowedOrigin restricts websocket upgrades to one origin.
	// Empty allows any origin.
	AllowedOrigin string
}

// ServeHTTP upgrades the request, assigns a connection id and hands
// the connection to the hub.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if h.AllowedOrigin == "" {
				return true
			}
			origin := r.Header.Get("Origin")
			return origin == "" || origin == h.AllowedOrigin
		},
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.Logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &Client{
		ID:     uuid.NewString(),
		hub:    h.Hub,
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
		logger: h.Logger,
	}
	h.Hub.register <- client

	go client.writePump()
	go client.readPump()
}
