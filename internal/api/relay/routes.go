package relay

import (
	"net/http"

	"github.com/gorilla/mux"
)

// RegisterRoutes attaches the relay's HTTP and websocket endpoints to
// the router.
func RegisterRoutes(r *mux.Router, handler *Handler, wsHandler http.Handler) {
	r.HandleFunc("/healthz", handler.Healthz).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/presence", handler.GetPresence).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/banks", handler.GetBanks).Methods(http.MethodGet)
	r.Handle("/ws", wsHandler).Methods(http.MethodGet)
}
