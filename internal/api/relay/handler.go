// Package relay exposes the HTTP surface around the relay: the
// websocket endpoint plus read-only JSON views of the roster and the
// sound bank catalog.
package relay

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/tapejam/tapejam/internal/ws"
	"github.com/tapejam/tapejam/sdk/audio"
)

// Handler holds the dependencies for the relay's HTTP endpoints.
type Handler struct {
	Hub    *ws.Hub
	Logger *zap.Logger
}

// GetPresence returns the current roster as JSON. The same data flows
// to connected clients as userPresence events; this endpoint serves
// dashboards and probes that do not hold a socket open.
func (h *Handler) GetPresence(w http.ResponseWriter, r *http.Request) {
	roster := h.Hub.Snapshot(r.Context())
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(roster); err != nil {
		h.Logger.Warn("encode presence response", zap.Error(err))
	}
}

// GetBanks returns the sound bank catalog so clients can offer the
// bank switcher before any samples are fetched.
func (h *Handler) GetBanks(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(audio.Banks()); err != nil {
		h.Logger.Warn("encode banks response", zap.Error(err))
	}
}

// Healthz reports liveness.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
