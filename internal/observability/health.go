package observability

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
)

// Health tracks process readiness and serves /healthz and /readyz.
// Liveness is unconditional; readiness flips once the consumer's
// connections are established and off again during shutdown.
type Health struct {
	ready atomic.Bool
}

// NewHealth creates a Health in the not-ready state.
func NewHealth() *Health {
	return &Health{}
}

// SetReady marks the process ready (or not) to do work.
func (h *Health) SetReady(ready bool) {
	h.ready.Store(ready)
}

// Register adds the health endpoints to mux.
func (h *Health) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeStatus(w, http.StatusOK, "ok")
	})
	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, _ *http.Request) {
		if h.ready.Load() {
			writeStatus(w, http.StatusOK, "ready")
			return
		}
		writeStatus(w, http.StatusServiceUnavailable, "not ready")
	})
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": status})
}
