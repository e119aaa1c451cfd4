package http

import (
	"net/http"

	"github.com/havenmind/syncd/internal/utils"
)

// emergencyResources serves the compiled-in crisis resource set. The route
// is deliberately open: a device in crisis must reach it without identity
// headers, connectivity to the backend, or a registered session.
func (h *Handler) emergencyResources(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, h.services.Engine.EmergencyResources(), http.StatusOK)
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.Write([]byte("ok"))
}
