package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (h *Handler) Init() *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(h.withTraceID)
	router.Use(h.withLogging)
	router.Use(withGZip)

	// routes without device identity
	router.Group(func(r chi.Router) {
		r.Get("/healthz", h.health)
		r.Get("/api/sync/resources/emergency", h.emergencyResources)
		r.Post("/api/devices/register", h.registerDevice)
	})

	router.Group(func(r chi.Router) {
		r.Use(h.identity)

		r.Post("/api/sync/operations", h.submitOperation)
		r.Post("/api/sync/pull", h.pull)

		r.Get("/api/devices", h.listDevices)
		r.Delete("/api/devices/{deviceID}", h.removeDevice)

		r.Post("/api/handoff/offer", h.offerHandoff)
		r.Get("/api/handoff/{sessionID}", h.awaitHandoff)
		r.Post("/api/handoff/{sessionID}/accept", h.acceptHandoff)
		r.Post("/api/handoff/{sessionID}/reject", h.rejectHandoff)

		r.Get("/api/audit", h.listAudit)
	})

	router.MethodNotAllowed(CheckHTTPMethod(router))

	return router
}
