package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/datamesh-io/marketplace/internal/adapter/ws"
)

// MountRoutes registers all API routes on the given chi router.
func MountRoutes(r chi.Router, h *Handlers, hub *ws.Hub) {
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/ws", hub.HandleWS)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", h.Login)

		r.Get("/catalog", h.Catalog)
		r.Post("/products", h.Provision)

		r.Get("/notifications", h.Notifications)
		r.Post("/approve", h.Approve)

		r.Get("/access", h.AccessList)
		r.Post("/access", h.SubmitAccess)

		r.Get("/data/{product}", h.Data)
	})
}
