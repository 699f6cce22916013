package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"parcel-tracking/internal/handlers"
)

// Handlers bundles everything the router mounts
type Handlers struct {
	Track    *handlers.TrackHandler
	Carriers *handlers.CarrierHandler
	Parse    *handlers.ParseHandler
	Health   *handlers.HealthHandler
	Admin    *handlers.AdminHandler
}

// NewRouter builds the HTTP route tree. Admin routes are protected with
// bearer-token auth when adminAPIKey is non-empty, otherwise they are open
// (local development).
func NewRouter(h *Handlers, adminAPIKey string) http.Handler {
	r := chi.NewRouter()

	r.Use(RecoveryMiddleware)
	r.Use(LoggingMiddleware)
	r.Use(SecurityMiddleware)
	r.Use(CORSMiddleware)
	r.Use(ContentTypeMiddleware)

	r.Route("/api", func(api chi.Router) {
		api.Get("/health", h.Health.HealthCheck)
		api.Get("/carriers", h.Carriers.GetCarriers)
		api.Get("/carriers/detect", h.Carriers.DetectCarrier)
		api.Post("/track", h.Track.Track)
		api.Post("/parse", h.Parse.Parse)

		api.Route("/admin", func(admin chi.Router) {
			if adminAPIKey != "" {
				admin.Use(AuthMiddleware(adminAPIKey))
			}
			admin.Get("/cache/stats", h.Admin.GetCacheStats)
			admin.Delete("/cache", h.Admin.ClearCache)
			admin.Post("/cache/cleanup", h.Admin.CleanExpiredCache)
		})
	})

	return r
}
