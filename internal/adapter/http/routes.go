package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Strob0t/RentMatch/internal/domain/principal"
	"github.com/Strob0t/RentMatch/internal/middleware"
)

// Version is reported by GET /api/v1/ and the health endpoints.
const Version = "0.1.0"

// MountRoutes registers the health endpoints and the /api/v1 routes.
// idempotent wraps mutating routes that honor Idempotency-Key; nil skips it.
func MountRoutes(r chi.Router, h *Handlers, idempotent func(http.Handler) http.Handler) {
	if idempotent == nil {
		idempotent = func(next http.Handler) http.Handler { return next }
	}

	if h.Health != nil {
		r.Get("/health", h.Health.Live)
		r.Get("/health/ready", h.Health.Ready)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"version": Version})
		})

		// Marketplace (owners; eligibility is decided by the services)
		r.Get("/marketplace/renters", h.ListRenters)
		r.With(idempotent).Post("/marketplace/contact", h.ContactRenter)

		// Privacy settings (renters only)
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole("not_a_renter", principal.RoleRenter))
			r.Get("/privacy-settings", h.GetPrivacySettings)
			r.Put("/privacy-settings", h.UpdatePrivacySettings)
		})

		// Notifications (any authenticated user)
		r.Get("/notifications", h.ListNotifications)
		r.Get("/notifications/unread-count", h.UnreadCount)
		r.Post("/notifications/read-all", h.MarkAllNotificationsRead)
		r.Post("/notifications/{id}/read", h.MarkNotificationRead)
	})
}
