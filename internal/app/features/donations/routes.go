// internal/app/features/donations/routes.go
package donations

import (
	"net/http"

	"github.com/dalemusser/donorhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the /donation router. Donating is public and rate
// limited; every read and state change is admin only.
func Routes(h *Handler, gate *auth.Gate, limit func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.With(limit).Post("/donate", h.Donate)

	r.Group(func(r chi.Router) {
		r.Use(gate.Require(auth.Admin))
		r.Get("/viewAllDonation", h.List)
		r.Get("/viewSingleDonation/{donationId}", h.Get)
		r.Put("/{donationId}/verify", h.Verify)
		r.Put("/{donationId}/reject", h.Reject)
		r.Delete("/bulk-delete", h.BulkDelete)
	})

	return r
}
