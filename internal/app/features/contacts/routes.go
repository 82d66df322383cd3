// internal/app/features/contacts/routes.go
package contacts

import (
	"net/http"

	"github.com/dalemusser/donorhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the /contact router. limit guards the public form.
func Routes(h *Handler, gate *auth.Gate, limit func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.With(limit).Post("/submit", h.Submit)

	r.Group(func(r chi.Router) {
		r.Use(gate.Require(auth.Admin))
		r.Get("/all", h.List)
		r.Delete("/bulk-delete", h.BulkDelete)
		r.Post("/bulk-notify", h.BulkNotify)
	})
	return r
}
