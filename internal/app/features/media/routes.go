// internal/app/features/media/routes.go
package media

import (
	"github.com/dalemusser/donorhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the /media router. Listing is public.
func Routes(h *Handler, gate *auth.Gate) chi.Router {
	r := chi.NewRouter()
	r.Get("/all", h.List)

	r.Group(func(r chi.Router) {
		r.Use(gate.Require(auth.Admin))
		r.Post("/add", h.Add)
		r.Delete("/delete/{id}", h.Delete)
	})
	return r
}
