// internal/app/features/news/routes.go
package news

import (
	"github.com/dalemusser/donorhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the /news router. The feed is public.
func Routes(h *Handler, gate *auth.Gate) chi.Router {
	r := chi.NewRouter()
	r.Get("/all", h.List)

	r.Group(func(r chi.Router) {
		r.Use(gate.Require(auth.Admin))
		r.Post("/add", h.Add)
		r.Delete("/{id}", h.Delete)
	})
	return r
}
