// internal/app/features/students/routes.go
package students

import (
	"github.com/dalemusser/donorhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the /student router.
func Routes(h *Handler, gate *auth.Gate) chi.Router {
	r := chi.NewRouter()
	r.Use(gate.Require(auth.Admin))

	r.Post("/add", h.Add)
	r.Get("/all", h.List)
	r.Get("/{id}", h.Get)
	r.Delete("/{id}", h.Delete)
	r.Put("/{id}/edit", h.Edit)
	r.Put("/{id}/editresult", h.EditResult)
	r.Put("/{id}/editsponsor", h.EditSponsor)
	r.Delete("/{id}/sponsor", h.RemoveSponsor)

	return r
}
