// internal/app/features/documents/routes.go
package documents

import (
	"github.com/dalemusser/donorhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the /document router.
func Routes(h *Handler, gate *auth.Gate) chi.Router {
	r := chi.NewRouter()
	r.With(gate.Require(auth.SignedIn)).Get("/all", h.List)
	r.With(gate.Require(auth.Admin)).Post("/upload", h.Upload)
	return r
}
