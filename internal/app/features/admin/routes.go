// internal/app/features/admin/routes.go
package admin

import (
	"github.com/dalemusser/donorhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the /admin router.
func Routes(h *Handler, gate *auth.Gate) chi.Router {
	r := chi.NewRouter()
	r.Use(gate.Require(auth.Admin))
	r.Get("/stats", h.Stats)
	r.Get("/backup", h.Backup)
	return r
}
