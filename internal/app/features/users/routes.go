// internal/app/features/users/routes.go
package users

import (
	"net/http"

	"github.com/dalemusser/donorhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the /user router. limit guards the endpoints that accept
// credentials or trigger email.
func Routes(h *Handler, gate *auth.Gate, limit func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.With(limit).Post("/register", h.Register)
	r.With(limit).Post("/login", h.Login)
	r.With(limit).Post("/verify", h.VerifyOTP)
	r.With(limit).Post("/forgot-password", h.ForgotPassword)
	r.With(limit).Post("/reset-password/{token}", h.ResetPassword)

	r.Group(func(r chi.Router) {
		r.Use(gate.Require(auth.SignedIn))
		r.With(limit).Post("/resend-otp", h.ResendOTP)
		r.Get("/view", h.View)
		r.Get("/dashboard", h.Dashboard)
		r.Put("/{username}/edit", h.Edit)
		r.Put("/{username}/changePassword", h.ChangePassword)
	})

	r.Group(func(r chi.Router) {
		r.Use(gate.Require(auth.Admin))
		r.Get("/all", h.List)
		r.Post("/bulk-email", h.BulkEmail)
		r.Delete("/{id}", h.Delete)
	})

	return r
}
