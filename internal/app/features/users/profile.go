package users

import (
	"context"
	"net/http"

	userstore "github.com/dalemusser/donorhub/internal/app/store/users"
	"github.com/dalemusser/donorhub/internal/app/system/auth"
	"github.com/dalemusser/donorhub/internal/app/system/respond"
	"github.com/dalemusser/donorhub/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
)

// View handles GET /user/view.
func (h *Handler) View(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.CurrentUser(r)
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	v, err := h.Accounts.View(ctx, actor)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, v)
}

// Dashboard handles GET /user/dashboard.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.CurrentUser(r)
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	d, err := h.Accounts.Dashboard(ctx, actor)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, d)
}

// Edit handles PUT /user/{username}/edit. The body lists only the fields
// to change.
func (h *Handler) Edit(w http.ResponseWriter, r *http.Request) {
	var upd userstore.ProfileUpdate
	if err := respond.Decode(w, r, &upd); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	actor, _ := auth.CurrentUser(r)
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	sess, err := h.Accounts.EditProfile(ctx, actor, chi.URLParam(r, "username"), upd)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, sessionResponse{Message: "Profile updated successfully", Session: sess})
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

// ChangePassword handles PUT /user/{username}/changePassword.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	actor, _ := auth.CurrentUser(r)
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Accounts.ChangePassword(ctx, actor, chi.URLParam(r, "username"), req.OldPassword, req.NewPassword); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, messageResponse{Message: "Password changed successfully"})
}

type forgotRequest struct {
	Email string `json:"email"`
}

// ForgotPassword handles POST /user/forgot-password.
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Accounts.ForgotPassword(ctx, req.Email); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, messageResponse{Message: "Password reset link sent to your email"})
}

type resetRequest struct {
	Password string `json:"password"`
}

// ResetPassword handles POST /user/reset-password/{token}.
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Accounts.ResetPassword(ctx, chi.URLParam(r, "token"), req.Password); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, messageResponse{Message: "Password has been reset successfully"})
}
