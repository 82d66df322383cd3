package users

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dalemusser/donorhub/internal/app/system/mailer"
	"github.com/dalemusser/donorhub/internal/app/system/respond"
	"github.com/dalemusser/donorhub/internal/app/system/timeouts"
	"github.com/dalemusser/donorhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

type listResponse struct {
	Users []models.User `json:"users"`
}

// List handles GET /user/all (admin).
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	us, err := h.Accounts.ListUsers(ctx)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, listResponse{Users: us})
}

// Delete handles DELETE /user/{id} (admin).
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Accounts.DeleteUser(ctx, chi.URLParam(r, "id")); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, messageResponse{Message: "User deleted successfully"})
}

type bulkEmailRequest struct {
	Users           []string       `json:"users"`
	Subject         string         `json:"subject"`
	Message         string         `json:"message"`
	TemplateOptions mailer.Options `json:"templateOptions"`
}

type bulkEmailResponse struct {
	Message    string   `json:"message"`
	Recipients []string `json:"recipients"`
}

// BulkEmail handles POST /user/bulk-email (admin). Emails are queued, not
// sent inline.
func (h *Handler) BulkEmail(w http.ResponseWriter, r *http.Request) {
	var req bulkEmailRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	sent, err := h.Accounts.BulkEmail(ctx, req.Users, req.Subject, req.Message, req.TemplateOptions)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, bulkEmailResponse{
		Message:    fmt.Sprintf("Emails queued for %d users", len(sent)),
		Recipients: sent,
	})
}
