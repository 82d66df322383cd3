// internal/app/features/contacts/handler.go
package contacts

import (
	"context"
	"net/http"
	"net/mail"
	"strings"
	"time"

	contactstore "github.com/dalemusser/donorhub/internal/app/store/contacts"
	"github.com/dalemusser/donorhub/internal/app/system/apperr"
	"github.com/dalemusser/donorhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/donorhub/internal/app/system/mailer"
	"github.com/dalemusser/donorhub/internal/app/system/normalize"
	"github.com/dalemusser/donorhub/internal/app/system/respond"
	"github.com/dalemusser/donorhub/internal/app/system/timeouts"
	"github.com/dalemusser/donorhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler serves /contact: the public form and the admin inbox.
type Handler struct {
	Contacts *contactstore.Store
	Notifier mailer.Notifier
	Emails   mailer.Builder
	Log      *zap.Logger
	Now      func() time.Time
}

func NewHandler(contacts *contactstore.Store, notifier mailer.Notifier, emails mailer.Builder, logger *zap.Logger) *Handler {
	return &Handler{Contacts: contacts, Notifier: notifier, Emails: emails, Log: logger, Now: time.Now}
}

type submitRequest struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	ContactNumber string `json:"contactNumber"`
	Subject       string `json:"subject"`
	Message       string `json:"message"`
}

// Submit handles POST /contact/submit. Markup is stripped from every field
// before storage; the sender gets an acknowledgement.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	c := models.Contact{
		Name:          strings.TrimSpace(htmlsanitize.StripTags(req.Name)),
		Email:         normalize.Email(req.Email),
		ContactNumber: normalize.Digits(req.ContactNumber),
		Subject:       strings.TrimSpace(htmlsanitize.StripTags(req.Subject)),
		Message:       strings.TrimSpace(htmlsanitize.StripTags(req.Message)),
	}
	if c.Name == "" || c.Email == "" || c.Subject == "" || c.Message == "" {
		respond.Error(w, r, h.Log, apperr.Validation("FIELDS_REQUIRED", "Name, email, subject and message are required."))
		return
	}
	if _, err := mail.ParseAddress(c.Email); err != nil {
		respond.Error(w, r, h.Log, apperr.Validation("INVALID_EMAIL", "Email address is not valid."))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	c, err := h.Contacts.Create(ctx, c)
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Internal("save contact", err))
		return
	}
	h.Notifier.Notify(h.Emails.ContactAck(c.Email, c.Name, c.Subject, c.Message))
	respond.Created(w, struct {
		Message string `json:"message"`
	}{"Message sent successfully"})
}

// List handles GET /contact/all.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := h.Contacts.List(ctx)
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Internal("list contacts", err))
		return
	}
	respond.OK(w, struct {
		Contacts []models.Contact `json:"contacts"`
	}{list})
}

type bulkDeleteRequest struct {
	IDs []string `json:"ids"`
}

// BulkDelete handles DELETE /contact/bulk-delete. Unknown or malformed ids
// are simply not counted.
func (h *Handler) BulkDelete(w http.ResponseWriter, r *http.Request) {
	var req bulkDeleteRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if len(req.IDs) == 0 {
		respond.Error(w, r, h.Log, apperr.Validation("IDS_REQUIRED", "Provide an array of contact ids."))
		return
	}
	oids := make([]primitive.ObjectID, 0, len(req.IDs))
	for _, id := range req.IDs {
		if oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id)); err == nil {
			oids = append(oids, oid)
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Batch())
	defer cancel()

	n, err := h.Contacts.DeleteMany(ctx, oids)
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Internal("delete contacts", err))
		return
	}
	respond.OK(w, struct {
		Message        string `json:"message"`
		DeletedCount   int64  `json:"deletedCount"`
		TotalRequested int    `json:"totalRequested"`
	}{"Contacts deleted successfully", n, len(req.IDs)})
}

type bulkNotifyRequest struct {
	Emails  []string `json:"emails"`
	Subject string   `json:"subject"`
	Message string   `json:"message"`
}

// BulkNotify handles POST /contact/bulk-notify: reply to every message sent
// from the given addresses, then mark them responded.
func (h *Handler) BulkNotify(w http.ResponseWriter, r *http.Request) {
	var req bulkNotifyRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	req.Subject = strings.TrimSpace(req.Subject)
	emails := make([]string, 0, len(req.Emails))
	for _, e := range req.Emails {
		if e = normalize.Email(e); e != "" {
			emails = append(emails, e)
		}
	}
	if len(emails) == 0 || req.Subject == "" || strings.TrimSpace(req.Message) == "" {
		respond.Error(w, r, h.Log, apperr.Validation("FIELDS_REQUIRED", "Provide emails, subject and message."))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Batch())
	defer cancel()

	found, err := h.Contacts.FindByEmails(ctx, emails)
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Internal("find contacts", err))
		return
	}
	if len(found) == 0 {
		respond.Error(w, r, h.Log, apperr.NotFound("CONTACTS_NOT_FOUND", "No contacts found with the provided emails."))
		return
	}
	for _, c := range found {
		h.Notifier.Notify(h.Emails.ContactReply(c.Email, c.Name, req.Subject, req.Message, c.Subject, c.Message))
	}
	if _, err := h.Contacts.MarkResponded(ctx, emails, htmlsanitize.Sanitize(req.Message), h.Now().UTC()); err != nil {
		respond.Error(w, r, h.Log, apperr.Internal("mark contacts responded", err))
		return
	}
	h.Log.Info("contacts notified", zap.Int("notified", len(found)), zap.Int("requested", len(req.Emails)))
	respond.OK(w, struct {
		Message        string `json:"message"`
		NotifiedCount  int    `json:"notifiedCount"`
		TotalRequested int    `json:"totalRequested"`
	}{"Notifications sent successfully", len(found), len(req.Emails)})
}
