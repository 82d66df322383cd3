// internal/app/features/documents/handler.go
package documents

import (
	"context"
	"net/http"

	documentstore "github.com/dalemusser/donorhub/internal/app/store/documents"
	userstore "github.com/dalemusser/donorhub/internal/app/store/users"
	"github.com/dalemusser/donorhub/internal/app/system/apperr"
	"github.com/dalemusser/donorhub/internal/app/system/auth"
	"github.com/dalemusser/donorhub/internal/app/system/blob"
	"github.com/dalemusser/donorhub/internal/app/system/formutil"
	"github.com/dalemusser/donorhub/internal/app/system/limits"
	"github.com/dalemusser/donorhub/internal/app/system/respond"
	"github.com/dalemusser/donorhub/internal/app/system/timeouts"
	"github.com/dalemusser/donorhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler serves /document: admin uploads shown to every signed-in donor.
type Handler struct {
	Documents *documentstore.Store
	Users     *userstore.Store
	Blobs     *blob.Manager
	Log       *zap.Logger
}

func NewHandler(documents *documentstore.Store, users *userstore.Store, blobs *blob.Manager, logger *zap.Logger) *Handler {
	return &Handler{Documents: documents, Users: users, Blobs: blobs, Log: logger}
}

// Upload handles POST /document/upload. The "document" part is required.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	admin, ok := auth.CurrentUser(r)
	if !ok {
		respond.Error(w, r, h.Log, apperr.Unauthorized("NOT_SIGNED_IN", "Sign in required."))
		return
	}
	if err := formutil.Parse(w, r, limits.MaxDocumentUpload); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	doc := models.Document{
		Title:       formutil.String(r, "title"),
		Description: formutil.String(r, "description"),
		Type:        formutil.String(r, "type"),
		UploadedBy:  admin.ID,
	}
	if doc.Title == "" {
		respond.Error(w, r, h.Log, apperr.Validation("TITLE_REQUIRED", "Title is required."))
		return
	}
	f, err := formutil.OpenFile(r, "document", "document", limits.MaxDocumentUpload)
	if err == nil && f == nil {
		err = apperr.Validation("FILE_REQUIRED", "No file uploaded.")
	}
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	defer f.Close()

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	_, err = h.Blobs.UploadThenPersist(ctx, f.Upload, func(ctx context.Context, ref blob.Ref) error {
		doc.FileURL = ref.URL
		created, err := h.Documents.Create(ctx, doc)
		if err != nil {
			return apperr.Internal("create document", err)
		}
		doc = created
		return nil
	})
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.Created(w, struct {
		Message  string           `json:"message"`
		Document *models.Document `json:"document"`
	}{"Document uploaded successfully", &doc})
}

// Uploader names the admin who uploaded a document.
type Uploader struct {
	Username string `json:"username"`
	Name     string `json:"name"`
}

// View is a document with its uploader.
type View struct {
	models.Document
	Uploader *Uploader `json:"uploader,omitempty"`
}

// List handles GET /document/all, newest first.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	docs, err := h.Documents.List(ctx, 0)
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Internal("list documents", err))
		return
	}
	seen := map[primitive.ObjectID]bool{}
	var ids []primitive.ObjectID
	for _, d := range docs {
		if !seen[d.UploadedBy] {
			seen[d.UploadedBy] = true
			ids = append(ids, d.UploadedBy)
		}
	}
	uploaders := map[primitive.ObjectID]*Uploader{}
	if len(ids) > 0 {
		users, err := h.Users.GetByIDs(ctx, ids)
		if err != nil {
			respond.Error(w, r, h.Log, apperr.Internal("load uploaders", err))
			return
		}
		for _, u := range users {
			uploaders[u.ID] = &Uploader{Username: u.Username, Name: u.Name}
		}
	}
	out := make([]View, 0, len(docs))
	for _, d := range docs {
		out = append(out, View{Document: d, Uploader: uploaders[d.UploadedBy]})
	}
	respond.OK(w, struct {
		Documents []View `json:"documents"`
	}{out})
}
