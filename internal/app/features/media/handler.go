// internal/app/features/media/handler.go
package media

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	mediastore "github.com/dalemusser/donorhub/internal/app/store/media"
	"github.com/dalemusser/donorhub/internal/app/system/apperr"
	"github.com/dalemusser/donorhub/internal/app/system/blob"
	"github.com/dalemusser/donorhub/internal/app/system/formutil"
	"github.com/dalemusser/donorhub/internal/app/system/limits"
	"github.com/dalemusser/donorhub/internal/app/system/respond"
	"github.com/dalemusser/donorhub/internal/app/system/timeouts"
	"github.com/dalemusser/donorhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the /media gallery.
type Handler struct {
	Media *mediastore.Store
	Blobs *blob.Manager
	Log   *zap.Logger
}

func NewHandler(media *mediastore.Store, blobs *blob.Manager, logger *zap.Logger) *Handler {
	return &Handler{Media: media, Blobs: blobs, Log: logger}
}

// Gallery is the list response: photos and videos, newest first.
type Gallery struct {
	Photos []models.Media `json:"photos"`
	Videos []models.Media `json:"videos"`
}

// List handles GET /media/all?category=.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	items, err := h.Media.List(ctx, strings.TrimSpace(r.URL.Query().Get("category")))
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Internal("list media", err))
		return
	}
	g := Gallery{Photos: []models.Media{}, Videos: []models.Media{}}
	for _, m := range items {
		if m.Type == models.MediaPhoto {
			g.Photos = append(g.Photos, m)
		} else {
			g.Videos = append(g.Videos, m)
		}
	}
	respond.OK(w, g)
}

func mediaFrom(r *http.Request) (models.Media, error) {
	date, err := formutil.Date(r, "date")
	if err != nil {
		return models.Media{}, err
	}
	m := models.Media{
		Type:        strings.ToLower(formutil.String(r, "type")),
		Title:       formutil.String(r, "title"),
		Category:    formutil.String(r, "category"),
		Description: formutil.String(r, "description"),
		Tags:        formutil.CSV(r, "tags"),
		Date:        date,
	}
	switch {
	case m.Type != models.MediaPhoto && m.Type != models.MediaVideo:
		return m, apperr.Validation("INVALID_MEDIA_TYPE", "Type must be photo or video.")
	case m.Title == "":
		return m, apperr.Validation("TITLE_REQUIRED", "Title is required.")
	case m.Category == "":
		return m, apperr.Validation("CATEGORY_REQUIRED", "Category is required.")
	}
	if m.Type == models.MediaVideo {
		m.URL = formutil.String(r, "url")
		u, err := url.Parse(m.URL)
		if m.URL == "" || err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return m, apperr.Validation("INVALID_URL", "A video needs an http(s) URL.")
		}
	}
	return m, nil
}

// Add handles POST /media/add. A photo is uploaded from the "media" part; a
// video only records its URL.
func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	if err := formutil.Parse(w, r, limits.MaxMediaUpload); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	m, err := mediaFrom(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	create := func(ctx context.Context) error {
		created, err := h.Media.Create(ctx, m)
		if err != nil {
			return apperr.Internal("create media", err)
		}
		m = created
		return nil
	}

	if m.Type == models.MediaVideo {
		err = create(ctx)
	} else {
		var f *formutil.File
		f, err = formutil.OpenFile(r, "media", "media", limits.MaxMediaUpload)
		if err == nil && f == nil {
			err = apperr.Validation("FILE_REQUIRED", "A photo upload is required.")
		}
		if err == nil {
			defer f.Close()
			_, err = h.Blobs.UploadThenPersist(ctx, f.Upload, func(ctx context.Context, ref blob.Ref) error {
				m.URL = ref.URL
				return create(ctx)
			})
		}
	}
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.Created(w, struct {
		Message string        `json:"message"`
		Media   *models.Media `json:"media"`
	}{"Media added successfully", &m})
}

// Delete handles DELETE /media/delete/{id}. The record goes first; a photo
// blob is then removed best-effort.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Validation("INVALID_ID", "Invalid media id."))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	m, err := h.Media.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		respond.Error(w, r, h.Log, apperr.NotFound("MEDIA_NOT_FOUND", "Media not found."))
		return
	}
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Internal("load media", err))
		return
	}
	if _, err := h.Media.Delete(ctx, id); err != nil {
		respond.Error(w, r, h.Log, apperr.Internal("delete media", err))
		return
	}
	if m.Type == models.MediaPhoto {
		h.Blobs.DeleteBestEffort(ctx, m.URL)
	}
	respond.OK(w, struct {
		Message string `json:"message"`
	}{"Media deleted successfully"})
}
