// internal/app/features/news/handler.go
package news

import (
	"context"
	"errors"
	"net/http"

	newsstore "github.com/dalemusser/donorhub/internal/app/store/news"
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

// Handler serves /news: student stories, academic milestones and recent
// updates.
type Handler struct {
	News  *newsstore.Store
	Blobs *blob.Manager
	Log   *zap.Logger
}

func NewHandler(news *newsstore.Store, blobs *blob.Manager, logger *zap.Logger) *Handler {
	return &Handler{News: news, Blobs: blobs, Log: logger}
}

var errInvalidKind = apperr.Validation("INVALID_CONTENT_TYPE", "Type must be story, milestone or update.")

// List handles GET /news/all.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	feed, err := h.News.All(ctx)
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Internal("load news", err))
		return
	}
	respond.OK(w, feed)
}

type contentResponse struct {
	Message string `json:"message"`
	Content any    `json:"content"`
}

func required(v, code, msg string) error {
	if v == "" {
		return apperr.Validation(code, msg)
	}
	return nil
}

// Add handles POST /news/add. The "type" field selects the collection; a
// story may carry a studentImage.
func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	if err := formutil.Parse(w, r, limits.MaxImageUpload); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	kind := formutil.String(r, "type")
	title := formutil.String(r, "title")
	date, err := formutil.Date(r, "date")
	if err == nil && !newsstore.ValidKind(kind) {
		err = errInvalidKind
	}
	if err == nil {
		err = required(title, "TITLE_REQUIRED", "Title is required.")
	}
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	var content any
	switch kind {
	case models.NewsMilestone:
		number, err := formutil.Int(r, "number")
		if err == nil {
			err = required(formutil.String(r, "category"), "CATEGORY_REQUIRED", "Category is required.")
		}
		if err != nil {
			respond.Error(w, r, h.Log, err)
			return
		}
		m, err := h.News.CreateMilestone(ctx, models.AcademicMilestone{
			Category:    formutil.String(r, "category"),
			Number:      number,
			Title:       title,
			Description: formutil.String(r, "description"),
		})
		if err != nil {
			respond.Error(w, r, h.Log, apperr.Internal("create milestone", err))
			return
		}
		content = m

	case models.NewsUpdate:
		u, err := h.News.CreateUpdate(ctx, models.RecentUpdate{
			Date:        date,
			ExamType:    formutil.String(r, "examType"),
			Title:       title,
			Description: formutil.String(r, "description"),
		})
		if err != nil {
			respond.Error(w, r, h.Log, apperr.Internal("create update", err))
			return
		}
		content = u

	default:
		st := models.StudentStory{
			StudentName: formutil.String(r, "studentName"),
			Category:    formutil.String(r, "category"),
			Title:       title,
			Description: formutil.String(r, "description"),
			Class:       formutil.String(r, "class"),
			Date:        date,
			Score:       formutil.String(r, "score"),
		}
		if err := required(st.StudentName, "STUDENT_NAME_REQUIRED", "Student name is required."); err != nil {
			respond.Error(w, r, h.Log, err)
			return
		}
		f, err := formutil.OpenFile(r, "studentImage", "news", limits.MaxImageUpload)
		if err != nil {
			respond.Error(w, r, h.Log, err)
			return
		}
		create := func(ctx context.Context) error {
			created, err := h.News.CreateStory(ctx, st)
			if err != nil {
				return apperr.Internal("create story", err)
			}
			st = created
			return nil
		}
		if f == nil {
			err = create(ctx)
		} else {
			defer f.Close()
			_, err = h.Blobs.UploadThenPersist(ctx, f.Upload, func(ctx context.Context, ref blob.Ref) error {
				st.StudentImage = ref.URL
				return create(ctx)
			})
		}
		if err != nil {
			respond.Error(w, r, h.Log, err)
			return
		}
		content = st
	}

	respond.Created(w, contentResponse{Message: kind + " added successfully", Content: content})
}

// Delete handles DELETE /news/{id}?type=. Deleting a story also drops its
// image best-effort.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	kind := r.URL.Query().Get("type")
	if !newsstore.ValidKind(kind) {
		respond.Error(w, r, h.Log, errInvalidKind)
		return
	}
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Validation("INVALID_ID", "Invalid content id."))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	var image string
	if kind == models.NewsStory {
		st, err := h.News.GetStory(ctx, id)
		if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
			respond.Error(w, r, h.Log, apperr.Internal("load story", err))
			return
		}
		if st != nil {
			image = st.StudentImage
		}
	}
	n, err := h.News.Delete(ctx, kind, id)
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Internal("delete content", err))
		return
	}
	if n == 0 {
		respond.Error(w, r, h.Log, apperr.NotFound("CONTENT_NOT_FOUND", "Content not found."))
		return
	}
	h.Blobs.DeleteBestEffort(ctx, image)
	respond.OK(w, struct {
		Message string `json:"message"`
	}{kind + " deleted successfully"})
}
