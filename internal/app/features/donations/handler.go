// internal/app/features/donations/handler.go
package donations

import (
	"context"
	"net/http"

	donationsvc "github.com/dalemusser/donorhub/internal/app/services/donations"
	"github.com/dalemusser/donorhub/internal/app/system/auth"
	"github.com/dalemusser/donorhub/internal/app/system/blob"
	"github.com/dalemusser/donorhub/internal/app/system/formutil"
	"github.com/dalemusser/donorhub/internal/app/system/limits"
	"github.com/dalemusser/donorhub/internal/app/system/respond"
	"github.com/dalemusser/donorhub/internal/app/system/timeouts"
	"github.com/dalemusser/donorhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler serves /donation.
type Handler struct {
	Ledger *donationsvc.Service
	Blobs  *blob.Manager
	Log    *zap.Logger
}

func NewHandler(ledger *donationsvc.Service, blobs *blob.Manager, logger *zap.Logger) *Handler {
	return &Handler{Ledger: ledger, Blobs: blobs, Log: logger}
}

type donationResponse struct {
	Message  string           `json:"message"`
	Donation *models.Donation `json:"donation"`
}

func fieldsFrom(r *http.Request) (donationsvc.Fields, error) {
	amount, err := formutil.Float(r, "amount")
	if err != nil {
		return donationsvc.Fields{}, err
	}
	date, err := formutil.Date(r, "donationDate")
	if err != nil {
		return donationsvc.Fields{}, err
	}
	numChild, err := formutil.Int(r, "numChild")
	if err != nil {
		return donationsvc.Fields{}, err
	}
	return donationsvc.Fields{
		Amount:        amount,
		DonationDate:  date,
		DonorName:     formutil.String(r, "name"),
		ContactNumber: formutil.String(r, "contactNumber"),
		Email:         formutil.String(r, "email"),
		NumChild:      numChild,
	}, nil
}

// Donate handles POST /donation/donate (multipart, optional receipt).
func (h *Handler) Donate(w http.ResponseWriter, r *http.Request) {
	if err := formutil.Parse(w, r, limits.MaxDocumentUpload); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	f, err := fieldsFrom(r)
	if err == nil {
		err = donationsvc.Validate(f)
	}
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	file, err := formutil.OpenFile(r, "receipt", "donation", limits.MaxDocumentUpload)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	var d *models.Donation
	if file == nil {
		d, err = h.Ledger.Record(ctx, f, "")
	} else {
		defer file.Close()
		_, err = h.Blobs.UploadThenPersist(ctx, file.Upload, func(ctx context.Context, ref blob.Ref) error {
			var perr error
			d, perr = h.Ledger.Record(ctx, f, ref.URL)
			return perr
		})
	}
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.Created(w, donationResponse{Message: "Donation made successfully", Donation: d})
}

// Get handles GET /donation/viewSingleDonation/{donationId}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	v, err := h.Ledger.Get(ctx, chi.URLParam(r, "donationId"))
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, struct {
		Donation *donationsvc.View `json:"donation"`
	}{v})
}

// List handles GET /donation/viewAllDonation?status=pending|verified|rejected.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	vs, err := h.Ledger.List(ctx, r.URL.Query().Get("status"))
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if vs == nil {
		vs = []donationsvc.View{}
	}
	respond.OK(w, struct {
		Donations []donationsvc.View `json:"donations"`
	}{vs})
}

// Verify handles PUT /donation/{donationId}/verify.
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	admin, _ := auth.CurrentUser(r)
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	d, err := h.Ledger.Verify(ctx, chi.URLParam(r, "donationId"), admin)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, donationResponse{Message: "Donation verified successfully", Donation: d})
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

// Reject handles PUT /donation/{donationId}/reject.
func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	var req rejectRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	admin, _ := auth.CurrentUser(r)
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	d, err := h.Ledger.Reject(ctx, chi.URLParam(r, "donationId"), req.Reason, admin)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, donationResponse{Message: "Donation rejected", Donation: d})
}

type bulkDeleteRequest struct {
	IDs []string `json:"donationIds"`
}

// BulkDelete handles DELETE /donation/bulk-delete. Partial failure is
// reported in the body with a 200.
func (h *Handler) BulkDelete(w http.ResponseWriter, r *http.Request) {
	var req bulkDeleteRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Batch())
	defer cancel()

	res, err := h.Ledger.BulkDelete(ctx, req.IDs)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, res)
}
