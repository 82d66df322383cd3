// internal/app/features/admin/stats.go
package admin

import (
	"context"
	"net/http"
	"time"

	donationstore "github.com/dalemusser/donorhub/internal/app/store/donations"
	studentstore "github.com/dalemusser/donorhub/internal/app/store/students"
	userstore "github.com/dalemusser/donorhub/internal/app/store/users"
	"github.com/dalemusser/donorhub/internal/app/system/apperr"
	"github.com/dalemusser/donorhub/internal/app/system/respond"
	"github.com/dalemusser/donorhub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ActiveWindow is how recently a donor must have had a donation verified to
// count as active.
const ActiveWindow = 30 * 24 * time.Hour

// Handler serves /admin.
type Handler struct {
	DB        *mongo.Database
	Users     *userstore.Store
	Donations *donationstore.Store
	Students  *studentstore.Store
	Log       *zap.Logger
	Now       func() time.Time
}

func NewHandler(db *mongo.Database, users *userstore.Store, donations *donationstore.Store, students *studentstore.Store, logger *zap.Logger) *Handler {
	return &Handler{DB: db, Users: users, Donations: donations, Students: students, Log: logger, Now: time.Now}
}

type UserStats struct {
	Total  int64 `json:"total"`
	Active int64 `json:"active"`
}

type DonationStats struct {
	Total    int64   `json:"total"`
	Verified int64   `json:"verified"`
	Pending  int64   `json:"pending"`
	Rejected int64   `json:"rejected"`
	Amount   float64 `json:"amount"`
}

type SponsorshipStats struct {
	TotalChildren     int64 `json:"totalChildren"`
	StudentsSponsored int64 `json:"studentsSponsored"`
}

// Stats is the dashboard summary.
type Stats struct {
	Users       UserStats        `json:"users"`
	Donations   DonationStats    `json:"donations"`
	Sponsorship SponsorshipStats `json:"sponsorship"`
}

// Collect runs the dashboard queries concurrently.
func (h *Handler) Collect(ctx context.Context) (Stats, error) {
	var (
		s      Stats
		totals donationstore.Totals
	)
	since := h.Now().UTC().Add(-ActiveWindow)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		s.Users.Total, err = h.Users.Count(ctx, bson.M{})
		return err
	})
	g.Go(func() (err error) {
		s.Users.Active, err = h.Users.CountActiveSince(ctx, since)
		return err
	})
	g.Go(func() (err error) {
		totals, err = h.Donations.Totals(ctx)
		return err
	})
	g.Go(func() (err error) {
		s.Sponsorship.TotalChildren, err = h.Users.SponsoredChildren(ctx)
		return err
	})
	g.Go(func() (err error) {
		s.Sponsorship.StudentsSponsored, err = h.Students.CountSponsored(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return Stats{}, err
	}

	s.Donations = DonationStats{
		Total:    totals.Count,
		Verified: totals.Verified,
		Pending:  totals.Pending,
		Rejected: totals.Rejected,
		Amount:   totals.VerifiedAmount,
	}
	return s, nil
}

// Stats handles GET /admin/stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	s, err := h.Collect(ctx)
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Internal("collect stats", err))
		return
	}
	respond.OK(w, struct {
		Stats Stats `json:"stats"`
	}{s})
}
