package donationsvc

import (
	"context"

	donationstore "github.com/dalemusser/donorhub/internal/app/store/donations"
	"github.com/dalemusser/donorhub/internal/app/system/apperr"
	"github.com/dalemusser/donorhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Donor is the public summary of a linked user.
type Donor struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Email    string `json:"email"`
}

// View is a donation with its status and, when linked, its donor.
type View struct {
	models.Donation
	Status string `json:"status"`
	Donor  *Donor `json:"donor,omitempty"`
}

// Get returns one donation with its donor summary.
func (s *Service) Get(ctx context.Context, id string) (*View, error) {
	d, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	views, err := s.attachDonors(ctx, []models.Donation{*d})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// List returns donations filtered by status ("" for all).
func (s *Service) List(ctx context.Context, status string) ([]View, error) {
	switch status {
	case "", models.DonationPending, models.DonationVerified, models.DonationRejected:
	default:
		return nil, apperr.Validation("INVALID_STATUS", "Status must be pending, verified or rejected.")
	}
	ds, err := s.donations.List(ctx, donationstore.Filter{Status: status})
	if err != nil {
		return nil, apperr.Internal("list donations", err)
	}
	return s.attachDonors(ctx, ds)
}

func (s *Service) attachDonors(ctx context.Context, ds []models.Donation) ([]View, error) {
	seen := map[primitive.ObjectID]bool{}
	var ids []primitive.ObjectID
	for _, d := range ds {
		if d.UserID != nil && !seen[*d.UserID] {
			seen[*d.UserID] = true
			ids = append(ids, *d.UserID)
		}
	}
	donors := map[primitive.ObjectID]*Donor{}
	if len(ids) > 0 {
		users, err := s.users.GetByIDs(ctx, ids)
		if err != nil {
			return nil, apperr.Internal("load donors", err)
		}
		for _, u := range users {
			donors[u.ID] = &Donor{ID: u.ID.Hex(), Username: u.Username, Name: u.Name, Email: u.Email}
		}
	}

	out := make([]View, 0, len(ds))
	for _, d := range ds {
		v := View{Donation: d, Status: d.Status()}
		if d.UserID != nil {
			v.Donor = donors[*d.UserID]
		}
		out = append(out, v)
	}
	return out, nil
}
