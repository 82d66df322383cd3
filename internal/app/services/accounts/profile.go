package accountsvc

import (
	"context"

	donationstore "github.com/dalemusser/donorhub/internal/app/store/donations"
	studentstore "github.com/dalemusser/donorhub/internal/app/store/students"
	userstore "github.com/dalemusser/donorhub/internal/app/store/users"
	"github.com/dalemusser/donorhub/internal/app/system/apperr"
	"github.com/dalemusser/donorhub/internal/app/system/auth"
	"github.com/dalemusser/donorhub/internal/domain/models"
	"go.uber.org/zap"
)

// ProfileView is the signed-in user with donations and sponsored students
// expanded.
type ProfileView struct {
	*models.User
	Donations         []models.Donation `json:"donations"`
	SponsoredStudents []models.Student  `json:"sponsored_students"`
}

func (s *Service) reload(ctx context.Context, actor *models.User) (*models.User, error) {
	if actor == nil {
		return nil, errUserNotFound
	}
	u, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		return nil, notFoundOr(err, errUserNotFound, "load user")
	}
	return u, nil
}

// View returns the actor's profile.
func (s *Service) View(ctx context.Context, actor *models.User) (*ProfileView, error) {
	u, err := s.reload(ctx, actor)
	if err != nil {
		return nil, err
	}
	v := &ProfileView{User: u, Donations: []models.Donation{}, SponsoredStudents: []models.Student{}}
	if len(u.Donations) > 0 {
		ds, err := s.donations.List(ctx, donationstore.Filter{IDs: u.Donations})
		if err != nil {
			return nil, apperr.Internal("load donations", err)
		}
		v.Donations = append(v.Donations, ds...)
	}
	if len(u.SponsoredStudents) > 0 {
		sts, err := s.students.List(ctx, studentstore.Filter{IDs: u.SponsoredStudents})
		if err != nil {
			return nil, apperr.Internal("load students", err)
		}
		v.SponsoredStudents = append(v.SponsoredStudents, sts...)
	}
	return v, nil
}

// RecentDonations is how many donations the dashboard lists.
const RecentDonations = 5

// Dashboard is the donor home screen.
type Dashboard struct {
	TotalDonations    float64           `json:"totalDonations"`
	ChildrenSponsored int               `json:"childrenSponsored"`
	LastDonation      *models.Donation  `json:"lastDonation"`
	RecentDonations   []models.Donation `json:"recentDonations"`
	Documents         []models.Document `json:"documents"`
}

// Dashboard summarizes the actor's giving. Requires a verified account.
func (s *Service) Dashboard(ctx context.Context, actor *models.User) (*Dashboard, error) {
	u, err := s.reload(ctx, actor)
	if err != nil {
		return nil, err
	}
	if !u.IsVerified {
		return nil, errNotVerified
	}
	recent, err := s.donations.List(ctx, donationstore.Filter{UserID: &u.ID, Limit: RecentDonations})
	if err != nil {
		return nil, apperr.Internal("load donations", err)
	}
	docs, err := s.documents.List(ctx, 0)
	if err != nil {
		return nil, apperr.Internal("load documents", err)
	}
	d := &Dashboard{
		TotalDonations:    u.TotalDonation,
		ChildrenSponsored: len(u.SponsoredStudents),
		RecentDonations:   append([]models.Donation{}, recent...),
		Documents:         docs,
	}
	if len(recent) > 0 {
		d.LastDonation = &recent[0]
	}
	return d, nil
}

// EditProfile applies upd to the actor's own profile and returns a
// Profile-class token. Nothing is written unless every check passes.
func (s *Service) EditProfile(ctx context.Context, actor *models.User, username string, upd userstore.ProfileUpdate) (*Session, error) {
	if actor == nil || actor.Username != username {
		return nil, apperr.Forbidden("NOT_OWN_PROFILE", "You can only edit your own profile.")
	}
	if upd.Empty() {
		return nil, apperr.Validation("NO_UPDATES", "No fields provided for update.")
	}
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, notFoundOr(err, errUserNotFound, "load user")
	}
	if !u.IsVerified {
		return nil, errNotVerified
	}
	sponsor, gender := "", ""
	if upd.TypeOfSponsor != nil {
		sponsor = *upd.TypeOfSponsor
	}
	if upd.Gender != nil {
		gender = *upd.Gender
	}
	if err := validateProfile(sponsor, gender); err != nil {
		return nil, err
	}
	if upd.Name != nil && *upd.Name == "" {
		return nil, apperr.Validation("MISSING_FIELDS", "Name cannot be empty.")
	}

	if err := s.users.UpdateProfile(ctx, u.ID, upd); err != nil {
		return nil, notFoundOr(err, errUserNotFound, "update profile")
	}
	upd.Apply(&u.Profile)
	s.log.Info("profile updated", zap.String("user_id", u.ID.Hex()))
	return s.session(u, auth.Profile)
}

// ChangePassword replaces the password after checking the old one. The
// token's email must match the account.
func (s *Service) ChangePassword(ctx context.Context, actor *models.User, username, oldPassword, newPassword string) error {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return notFoundOr(err, errUserNotFound, "load user")
	}
	if !u.IsVerified {
		return errNotVerified
	}
	if oldPassword == "" || newPassword == "" {
		return apperr.Validation("MISSING_FIELDS", "Old and new passwords are required.")
	}
	if actor == nil || actor.Email != u.Email {
		return apperr.Forbidden("FORBIDDEN", "Unauthorized access.")
	}
	if !checkPassword(u.PasswordHash, oldPassword) {
		return apperr.Unauthorized("INCORRECT_PASSWORD", "Incorrect old password.")
	}
	if len(newPassword) < MinPasswordLen {
		return errWeakPassword
	}

	hash, err := s.hash(newPassword)
	if err != nil {
		return err
	}
	if err := s.users.SetPassword(ctx, u.ID, hash); err != nil {
		return apperr.Internal("set password", err)
	}
	s.notifier.Notify(s.emails.PasswordChanged(u.Email, u.Name, false))
	return nil
}
