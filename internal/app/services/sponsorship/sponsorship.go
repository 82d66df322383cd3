// Package sponsorshipsvc links students to sponsoring donors. Both sides of
// the link (student.sponsor_id and user.sponsored_students) change together.
package sponsorshipsvc

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/donorhub/internal/app/system/apperr"
	"github.com/dalemusser/donorhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// DefaultPercent applies when AssignSponsor gets no percentage.
const DefaultPercent = 100.0

type StudentStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Student, error)
	SetSponsor(ctx context.Context, id, sponsorID primitive.ObjectID, percent float64) error
	ClearSponsor(ctx context.Context, id primitive.ObjectID) error
}

type UserStore interface {
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	AddSponsoredStudent(ctx context.Context, userID, studentID primitive.ObjectID) error
	PullSponsoredStudent(ctx context.Context, userID, studentID primitive.ObjectID) error
}

type Transactor interface {
	RunInTxn(ctx context.Context, fn func(ctx context.Context) error) error
}

type Service struct {
	students StudentStore
	users    UserStore
	txn      Transactor
	log      *zap.Logger
}

func New(students StudentStore, users UserStore, txn Transactor, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{students: students, users: users, txn: txn, log: log}
}

var (
	errStudentNotFound = apperr.NotFound("STUDENT_NOT_FOUND", "Student not found.")
	errSponsorNotFound = apperr.NotFound("SPONSOR_NOT_FOUND", "Sponsor not found.")
	errInvalidID       = apperr.Validation("INVALID_ID", "Invalid student id.")
)

func (s *Service) loadStudent(ctx context.Context, id string) (*models.Student, error) {
	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return nil, errInvalidID
	}
	st, err := s.students.GetByID(ctx, oid)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errStudentNotFound
	}
	if err != nil {
		return nil, apperr.Internal("load student", err)
	}
	return st, nil
}

// AssignSponsor makes sponsorUsername the sponsor of the student. percent
// defaults to 100 and must lie in [0, 100]. A previous sponsor, if any, loses
// the student.
func (s *Service) AssignSponsor(ctx context.Context, studentID, sponsorUsername string, percent *float64) (*models.Student, error) {
	pct := DefaultPercent
	if percent != nil {
		pct = *percent
	}
	if pct < 0 || pct > 100 {
		return nil, apperr.Validation("INVALID_PERCENT", "Sponsorship percent must be between 0 and 100.")
	}
	sponsorUsername = strings.TrimSpace(sponsorUsername)
	if sponsorUsername == "" {
		return nil, apperr.Validation("SPONSOR_REQUIRED", "Sponsor username is required.")
	}

	st, err := s.loadStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	sponsor, err := s.users.GetByUsername(ctx, sponsorUsername)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errSponsorNotFound
	}
	if err != nil {
		return nil, apperr.Internal("load sponsor", err)
	}

	prev := st.SponsorID
	err = s.txn.RunInTxn(ctx, func(ctx context.Context) error {
		if err := s.students.SetSponsor(ctx, st.ID, sponsor.ID, pct); err != nil {
			return err
		}
		if err := s.users.AddSponsoredStudent(ctx, sponsor.ID, st.ID); err != nil {
			return err
		}
		if prev != nil && *prev != sponsor.ID {
			return s.users.PullSponsoredStudent(ctx, *prev, st.ID)
		}
		return nil
	})
	if err != nil {
		return nil, apperr.Internal("assign sponsor", err)
	}

	s.log.Info("sponsor assigned",
		zap.String("student_id", st.ID.Hex()),
		zap.String("sponsor_id", sponsor.ID.Hex()),
		zap.Float64("percent", pct))

	st.SponsorshipStatus = true
	st.SponsorID = &sponsor.ID
	st.SponsorshipPercent = pct
	return st, nil
}

// RemoveSponsor clears the student's sponsorship. Removing from an
// unsponsored student is a no-op.
func (s *Service) RemoveSponsor(ctx context.Context, studentID string) (*models.Student, error) {
	st, err := s.loadStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if !st.SponsorshipStatus && st.SponsorID == nil {
		return st, nil
	}

	prev := st.SponsorID
	err = s.txn.RunInTxn(ctx, func(ctx context.Context) error {
		if err := s.students.ClearSponsor(ctx, st.ID); err != nil {
			return err
		}
		if prev != nil {
			return s.users.PullSponsoredStudent(ctx, *prev, st.ID)
		}
		return nil
	})
	if err != nil {
		return nil, apperr.Internal("remove sponsor", err)
	}

	st.SponsorshipStatus = false
	st.SponsorID = nil
	st.SponsorshipPercent = 0
	return st, nil
}
