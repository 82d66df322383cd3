package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/donorhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, ok := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if !ok || rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// TestPassword is the plain-text password of every fixture user.
const TestPassword = "correct-horse-battery"

// CreateUser inserts a user with TestPassword.
func (f *Fixtures) CreateUser(ctx context.Context, username, email, role string, verified bool) models.User {
	f.t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		f.t.Fatalf("hash password: %v", err)
	}
	now := time.Now().UTC()
	u := models.User{
		ID:                primitive.NewObjectID(),
		Username:          username,
		Email:             email,
		PasswordHash:      string(hash),
		Role:              role,
		IsVerified:        verified,
		Profile:           models.Profile{Name: username},
		Donations:         []primitive.ObjectID{},
		SponsoredStudents: []primitive.ObjectID{},
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// CreateDonation inserts a pending donation, linked to user when non-nil.
func (f *Fixtures) CreateDonation(ctx context.Context, amount float64, email string, user *primitive.ObjectID) models.Donation {
	f.t.Helper()

	now := time.Now().UTC()
	d := models.Donation{
		ID:            primitive.NewObjectID(),
		Amount:        amount,
		DonationDate:  now,
		DonorName:     "Fixture Donor",
		ContactNumber: "9999999999",
		Email:         email,
		UserID:        user,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if _, err := f.db.Collection("donations").InsertOne(ctx, d); err != nil {
		f.t.Fatalf("failed to create test donation: %v", err)
	}
	return d
}

// CreateStudent inserts an unsponsored, active student.
func (f *Fixtures) CreateStudent(ctx context.Context, name, rollNumber string) models.Student {
	f.t.Helper()

	now := time.Now().UTC()
	s := models.Student{
		ID:           primitive.NewObjectID(),
		StudentName:  name,
		RollNumber:   rollNumber,
		Gender:       "Female",
		DOB:          now.AddDate(-10, 0, 0),
		FathersName:  "Fixture Parent",
		Centre:       "Dhanbad",
		ActiveStatus: true,
		Results:      []models.ResultEntry{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := f.db.Collection("students").InsertOne(ctx, s); err != nil {
		f.t.Fatalf("failed to create test student: %v", err)
	}
	return s
}
