package donationstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/donorhub/internal/app/system/normalize"
	"github.com/dalemusser/donorhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotPending is returned by the state transitions when the donation is
// already verified or rejected (or vanished) at write time.
var ErrNotPending = errors.New("donation is not pending")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("donations")}
}

// pending matches a donation in neither terminal state.
func pending(id primitive.ObjectID) bson.M {
	return bson.M{"_id": id, "verified": false, "rejected": false}
}

// Create inserts d as pending.
func (s *Store) Create(ctx context.Context, d models.Donation) (models.Donation, error) {
	d.ID = primitive.NewObjectID()
	d.Email = normalize.Email(d.Email)
	d.Verified = false
	d.Rejected = false
	now := time.Now()
	d.CreatedAt = now
	d.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, d); err != nil {
		return models.Donation{}, err
	}
	return d, nil
}

// GetByID loads a donation. Returns mongo.ErrNoDocuments if absent.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Donation, error) {
	var d models.Donation
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		return nil, err
	}
	return &d, nil
}

// MarkVerified moves a pending donation to verified. The filter only matches
// pending documents, so a concurrent verify or reject loses with
// ErrNotPending instead of overwriting.
func (s *Store) MarkVerified(ctx context.Context, id, by primitive.ObjectID, at, expiry time.Time) error {
	return s.transition(ctx, id, bson.M{
		"verified":    true,
		"verified_at": at,
		"verified_by": by,
		"expiry_date": expiry,
		"updated_at":  at,
	})
}

// MarkRejected moves a pending donation to rejected with a reason.
func (s *Store) MarkRejected(ctx context.Context, id, by primitive.ObjectID, reason string, at time.Time) error {
	return s.transition(ctx, id, bson.M{
		"rejected":         true,
		"rejection_reason": reason,
		"rejected_at":      at,
		"rejected_by":      by,
		"updated_at":       at,
	})
}

func (s *Store) transition(ctx context.Context, id primitive.ObjectID, set bson.M) error {
	res, err := s.c.UpdateOne(ctx, pending(id), bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotPending
	}
	return nil
}

// Delete removes a donation. Returns the number deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// Filter narrows List. Zero values match everything.
type Filter struct {
	Status string // models.DonationPending | DonationVerified | DonationRejected
	UserID *primitive.ObjectID
	IDs    []primitive.ObjectID
	Limit  int64
}

func (f Filter) query() bson.M {
	q := bson.M{}
	switch f.Status {
	case models.DonationPending:
		q["verified"] = false
		q["rejected"] = false
	case models.DonationVerified:
		q["verified"] = true
	case models.DonationRejected:
		q["rejected"] = true
	}
	if f.UserID != nil {
		q["user_id"] = *f.UserID
	}
	if f.IDs != nil {
		q["_id"] = bson.M{"$in": f.IDs}
	}
	return q
}

// List returns matching donations, newest donation date first.
func (s *Store) List(ctx context.Context, f Filter) ([]models.Donation, error) {
	opts := options.Find().SetSort(bson.D{{Key: "donation_date", Value: -1}, {Key: "_id", Value: -1}})
	if f.Limit > 0 {
		opts.SetLimit(f.Limit)
	}
	cur, err := s.c.Find(ctx, f.query(), opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.Donation
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Totals summarizes the ledger for the admin dashboard.
type Totals struct {
	Count          int64   `bson:"count" json:"count"`
	Verified       int64   `bson:"verified" json:"verified"`
	Pending        int64   `bson:"pending" json:"pending"`
	Rejected       int64   `bson:"rejected" json:"rejected"`
	VerifiedAmount float64 `bson:"verified_amount" json:"verifiedAmount"`
}

// Totals aggregates counts and the verified amount in one pass.
func (s *Store) Totals(ctx context.Context) (Totals, error) {
	cond := func(expr any, then any) bson.M {
		return bson.M{"$cond": bson.A{expr, then, 0}}
	}
	pendingExpr := bson.M{"$and": bson.A{
		bson.M{"$eq": bson.A{"$verified", false}},
		bson.M{"$eq": bson.A{"$rejected", false}},
	}}
	cur, err := s.c.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":             nil,
			"count":           bson.M{"$sum": 1},
			"verified":        bson.M{"$sum": cond("$verified", 1)},
			"rejected":        bson.M{"$sum": cond("$rejected", 1)},
			"pending":         bson.M{"$sum": cond(pendingExpr, 1)},
			"verified_amount": bson.M{"$sum": cond("$verified", "$amount")},
		}}},
	})
	if err != nil {
		return Totals{}, err
	}
	defer cur.Close(ctx)
	var rows []Totals
	if err := cur.All(ctx, &rows); err != nil {
		return Totals{}, err
	}
	if len(rows) == 0 {
		return Totals{}, nil
	}
	return rows[0], nil
}
