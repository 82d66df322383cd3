package studentstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/donorhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrDuplicateRollNumber is returned when a roll number is already taken.
var ErrDuplicateRollNumber = errors.New("a student with this roll number already exists")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("students")}
}

// Create inserts a student. Sponsorship fields start cleared.
func (s *Store) Create(ctx context.Context, st models.Student) (models.Student, error) {
	st.ID = primitive.NewObjectID()
	st.SponsorshipStatus = false
	st.SponsorID = nil
	st.SponsorshipPercent = 0
	if st.Results == nil {
		st.Results = []models.ResultEntry{}
	}
	now := time.Now()
	st.CreatedAt = now
	st.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, st); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Student{}, ErrDuplicateRollNumber
		}
		return models.Student{}, err
	}
	return st, nil
}

// GetByID loads a student. Returns mongo.ErrNoDocuments if absent.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Student, error) {
	var st models.Student
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&st); err != nil {
		return nil, err
	}
	return &st, nil
}

// Filter narrows List.
type Filter struct {
	Centre    string
	Sponsored *bool
	SponsorID *primitive.ObjectID
	IDs       []primitive.ObjectID
}

// List returns matching students ordered by name.
func (s *Store) List(ctx context.Context, f Filter) ([]models.Student, error) {
	q := bson.M{}
	if f.Centre != "" {
		q["centre"] = f.Centre
	}
	if f.Sponsored != nil {
		q["sponsorship_status"] = *f.Sponsored
	}
	if f.SponsorID != nil {
		q["sponsor_id"] = *f.SponsorID
	}
	if f.IDs != nil {
		q["_id"] = bson.M{"$in": f.IDs}
	}
	cur, err := s.c.Find(ctx, q, options.Find().SetSort(bson.D{{Key: "student_name", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.Student
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) update(ctx context.Context, id primitive.ObjectID, upd bson.M) error {
	set, _ := upd["$set"].(bson.M)
	if set == nil {
		set = bson.M{}
		upd["$set"] = set
	}
	set["updated_at"] = time.Now()
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, upd)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateRollNumber
		}
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Update applies the non-nil fields of upd.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, upd Update) error {
	set := upd.set()
	if len(set) == 0 {
		return nil
	}
	return s.update(ctx, id, bson.M{"$set": set})
}

// AddResult appends an entry to the result history and mirrors it into the
// current result and class.
func (s *Store) AddResult(ctx context.Context, id primitive.ObjectID, e models.ResultEntry) error {
	set := bson.M{"result": e.Result}
	if e.Class != "" {
		set["class"] = e.Class
	}
	if e.Session != "" {
		set["current_session"] = e.Session
	}
	return s.update(ctx, id, bson.M{"$push": bson.M{"results": e}, "$set": set})
}

// SetSponsor records a sponsorship.
func (s *Store) SetSponsor(ctx context.Context, id, sponsorID primitive.ObjectID, percent float64) error {
	return s.update(ctx, id, bson.M{"$set": bson.M{
		"sponsorship_status":  true,
		"sponsor_id":          sponsorID,
		"sponsorship_percent": percent,
	}})
}

// ClearSponsor removes a sponsorship.
func (s *Store) ClearSponsor(ctx context.Context, id primitive.ObjectID) error {
	return s.update(ctx, id, bson.M{
		"$set":   bson.M{"sponsorship_status": false, "sponsorship_percent": 0},
		"$unset": bson.M{"sponsor_id": ""},
	})
}

// Delete removes a student. Returns the number deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// CountSponsored counts students with an active sponsorship.
func (s *Store) CountSponsored(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"sponsorship_status": true})
}
