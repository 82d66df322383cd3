package userstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/donorhub/internal/app/system/normalize"
	"github.com/dalemusser/donorhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

var (
	// ErrDuplicate is returned when a username or email is already taken.
	ErrDuplicate = errors.New("a user with this username or email already exists")
	errBadRole   = errors.New(`role must be "regular"|"admin"`)
)

// GetByID loads a user by ObjectID. Returns mongo.ErrNoDocuments if absent.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

// GetByUsername loads a user by exact username.
func (s *Store) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"username": normalize.Username(username)})
}

// GetByEmail looks up a user by normalized email.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"email": normalize.Email(email)})
}

// GetByGoogleID looks up a user linked to a Google account.
func (s *Store) GetByGoogleID(ctx context.Context, googleID string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"google_id": googleID})
}

// GetByResetToken finds the user holding an unexpired reset token hash.
func (s *Store) GetByResetToken(ctx context.Context, tokenHash string, now time.Time) (*models.User, error) {
	return s.findOne(ctx, bson.M{
		"reset_token_hash":   tokenHash,
		"reset_token_expiry": bson.M{"$gt": now},
	})
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, filter).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByIDs loads the users with the given ids, in no particular order.
func (s *Store) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return s.find(ctx, bson.M{"_id": bson.M{"$in": ids}}, nil)
}

// FindByEmails loads users whose email is in emails.
func (s *Store) FindByEmails(ctx context.Context, emails []string) ([]models.User, error) {
	norm := make([]string, 0, len(emails))
	for _, e := range emails {
		if e = normalize.Email(e); e != "" {
			norm = append(norm, e)
		}
	}
	if len(norm) == 0 {
		return nil, nil
	}
	return s.find(ctx, bson.M{"email": bson.M{"$in": norm}}, nil)
}

// List returns all users, newest first.
func (s *Store) List(ctx context.Context) ([]models.User, error) {
	return s.find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
}

func (s *Store) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.User, error) {
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.User
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Create inserts a new user after normalizing identifiers.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	u.ID = primitive.NewObjectID()
	u.Username = normalize.Username(u.Username)
	u.Email = normalize.Email(u.Email)
	u.Name = normalize.Name(u.Name)
	if u.Role == "" {
		u.Role = models.RoleRegular
	}
	if u.Role != models.RoleRegular && u.Role != models.RoleAdmin {
		return models.User{}, errBadRole
	}
	if u.Donations == nil {
		u.Donations = []primitive.ObjectID{}
	}
	if u.SponsoredStudents == nil {
		u.SponsoredStudents = []primitive.ObjectID{}
	}
	now := time.Now()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicate
		}
		return models.User{}, err
	}
	return u, nil
}

// update applies upd to one user. Returns mongo.ErrNoDocuments when nothing
// matched.
func (s *Store) update(ctx context.Context, filter bson.M, upd bson.M) error {
	if set, ok := upd["$set"].(bson.M); ok {
		set["updated_at"] = time.Now()
	} else {
		upd["$set"] = bson.M{"updated_at": time.Now()}
	}
	res, err := s.c.UpdateOne(ctx, filter, upd)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicate
		}
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// SetOTP stores a code pair and its expiry together.
func (s *Store) SetOTP(ctx context.Context, id primitive.ObjectID, otp models.OTP, expiry time.Time) error {
	return s.update(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"otp": otp, "otp_expiry": expiry}})
}

// ClearOTP removes the code and its expiry together.
func (s *Store) ClearOTP(ctx context.Context, id primitive.ObjectID) error {
	return s.update(ctx, bson.M{"_id": id}, bson.M{"$unset": bson.M{"otp": "", "otp_expiry": ""}})
}

// MarkVerified sets is_verified and clears the OTP pair.
func (s *Store) MarkVerified(ctx context.Context, id primitive.ObjectID) error {
	return s.update(ctx, bson.M{"_id": id}, bson.M{
		"$set":   bson.M{"is_verified": true},
		"$unset": bson.M{"otp": "", "otp_expiry": ""},
	})
}

// ClearExpiredOTPs unsets every OTP pair whose expiry has passed.
func (s *Store) ClearExpiredOTPs(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		bson.M{"otp_expiry": bson.M{"$lte": now}},
		bson.M{"$unset": bson.M{"otp": "", "otp_expiry": ""}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// ClearExpiredResetTokens unsets expired reset tokens.
func (s *Store) ClearExpiredResetTokens(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		bson.M{"reset_token_expiry": bson.M{"$lte": now}},
		bson.M{"$unset": bson.M{"reset_token_hash": "", "reset_token_expiry": ""}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// SetPassword replaces the password hash.
func (s *Store) SetPassword(ctx context.Context, id primitive.ObjectID, hash string) error {
	return s.update(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"password_hash": hash}})
}

// SetResetToken stores the hash of a mailed reset token.
func (s *Store) SetResetToken(ctx context.Context, id primitive.ObjectID, tokenHash string, expiry time.Time) error {
	return s.update(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"reset_token_hash":   tokenHash,
		"reset_token_expiry": expiry,
	}})
}

// ResetPassword sets a new hash and consumes the reset token in one write.
func (s *Store) ResetPassword(ctx context.Context, id primitive.ObjectID, hash string) error {
	return s.update(ctx, bson.M{"_id": id}, bson.M{
		"$set":   bson.M{"password_hash": hash},
		"$unset": bson.M{"reset_token_hash": "", "reset_token_expiry": ""},
	})
}

// LinkGoogle attaches a Google account id and marks the user verified.
func (s *Store) LinkGoogle(ctx context.Context, id primitive.ObjectID, googleID string) error {
	return s.update(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"google_id": googleID, "is_verified": true}})
}

// UpdateProfile applies the non-nil fields of upd.
func (s *Store) UpdateProfile(ctx context.Context, id primitive.ObjectID, upd ProfileUpdate) error {
	set := upd.set()
	if len(set) == 0 {
		return nil
	}
	return s.update(ctx, bson.M{"_id": id}, bson.M{"$set": set})
}

// AddDonation appends a donation reference.
func (s *Store) AddDonation(ctx context.Context, userID, donationID primitive.ObjectID) error {
	return s.update(ctx, bson.M{"_id": userID}, bson.M{"$addToSet": bson.M{"donations": donationID}})
}

// PullDonation removes a donation reference. A user without the reference is
// not an error.
func (s *Store) PullDonation(ctx context.Context, userID, donationID primitive.ObjectID) error {
	err := s.update(ctx, bson.M{"_id": userID}, bson.M{"$pull": bson.M{"donations": donationID}})
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil
	}
	return err
}

// CreditDonation adds amount to the running total and stamps the date.
func (s *Store) CreditDonation(ctx context.Context, userID primitive.ObjectID, amount float64, at time.Time) error {
	return s.update(ctx, bson.M{"_id": userID}, bson.M{
		"$inc": bson.M{"total_donation": amount},
		"$set": bson.M{"last_donation_date": at},
	})
}

// AddSponsoredStudent adds a student reference without duplicating it.
func (s *Store) AddSponsoredStudent(ctx context.Context, userID, studentID primitive.ObjectID) error {
	return s.update(ctx, bson.M{"_id": userID}, bson.M{"$addToSet": bson.M{"sponsored_students": studentID}})
}

// PullSponsoredStudent removes a student reference.
func (s *Store) PullSponsoredStudent(ctx context.Context, userID, studentID primitive.ObjectID) error {
	err := s.update(ctx, bson.M{"_id": userID}, bson.M{"$pull": bson.M{"sponsored_students": studentID}})
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil
	}
	return err
}

// DeleteRegular deletes a user by ID only if they hold the regular role.
// Returns the number of documents deleted (0 or 1).
func (s *Store) DeleteRegular(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id, "role": models.RoleRegular})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// Count returns the number of users matching filter.
func (s *Store) Count(ctx context.Context, filter bson.M) (int64, error) {
	return s.c.CountDocuments(ctx, filter)
}

// CountActiveSince counts users whose last verified donation is at or
// after since.
func (s *Store) CountActiveSince(ctx context.Context, since time.Time) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"last_donation_date": bson.M{"$gte": since}})
}

// SponsoredChildren sums the lengths of every sponsored_students list.
func (s *Store) SponsoredChildren(ctx context.Context) (int64, error) {
	cur, err := s.c.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"total": bson.M{"$sum": bson.M{"$size": bson.M{"$ifNull": bson.A{"$sponsored_students", bson.A{}}}}},
		}}},
	})
	if err != nil {
		return 0, err
	}
	defer cur.Close(ctx)
	var rows []struct {
		Total int64 `bson:"total"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Total, nil
}
