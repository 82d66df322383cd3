package contactstore

import (
	"context"
	"time"

	"github.com/dalemusser/donorhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("contacts")}
}

func (s *Store) Create(ctx context.Context, c models.Contact) (models.Contact, error) {
	c.ID = primitive.NewObjectID()
	now := time.Now()
	c.Date = now
	c.CreatedAt = now
	c.IsResponded = false
	if _, err := s.c.InsertOne(ctx, c); err != nil {
		return models.Contact{}, err
	}
	return c, nil
}

// List returns every message, newest first.
func (s *Store) List(ctx context.Context) ([]models.Contact, error) {
	return s.find(ctx, bson.M{})
}

// FindByEmails returns the messages sent from any of the addresses.
func (s *Store) FindByEmails(ctx context.Context, emails []string) ([]models.Contact, error) {
	return s.find(ctx, bson.M{"email": bson.M{"$in": emails}})
}

func (s *Store) find(ctx context.Context, q bson.M) ([]models.Contact, error) {
	cur, err := s.c.Find(ctx, q, options.Find().SetSort(bson.D{{Key: "date", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []models.Contact{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteMany removes the given ids and returns how many existed.
func (s *Store) DeleteMany(ctx context.Context, ids []primitive.ObjectID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := s.c.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// MarkResponded records the reply on every message from the addresses.
func (s *Store) MarkResponded(ctx context.Context, emails []string, response string, at time.Time) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		bson.M{"email": bson.M{"$in": emails}},
		bson.M{"$set": bson.M{"response": response, "is_responded": true, "responded_at": at}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}
