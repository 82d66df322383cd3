package newsstore

import (
	"context"
	"time"

	"github.com/dalemusser/donorhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store covers the three news collections: student stories, academic
// milestones and recent updates.
type Store struct {
	stories    *mongo.Collection
	milestones *mongo.Collection
	updates    *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{
		stories:    db.Collection("student_stories"),
		milestones: db.Collection("academic_milestones"),
		updates:    db.Collection("recent_updates"),
	}
}

// Feed is everything shown on the news page.
type Feed struct {
	StudentStories     []models.StudentStory      `json:"studentStories"`
	AcademicMilestones []models.AcademicMilestone `json:"academicMilestones"`
	RecentUpdates      []models.RecentUpdate      `json:"recentUpdates"`
}

func (s *Store) collection(kind string) *mongo.Collection {
	switch kind {
	case models.NewsStory:
		return s.stories
	case models.NewsMilestone:
		return s.milestones
	case models.NewsUpdate:
		return s.updates
	}
	return nil
}

// ValidKind reports whether kind names a news collection.
func ValidKind(kind string) bool {
	switch kind {
	case models.NewsStory, models.NewsMilestone, models.NewsUpdate:
		return true
	}
	return false
}

func (s *Store) CreateStory(ctx context.Context, st models.StudentStory) (models.StudentStory, error) {
	st.ID = primitive.NewObjectID()
	st.CreatedAt = time.Now()
	if st.Date.IsZero() {
		st.Date = st.CreatedAt
	}
	_, err := s.stories.InsertOne(ctx, st)
	return st, err
}

func (s *Store) CreateMilestone(ctx context.Context, m models.AcademicMilestone) (models.AcademicMilestone, error) {
	m.ID = primitive.NewObjectID()
	m.CreatedAt = time.Now()
	_, err := s.milestones.InsertOne(ctx, m)
	return m, err
}

func (s *Store) CreateUpdate(ctx context.Context, u models.RecentUpdate) (models.RecentUpdate, error) {
	u.ID = primitive.NewObjectID()
	u.CreatedAt = time.Now()
	if u.Date.IsZero() {
		u.Date = u.CreatedAt
	}
	_, err := s.updates.InsertOne(ctx, u)
	return u, err
}

// GetStory loads one story. Returns mongo.ErrNoDocuments if absent.
func (s *Store) GetStory(ctx context.Context, id primitive.ObjectID) (*models.StudentStory, error) {
	var st models.StudentStory
	if err := s.stories.FindOne(ctx, bson.M{"_id": id}).Decode(&st); err != nil {
		return nil, err
	}
	return &st, nil
}

func findSorted[T any](ctx context.Context, c *mongo.Collection, field string) ([]T, error) {
	cur, err := c.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: field, Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []T{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// All loads the three collections newest first.
func (s *Store) All(ctx context.Context) (Feed, error) {
	var (
		f   Feed
		err error
	)
	if f.StudentStories, err = findSorted[models.StudentStory](ctx, s.stories, "date"); err != nil {
		return Feed{}, err
	}
	if f.AcademicMilestones, err = findSorted[models.AcademicMilestone](ctx, s.milestones, "created_at"); err != nil {
		return Feed{}, err
	}
	if f.RecentUpdates, err = findSorted[models.RecentUpdate](ctx, s.updates, "date"); err != nil {
		return Feed{}, err
	}
	return f, nil
}

// Delete removes one item of the given kind. Returns the number deleted.
func (s *Store) Delete(ctx context.Context, kind string, id primitive.ObjectID) (int64, error) {
	c := s.collection(kind)
	if c == nil {
		return 0, nil
	}
	res, err := c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
