// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called from EnsureSchema. Each ensure* function is idempotent.
Errors are aggregated so every problem is visible and startup fails fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	sets := []struct {
		name string
		fn   func(context.Context, *mongo.Database) error
	}{
		{"users", ensureUsers},
		{"donations", ensureDonations},
		{"students", ensureStudents},
		{"media", ensureMedia},
		{"news", ensureNews},
		{"contacts", ensureContacts},
		{"documents", ensureDocuments},
	}
	for _, s := range sets {
		if err := s.fn(ctx, db); err != nil {
			problems = append(problems, s.name+": "+err.Error())
		}
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Core helper: reconcile a set of desired indexes for one collection         */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func sameBoolPtr(a, b *bool) bool {
	return (a != nil && *a) == (b != nil && *b)
}

// Best-effort duplicate detector.
func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 {
				return true
			}
		}
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 11000 {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "E11000") || strings.Contains(strings.ToLower(s), "duplicate key")
}

// IndexOptionsConflict comes back when the same keys exist under another
// name or with different options.
func isOptionsConflictErr(err error) bool {
	return err != nil && strings.Contains(err.Error(), "IndexOptionsConflict")
}

func listExisting(ctx context.Context, coll *mongo.Collection) map[string]existingIndex {
	out := map[string]existingIndex{}
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return out
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			zap.L().Warn("failed to decode existing index",
				zap.String("collection", coll.Name()),
				zap.Error(err))
			continue
		}
		out[keySig(idx.Key)] = idx
	}
	return out
}

// createErr renders a CreateOne failure, pointing at the duplicates when a
// unique index cannot be built.
func createErr(coll *mongo.Collection, name string, unique bool, keys bson.D, err error) string {
	if unique && isDuplicateKeyErr(err) {
		field := ""
		if len(keys) > 0 {
			field = keys[0].Key
		}
		return fmt.Sprintf("%s(%s): cannot create unique index (duplicates present). Finder: "+
			`db.%s.aggregate([{ $group: { _id: "$%s", n: { $sum: 1 } } }, { $match: { n: { $gt: 1 } } }])`,
			coll.Name(), name, coll.Name(), field)
	}
	return fmt.Sprintf("%s(%s): %v", coll.Name(), name, err)
}

func recreate(ctx context.Context, coll *mongo.Collection, old string, m mongo.IndexModel) error {
	if _, err := coll.Indexes().DropOne(ctx, old); err != nil {
		return fmt.Errorf("drop %s: %w", old, err)
	}
	_, err := coll.Indexes().CreateOne(ctx, m)
	return err
}

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	var errs []string

	for _, m := range models {
		var name string
		unique := false
		if m.Options != nil {
			if m.Options.Name != nil {
				name = *m.Options.Name
			}
			unique = m.Options.Unique != nil && *m.Options.Unique
		}
		keys := m.Keys.(bson.D)
		sig := keySig(keys)
		start := time.Now()
		fields := []zap.Field{
			zap.String("collection", coll.Name()),
			zap.String("name", name),
			zap.String("keys", sig),
			zap.Bool("unique", unique),
		}

		ex, found := listExisting(ctx, coll)[sig]
		switch {
		case found && sameBoolPtr(&unique, ex.Unique) && (name == "" || ex.Name == name):
			zap.L().Debug("reusing existing index", append(fields, zap.Duration("took", time.Since(start)))...)
			continue

		case found:
			// Name or options differ: drop and recreate with the desired shape.
			if err := recreate(ctx, coll, ex.Name, m); err != nil {
				zap.L().Warn("index recreate failed", append(fields, zap.Error(err))...)
				errs = append(errs, createErr(coll, name, unique, keys, err))
				continue
			}
			zap.L().Info("index recreated", append(fields, zap.String("from", ex.Name), zap.Duration("took", time.Since(start)))...)
			continue
		}

		_, err := coll.Indexes().CreateOne(ctx, m)
		if err != nil && isOptionsConflictErr(err) {
			if ex, ok := listExisting(ctx, coll)[sig]; ok {
				if sameBoolPtr(&unique, ex.Unique) {
					zap.L().Info("reusing existing index (post-conflict)", append(fields, zap.String("existing", ex.Name))...)
					continue
				}
				err = recreate(ctx, coll, ex.Name, m)
			}
		}
		if err != nil {
			zap.L().Warn("index ensure failed", append(fields, zap.Duration("took", time.Since(start)), zap.Error(err))...)
			errs = append(errs, createErr(coll, name, unique, keys, err))
			continue
		}
		zap.L().Info("index ensured", append(fields, zap.Duration("took", time.Since(start)))...)
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Collection-specific index sets                                              */
/* -------------------------------------------------------------------------- */

func ensureUsers(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("users"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_users_username"),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_users_email"),
		},
		// google_id is absent for password users, so the unique index is sparse.
		{
			Keys:    bson.D{{Key: "google_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true).SetName("uniq_users_google_id"),
		},
		{
			Keys:    bson.D{{Key: "reset_token_hash", Value: 1}},
			Options: options.Index().SetSparse(true).SetName("idx_users_reset_token"),
		},
		// OTP cleanup sweeps by expiry.
		{
			Keys:    bson.D{{Key: "otp_expiry", Value: 1}},
			Options: options.Index().SetSparse(true).SetName("idx_users_otp_expiry"),
		},
		{
			Keys:    bson.D{{Key: "role", Value: 1}, {Key: "updated_at", Value: -1}},
			Options: options.Index().SetName("idx_users_role_updated"),
		},
	})
}

func ensureDonations(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("donations"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "donation_date", Value: -1}},
			Options: options.Index().SetName("idx_donations_user_date"),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("idx_donations_email"),
		},
		// Status filters: pending = neither flag set.
		{
			Keys: bson.D{
				{Key: "verified", Value: 1},
				{Key: "rejected", Value: 1},
				{Key: "donation_date", Value: -1},
			},
			Options: options.Index().SetName("idx_donations_status_date"),
		},
	})
}

func ensureStudents(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("students"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "roll_number", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_students_roll_number"),
		},
		{
			Keys:    bson.D{{Key: "centre", Value: 1}, {Key: "student_name", Value: 1}},
			Options: options.Index().SetName("idx_students_centre_name"),
		},
		{
			Keys:    bson.D{{Key: "sponsor_id", Value: 1}},
			Options: options.Index().SetSparse(true).SetName("idx_students_sponsor"),
		},
		{
			Keys:    bson.D{{Key: "sponsorship_status", Value: 1}},
			Options: options.Index().SetName("idx_students_sponsorship_status"),
		},
	})
}

func ensureMedia(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("media"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "category", Value: 1}, {Key: "date", Value: -1}},
			Options: options.Index().SetName("idx_media_category_date"),
		},
	})
}

func ensureNews(ctx context.Context, db *mongo.Database) error {
	var errs []string
	for _, coll := range []string{"student_stories", "recent_updates"} {
		if err := ensureIndexSet(ctx, db.Collection(coll), []mongo.IndexModel{
			{
				Keys:    bson.D{{Key: "date", Value: -1}},
				Options: options.Index().SetName("idx_" + coll + "_date"),
			},
		}); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if err := ensureIndexSet(ctx, db.Collection("academic_milestones"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_academic_milestones_created"),
		},
	}); err != nil {
		errs = append(errs, err.Error())
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func ensureContacts(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("contacts"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("idx_contacts_email"),
		},
		{
			Keys:    bson.D{{Key: "date", Value: -1}},
			Options: options.Index().SetName("idx_contacts_date"),
		},
	})
}

func ensureDocuments(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("documents"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_documents_created"),
		},
	})
}
