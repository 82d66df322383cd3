// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/donorhub/internal/domain/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// collections lists every collection the app writes. A nil schema means the
// collection only has to exist.
func collections() []struct {
	name   string
	schema bson.M
} {
	return []struct {
		name   string
		schema bson.M
	}{
		{"users", usersSchema()},
		{"donations", donationsSchema()},
		{"students", studentsSchema()},
		{"media", mediaSchema()},
		{"student_stories", nil},
		{"academic_milestones", nil},
		{"recent_updates", nil},
		{"contacts", nil},
		{"documents", nil},
	}
}

// EnsureAll creates missing collections and attaches JSON-Schema validators.
// Servers without collMod support (some DocumentDB versions) keep their
// collections unvalidated; that is logged, not returned.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	existing := map[string]bool{}
	if names, err := db.ListCollectionNames(ctx, bson.M{}); err == nil {
		for _, n := range names {
			existing[n] = true
		}
	}

	var problems []string
	for _, c := range collections() {
		if !existing[c.name] {
			err := db.CreateCollection(ctx, c.name)
			switch {
			case err == nil:
				zap.L().Info("created collection", zap.String("collection", c.name))
			case !hasCode(err, 48, "already exists", "namespace exists"):
				problems = append(problems, c.name+": "+err.Error())
				continue
			}
		}
		if c.schema == nil {
			continue
		}
		err := db.RunCommand(ctx, bson.D{
			{Key: "collMod", Value: c.name},
			{Key: "validator", Value: c.schema},
			{Key: "validationLevel", Value: "moderate"},
			{Key: "validationAction", Value: "error"},
		}).Err()
		switch {
		case err == nil:
			zap.L().Debug("validator ensured", zap.String("collection", c.name))
		case hasCode(err, 59, "no such command") || hasCode(err, 115, "not implemented", "not supported"):
			zap.L().Info("validator skipped (unsupported)", zap.String("collection", c.name))
		default:
			problems = append(problems, c.name+": "+err.Error())
		}
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

// hasCode reports whether err is a command error with code, or mentions any
// of the phrases.
func hasCode(err error, code int32, phrases ...string) bool {
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == code {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, p := range phrases {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

var number = bson.A{"double", "int", "long", "decimal"}

func usersSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"username", "email", "role", "is_verified"},
			"properties": bson.M{
				"username":       bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"},
				"email":          bson.M{"bsonType": "string", "minLength": 3},
				"role":           bson.M{"enum": bson.A{models.RoleRegular, models.RoleAdmin}},
				"is_verified":    bson.M{"bsonType": "bool"},
				"total_donation": bson.M{"bsonType": number, "minimum": 0},
			},
		},
	}
}

// donationsSchema also rules out a donation that is both verified and
// rejected.
func donationsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"amount", "donation_date", "email", "verified", "rejected"},
			"properties": bson.M{
				"amount":        bson.M{"bsonType": number, "minimum": 0, "exclusiveMinimum": true},
				"donation_date": bson.M{"bsonType": "date"},
				"email":         bson.M{"bsonType": "string", "minLength": 1},
				"verified":      bson.M{"bsonType": "bool"},
				"rejected":      bson.M{"bsonType": "bool"},
				"num_child":     bson.M{"bsonType": number, "minimum": 0},
			},
		},
		"$nor": bson.A{bson.M{"verified": true, "rejected": true}},
	}
}

func studentsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"student_name", "roll_number", "sponsorship_status", "sponsorship_percent"},
			"properties": bson.M{
				"student_name":        bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"},
				"roll_number":         bson.M{"bsonType": "string", "minLength": 1},
				"sponsorship_status":  bson.M{"bsonType": "bool"},
				"sponsorship_percent": bson.M{"bsonType": number, "minimum": 0, "maximum": 100},
				"annual_income":       bson.M{"bsonType": number, "minimum": 0},
				"annual_fees":         bson.M{"bsonType": number, "minimum": 0},
			},
		},
	}
}

func mediaSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"type", "title", "url"},
			"properties": bson.M{
				"type":  bson.M{"enum": bson.A{models.MediaPhoto, models.MediaVideo}},
				"title": bson.M{"bsonType": "string", "minLength": 1},
				"url":   bson.M{"bsonType": "string", "minLength": 1},
			},
		},
	}
}
