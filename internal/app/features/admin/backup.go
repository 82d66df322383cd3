// internal/app/features/admin/backup.go
package admin

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"

	"github.com/dalemusser/donorhub/internal/app/system/timeouts"
	"github.com/klauspost/compress/zip"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// redactedFields never leave the database in a backup.
var redactedFields = []string{
	"password_hash",
	"otp",
	"otp_expiry",
	"reset_token_hash",
	"reset_token_expiry",
}

// WriteBackup writes a zip with one <collection>.json entry per collection.
// Each entry is a JSON array of relaxed extended-JSON documents.
func WriteBackup(ctx context.Context, db *mongo.Database, w io.Writer) error {
	names, err := db.ListCollectionNames(ctx, bson.M{"name": bson.M{"$not": bson.M{"$regex": "^system\\."}}})
	if err != nil {
		return fmt.Errorf("list collections: %w", err)
	}
	sort.Strings(names)

	zw := zip.NewWriter(w)
	for _, name := range names {
		entry, err := zw.CreateHeader(&zip.FileHeader{Name: name + ".json", Method: zip.Deflate})
		if err != nil {
			return fmt.Errorf("create entry %s: %w", name, err)
		}
		if err := dumpCollection(ctx, db.Collection(name), entry); err != nil {
			return fmt.Errorf("dump %s: %w", name, err)
		}
	}
	return zw.Close()
}

func dumpCollection(ctx context.Context, c *mongo.Collection, w io.Writer) error {
	cur, err := c.Find(ctx, bson.M{})
	if err != nil {
		return err
	}
	defer cur.Close(ctx)

	if _, err := io.WriteString(w, "["); err != nil {
		return err
	}
	first := true
	for cur.Next(ctx) {
		var doc bson.M
		if err := cur.Decode(&doc); err != nil {
			return err
		}
		for _, f := range redactedFields {
			delete(doc, f)
		}
		b, err := bson.MarshalExtJSON(doc, false, false)
		if err != nil {
			return err
		}
		sep := ",\n"
		if first {
			sep, first = "\n", false
		}
		if _, err := io.WriteString(w, sep); err != nil {
			return err
		}
		if _, err := w.Write(b); err != nil {
			return err
		}
	}
	if err := cur.Err(); err != nil {
		return err
	}
	_, err = io.WriteString(w, "\n]\n")
	return err
}

// Backup handles GET /admin/backup. The archive streams straight to the
// client, so a failure after the first byte can only be logged.
func (h *Handler) Backup(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Batch())
	defer cancel()

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", "attachment; filename=database-backup.zip")
	if err := WriteBackup(ctx, h.DB, w); err != nil {
		h.Log.Error("backup failed", zap.Error(err))
		return
	}
	h.Log.Info("backup written")
}
