// Package txn runs multi-document writes inside a MongoDB transaction and
// falls back to sequential execution when the deployment cannot host one.
package txn

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Runner wraps a database so services can depend on RunInTxn instead of a
// concrete *mongo.Database.
type Runner struct {
	DB  *mongo.Database
	Log *zap.Logger
}

// New returns a Runner for db.
func New(db *mongo.Database, log *zap.Logger) *Runner {
	return &Runner{DB: db, Log: log}
}

// RunInTxn implements the Transactor contract used by the services.
func (r *Runner) RunInTxn(ctx context.Context, fn func(ctx context.Context) error) error {
	return Run(ctx, r.DB, r.Log, fn)
}

// Run executes fn in a transaction. If the server reports that transactions
// are unavailable (standalone mongod), fn is executed once more without one
// and a warning is logged.
func Run(ctx context.Context, db *mongo.Database, log *zap.Logger, fn func(ctx context.Context) error) error {
	sess, err := db.Client().StartSession()
	if err != nil {
		if IsNotSupported(err) {
			warnFallback(log, err)
			return fn(ctx)
		}
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return nil, fn(sc)
	})
	if err != nil && IsNotSupported(err) {
		warnFallback(log, err)
		return fn(ctx)
	}
	return err
}

func warnFallback(log *zap.Logger, err error) {
	if log != nil {
		log.Warn("transactions unavailable, running without", zap.Error(err))
	}
}

// IsNotSupported reports whether err means the server cannot run
// multi-document transactions.
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}

	var ce mongo.CommandError
	if errors.As(err, &ce) {
		switch ce.Code {
		case 20, 51, 263:
			return true
		}
	}

	msg := strings.ToLower(err.Error())
	hits := 0
	for _, kw := range []string{"transaction", "replica set", "session", "not supported", "illegal operation"} {
		if strings.Contains(msg, kw) {
			hits++
		}
	}
	return hits >= 2
}
