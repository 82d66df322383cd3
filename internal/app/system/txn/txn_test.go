package txn_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/dalemusser/donorhub/internal/app/system/txn"
	"github.com/dalemusser/donorhub/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func TestIsNotSupported(t *testing.T) {
	cases := map[string]struct {
		err  error
		want bool
	}{
		"nil":                      {nil, false},
		"unrelated":                {errors.New("duplicate key"), false},
		"illegal operation code":   {mongo.CommandError{Code: 20, Message: "Transaction numbers are only allowed on a replica set member"}, true},
		"no such transaction code": {mongo.CommandError{Code: 251, Message: "NoSuchTransaction"}, false},
		"operation not in txn":     {mongo.CommandError{Code: 263, Message: "operation not supported in transaction"}, true},
		"wrapped command error":    {fmt.Errorf("credit donor: %w", mongo.CommandError{Code: 51}), true},
		"one keyword only":         {errors.New("transaction aborted"), false},
		"standalone message":       {errors.New("Sessions are NOT SUPPORTED by this deployment"), true},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, txn.IsNotSupported(tc.err))
		})
	}
}

func TestRunner_CommitsWrites(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	r := txn.New(db, zap.NewNop())
	err := r.RunInTxn(ctx, func(ctx context.Context) error {
		if _, err := db.Collection("donations").InsertOne(ctx, bson.M{"amount": 500}); err != nil {
			return err
		}
		_, err := db.Collection("users").InsertOne(ctx, bson.M{"total_donation": 500})
		return err
	})
	require.NoError(t, err)

	n, err := db.Collection("donations").CountDocuments(ctx, bson.M{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	n, err = db.Collection("users").CountDocuments(ctx, bson.M{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestRunner_ReturnsCallbackError(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	boom := errors.New("donor missing")
	err := txn.New(db, zap.NewNop()).RunInTxn(ctx, func(context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)
}
