package contactstore_test

import (
	"testing"
	"time"

	contactstore "github.com/dalemusser/donorhub/internal/app/store/contacts"
	"github.com/dalemusser/donorhub/internal/domain/models"
	"github.com/dalemusser/donorhub/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_RespondAndDelete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := contactstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a, err := store.Create(ctx, models.Contact{Name: "A", Email: "a@x.com", Subject: "Hi", Message: "hello"})
	require.NoError(t, err)
	_, err = store.Create(ctx, models.Contact{Name: "A", Email: "a@x.com", Subject: "Again", Message: "hello again"})
	require.NoError(t, err)
	b, err := store.Create(ctx, models.Contact{Name: "B", Email: "b@x.com", Subject: "Q", Message: "question"})
	require.NoError(t, err)

	found, err := store.FindByEmails(ctx, []string{"a@x.com"})
	require.NoError(t, err)
	assert.Len(t, found, 2)

	n, err := store.MarkResponded(ctx, []string{"a@x.com"}, "thanks", time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	all, err := store.List(ctx)
	require.NoError(t, err)
	for _, c := range all {
		assert.Equal(t, c.Email == "a@x.com", c.IsResponded, "contact %s", c.Email)
	}

	deleted, err := store.DeleteMany(ctx, []primitive.ObjectID{a.ID, b.ID, primitive.NewObjectID()})
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)
}
