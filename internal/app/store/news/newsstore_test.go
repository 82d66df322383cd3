package newsstore_test

import (
	"testing"
	"time"

	newsstore "github.com/dalemusser/donorhub/internal/app/store/news"
	"github.com/dalemusser/donorhub/internal/domain/models"
	"github.com/dalemusser/donorhub/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_AllGroupsKinds(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := newsstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := store.CreateStory(ctx, models.StudentStory{StudentName: "Asha", Title: "Topper", Date: time.Now().Add(-time.Hour)})
	require.NoError(t, err)
	_, err = store.CreateStory(ctx, models.StudentStory{StudentName: "Ravi", Title: "Olympiad"})
	require.NoError(t, err)
	_, err = store.CreateMilestone(ctx, models.AcademicMilestone{Title: "Placed", Number: 120})
	require.NoError(t, err)

	feed, err := store.All(ctx)
	require.NoError(t, err)
	require.Len(t, feed.StudentStories, 2)
	assert.Equal(t, "Olympiad", feed.StudentStories[0].Title)
	assert.Len(t, feed.AcademicMilestones, 1)
	assert.NotNil(t, feed.RecentUpdates)
	assert.Empty(t, feed.RecentUpdates)
}

func TestStore_DeleteByKind(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := newsstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u, err := store.CreateUpdate(ctx, models.RecentUpdate{Title: "Results out"})
	require.NoError(t, err)

	// Wrong kind leaves the document alone.
	n, err := store.Delete(ctx, models.NewsStory, u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	n, err = store.Delete(ctx, models.NewsUpdate, u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	assert.True(t, newsstore.ValidKind("milestone"))
	assert.False(t, newsstore.ValidKind("poll"))
}
