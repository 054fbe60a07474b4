package repository

// Race-sensitive store behavior lives in SQL, so these tests need a real
// Postgres. They are skipped unless CLIPVAULT_INTEGRATION is set; connection
// settings come from the usual POSTGRES_* environment variables.

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipvault/clipvault/common/clerr"
	"github.com/clipvault/clipvault/common/config"
	"github.com/clipvault/clipvault/common/db"
	"github.com/clipvault/clipvault/common/logger"
	"github.com/clipvault/clipvault/common/models"
	"github.com/clipvault/clipvault/common/tenant"
)

func setupStore(t *testing.T) (context.Context, *db.DB) {
	t.Helper()

	if os.Getenv("CLIPVAULT_INTEGRATION") == "" {
		t.Skip("set CLIPVAULT_INTEGRATION=1 with Postgres available to run store integration tests")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)

	cfg, err := config.Load("repository-test")
	require.NoError(t, err)

	database, err := db.New(ctx, cfg, logger.New("error", "json"))
	require.NoError(t, err, "Postgres must be reachable via POSTGRES_* settings")
	t.Cleanup(database.Close)

	require.NoError(t, database.Migrate(ctx))

	return ctx, database
}

// uniqueURL keeps runs independent; content rows are never deleted.
func uniqueURL(t *testing.T) string {
	t.Helper()
	return fmt.Sprintf("https://example.com/%s/%s", t.Name(), uuid.NewString())
}

func TestIngestConcurrentSavesCreateOnce(t *testing.T) {
	ctx, database := setupStore(t)
	repo := NewContentRepository(database)

	sourceURL := uniqueURL(t)

	const racers = 8
	var wg sync.WaitGroup
	ids := make([]uuid.UUID, racers)
	createds := make([]bool, racers)
	errs := make([]error, racers)

	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i], createds[i], errs[i] = repo.Ingest(ctx, sourceURL, models.MediaKindLink)
		}(i)
	}
	wg.Wait()

	created := 0
	for i := 0; i < racers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i], "every racer must observe the same canonical id")
		if createds[i] {
			created++
		}
	}

	assert.Equal(t, 1, created, "exactly one racer may observe created=true")
}

func TestClaimRaceHasSingleWinner(t *testing.T) {
	ctx, database := setupStore(t)
	content := NewContentRepository(database)
	jobs := NewJobRepository(database)
	sys := tenant.NewSystemScope("test")

	contentID, _, err := content.Ingest(ctx, uniqueURL(t), models.MediaKindLink)
	require.NoError(t, err)
	require.NoError(t, jobs.CreateForContent(ctx, sys, contentID, []models.JobType{models.JobTypeTagging}, 3, 0))

	pending, err := jobs.ListForContent(ctx, contentID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	jobID := pending[0].JobID

	const workers = 8
	var wg sync.WaitGroup
	claimErrs := make([]error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, claimErrs[i] = jobs.Claim(ctx, sys, jobID)
		}(i)
	}
	wg.Wait()

	winners := 0
	for i := 0; i < workers; i++ {
		if claimErrs[i] == nil {
			winners++
			continue
		}
		assert.ErrorIs(t, claimErrs[i], clerr.ErrNotClaimed, "losers must observe the claim sentinel")
	}

	assert.Equal(t, 1, winners, "exactly one worker may win the claim")

	claimed, err := jobs.ListForContent(ctx, contentID)
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	assert.Equal(t, models.JobStatusRunning, claimed[0].Status)
	assert.Equal(t, 1, claimed[0].Attempts, "losing claims must not bump attempts")
}

func TestListSavedCarriesTags(t *testing.T) {
	ctx, database := setupStore(t)
	content := NewContentRepository(database)
	tags := NewTagRepository(database)
	sys := tenant.NewSystemScope("test")

	scope, err := tenant.NewScope("tenant-" + uuid.NewString())
	require.NoError(t, err)

	contentID, _, err := content.Ingest(ctx, uniqueURL(t), models.MediaKindVideo)
	require.NoError(t, err)
	_, _, err = content.SaveForTenant(ctx, scope, contentID, "")
	require.NoError(t, err)

	tagName := "tag-" + uuid.NewString()
	tagID, err := tags.Upsert(ctx, sys, tagName, models.TagOriginSystem)
	require.NoError(t, err)
	_, err = tags.Attach(ctx, sys, contentID, tagID, 0.9, models.ProvenanceAI)
	require.NoError(t, err)

	views, err := content.ListSavedForTenant(ctx, scope, 10, 0)
	require.NoError(t, err)
	require.Len(t, views, 1)

	// Rule evaluation reads tags off the list view, so they must be
	// populated here, not only on single-item reads.
	require.Len(t, views[0].Tags, 1)
	assert.Equal(t, tagName, views[0].Tags[0].Name)
	assert.InDelta(t, 0.9, views[0].Tags[0].Confidence, 0.0001)
}
