package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"ratehub/internal/cache"
	"ratehub/internal/http-api/models"
	"ratehub/internal/http-api/repository"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Against real sqlite-backed repositories, the mocks can't lie about what
// actually landed in the tables.
func newFlowService(t *testing.T) (RatingService, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// One connection only: each pool connection would otherwise get its own
	// private in-memory database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.RatingEvent{},
		&models.DedupRecord{},
		&models.ItemSettings{},
	))

	svc := NewRatingService(
		repository.NewRatingRepository(db),
		repository.NewDedupRepository(db),
		repository.NewSettingsRepository(db),
		cache.NewMemoryCache(),
		time.Hour, 30*24*time.Hour,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
	return svc, db
}

func countEvents(t *testing.T, db *gorm.DB, itemID string) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(&models.RatingEvent{}).Where("item_id = ?", itemID).Count(&count).Error)
	return count
}

func TestFlowDuplicateSubmitStoresExactlyOneEvent(t *testing.T) {
	svc, db := newFlowService(t)
	ctx := context.Background()

	result, err := svc.Submit(ctx, "post-1", 4, "voter-a")
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.Aggregate.Count)
	assert.Equal(t, "Actually good", result.Label)

	_, err = svc.Submit(ctx, "post-1", 5, "voter-a")
	assert.ErrorIs(t, err, ErrAlreadyVoted)

	assert.Equal(t, int64(1), countEvents(t, db, "post-1"), "the second submit must not append")
}

func TestFlowInvalidSubmitStoresNothing(t *testing.T) {
	svc, db := newFlowService(t)
	ctx := context.Background()

	_, err := svc.Submit(ctx, "post-1", 0, "voter-a")
	assert.ErrorIs(t, err, ErrInvalidValue)
	_, err = svc.Submit(ctx, "post-1", 6, "voter-a")
	assert.ErrorIs(t, err, ErrInvalidValue)

	assert.Equal(t, int64(0), countEvents(t, db, "post-1"))

	voted, err := svc.HasVoted(ctx, "post-1", "voter-a")
	require.NoError(t, err)
	assert.False(t, voted, "a rejected submit leaves no dedup record")
}

func TestFlowAggregateReflectsEachSubmit(t *testing.T) {
	svc, _ := newFlowService(t)
	ctx := context.Background()

	voters := []struct {
		token string
		value int
	}{
		{"voter-a", 5},
		{"voter-b", 4},
		{"voter-c", 5},
	}

	for _, v := range voters {
		// Warm the cache before each submit so eviction is actually exercised
		_, err := svc.GetAggregate(ctx, "post-42")
		require.NoError(t, err)

		_, err = svc.Submit(ctx, "post-42", v.value, v.token)
		require.NoError(t, err)
	}

	agg, err := svc.GetAggregate(ctx, "post-42")
	require.NoError(t, err)
	assert.Equal(t, int64(3), agg.Count)
	assert.InDelta(t, 14.0/3.0, agg.Average, 1e-9)
	assert.Equal(t, 5, agg.RoundedStars())
}

func TestFlowDisabledItemRejectsVotes(t *testing.T) {
	svc, db := newFlowService(t)
	ctx := context.Background()

	require.NoError(t, svc.SetRatingsDisabled(ctx, "post-1", true))

	_, err := svc.Submit(ctx, "post-1", 5, "voter-a")
	assert.ErrorIs(t, err, ErrRatingsDisabled)
	assert.Equal(t, int64(0), countEvents(t, db, "post-1"))

	require.NoError(t, svc.SetRatingsDisabled(ctx, "post-1", false))
	_, err = svc.Submit(ctx, "post-1", 5, "voter-a")
	require.NoError(t, err)
}

func TestFlowConcurrentDistinctVotersLoseNoVotes(t *testing.T) {
	svc, _ := newFlowService(t)
	ctx := context.Background()

	const voters = 20
	done := make(chan error, voters)
	for i := 0; i < voters; i++ {
		go func(n int) {
			_, err := svc.Submit(ctx, "post-42", 1+n%5, string(rune('a'+n)))
			done <- err
		}(i)
	}
	for i := 0; i < voters; i++ {
		require.NoError(t, <-done)
	}

	agg, err := svc.GetAggregate(ctx, "post-42")
	require.NoError(t, err)
	assert.Equal(t, int64(voters), agg.Count, "no concurrent append may be lost")
}
