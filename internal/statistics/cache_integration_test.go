//go:build integration

package statistics

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"benefits/internal/application/models"
	"benefits/pkg/testutil/containers"
)

func TestRedisCache(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}

	ctx := context.Background()
	rc := containers.NewRedisContainer(t)
	cache := NewRedisCache(rc.Client, time.Minute, slog.New(slog.DiscardHandler))

	t.Run("miss then hit", func(t *testing.T) {
		require.NoError(t, rc.FlushAll(ctx))
		key := cacheKey("aggregate", Filters{ProgramYears: []int{2024}})

		_, ok := cache.GetReport(ctx, key)
		assert.False(t, ok)

		report := NewReport()
		report.add(models.StatusPaid, decimal.NewFromInt(10000))
		cache.SetReport(ctx, key, report)

		got, ok := cache.GetReport(ctx, key)
		require.True(t, ok)
		assert.Equal(t, 1, got.Total)
		assert.Equal(t, 1, got.Counts[models.StatusPaid])
		assert.True(t, got.Amounts[models.StatusPaid].Equal(decimal.NewFromInt(10000)))
		assert.True(t, got.TotalAmount.Equal(decimal.NewFromInt(10000)))
	})

	t.Run("expires by TTL", func(t *testing.T) {
		require.NoError(t, rc.FlushAll(ctx))
		short := NewRedisCache(rc.Client, time.Second, slog.New(slog.DiscardHandler))
		key := cacheKey("aggregate", Filters{})

		short.SetReport(ctx, key, NewReport())
		_, ok := short.GetReport(ctx, key)
		require.True(t, ok)

		assert.Eventually(t, func() bool {
			_, ok := short.GetReport(ctx, key)
			return !ok
		}, 5*time.Second, 200*time.Millisecond)
	})

	t.Run("distinct filters use distinct keys", func(t *testing.T) {
		a := cacheKey("aggregate", Filters{ProgramYears: []int{2024}})
		b := cacheKey("aggregate", Filters{ProgramYears: []int{2029}})
		assert.NotEqual(t, a, b)
	})
}
