package clickhouse

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"commodity-momentum-lab/internal/domain"
	"commodity-momentum-lab/internal/storage"
)

func TestSeriesStore_InsertBulk(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPriceSeriesStore(conn)
	ctx := context.Background()

	// Test empty insert
	err := store.InsertBulk(ctx, nil)
	assert.NoError(t, err)

	points := []*domain.SeriesPoint{
		{Asset: "Gold", TimestampMs: 2000, Value: 2051.5},
		{Asset: "Gold", TimestampMs: 1000, Value: 2040.0},
	}
	require.NoError(t, store.InsertBulk(ctx, points))

	got, err := store.GetByAsset(ctx, "Gold")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(1000), got[0].TimestampMs)
	assert.Equal(t, 2040.0, got[0].Value)
	assert.Equal(t, int64(2000), got[1].TimestampMs)
}

func TestSeriesStore_NaNRoundTrip(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewReturnSeriesStore(conn)
	ctx := context.Background()

	points := []*domain.SeriesPoint{
		{Asset: "Corn", TimestampMs: 1000, Value: math.NaN()},
		{Asset: "Corn", TimestampMs: 2000, Value: 0.015},
	}
	require.NoError(t, store.InsertBulk(ctx, points))

	got, err := store.GetByAsset(ctx, "Corn")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, math.IsNaN(got[0].Value), "gap must survive storage")
	assert.InDelta(t, 0.015, got[1].Value, 1e-12)
}

func TestSeriesStore_InsertBulk_DuplicateKey(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPriceSeriesStore(conn)
	ctx := context.Background()

	points := []*domain.SeriesPoint{{Asset: "Gold", TimestampMs: 1000, Value: 1}}
	require.NoError(t, store.InsertBulk(ctx, points))

	// Try to insert duplicate
	err := store.InsertBulk(ctx, []*domain.SeriesPoint{
		{Asset: "Gold", TimestampMs: 500, Value: 0.5},
		{Asset: "Gold", TimestampMs: 1000, Value: 2},
	})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	// Whole batch rejected
	got, err := store.GetByAsset(ctx, "Gold")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestSeriesStore_InsertBulk_IntraBatchDuplicate(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPriceSeriesStore(conn)
	ctx := context.Background()

	points := []*domain.SeriesPoint{
		{Asset: "Gold", TimestampMs: 1000, Value: 1},
		{Asset: "Gold", TimestampMs: 1000, Value: 2},
	}
	assert.ErrorIs(t, store.InsertBulk(ctx, points), storage.ErrDuplicateKey)
}

func TestSeriesStore_TablesAreSeparate(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	prices := NewPriceSeriesStore(conn)
	returns := NewReturnSeriesStore(conn)
	ctx := context.Background()

	require.NoError(t, prices.InsertBulk(ctx, []*domain.SeriesPoint{{Asset: "Gold", TimestampMs: 1000, Value: 1}}))
	require.NoError(t, returns.InsertBulk(ctx, []*domain.SeriesPoint{{Asset: "Gold", TimestampMs: 1000, Value: math.NaN()}}))

	got, err := returns.GetByAsset(ctx, "Gold")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, math.IsNaN(got[0].Value))
}

func TestSeriesStore_GetByTimeRange(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPriceSeriesStore(conn)
	ctx := context.Background()

	var points []*domain.SeriesPoint
	for i := int64(1); i <= 5; i++ {
		points = append(points, &domain.SeriesPoint{Asset: "Silver", TimestampMs: i * 1000, Value: float64(i)})
	}
	require.NoError(t, store.InsertBulk(ctx, points))

	got, err := store.GetByTimeRange(ctx, "Silver", 2000, 4000)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, int64(2000), got[0].TimestampMs)
	assert.Equal(t, int64(4000), got[2].TimestampMs)
}

func TestSeriesStore_ListAssets(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPriceSeriesStore(conn)
	ctx := context.Background()

	require.NoError(t, store.InsertBulk(ctx, []*domain.SeriesPoint{
		{Asset: "Wheat", TimestampMs: 1000, Value: 1},
		{Asset: "Copper", TimestampMs: 1000, Value: 1},
		{Asset: "Wheat", TimestampMs: 2000, Value: 1},
	}))

	assets, err := store.ListAssets(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Copper", "Wheat"}, assets)
}
