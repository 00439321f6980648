// internal/storage/history/memory_test.go
package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newthinker/vega/internal/core"
)

func sampleRecord(id, symbol string, created time.Time) Record {
	return Record{
		ID:               id,
		Symbol:           symbol,
		Strategy:         "sma",
		Label:            "SMA Crossover (20/50)",
		Start:            time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC),
		End:              time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC),
		InitialCapital:   10000,
		FinalEquity:      12500,
		TotalReturnPct:   25,
		Volatility:       0.013,
		SharpeRatio:      1.1,
		MaxDrawdownPct:   8.5,
		WinRatePct:       60,
		NumTrades:        5,
		BuyHoldReturnPct: 18.2,
		CreatedAt:        created,
	}
}

func TestMemoryStore_SaveAndList(t *testing.T) {
	store := NewMemoryStore(100)
	ctx := context.Background()

	err := store.Save(ctx, sampleRecord("run-1", "AAPL", time.Now().UTC()))
	require.NoError(t, err)

	records, err := store.List(ctx, ListFilter{Symbol: "AAPL"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "run-1", records[0].ID)
	assert.Equal(t, "AAPL", records[0].Symbol)
}

func TestMemoryStore_ListByStrategy(t *testing.T) {
	store := NewMemoryStore(100)
	ctx := context.Background()

	rsiRec := sampleRecord("run-2", "MSFT", time.Now().UTC())
	rsiRec.Strategy = "rsi"
	require.NoError(t, store.Save(ctx, sampleRecord("run-1", "AAPL", time.Now().UTC())))
	require.NoError(t, store.Save(ctx, rsiRec))

	records, err := store.List(ctx, ListFilter{Strategy: "rsi"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "run-2", records[0].ID)
}

func TestMemoryStore_ListNewestFirst(t *testing.T) {
	store := NewMemoryStore(100)
	ctx := context.Background()

	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"run-1", "run-2", "run-3"} {
		require.NoError(t, store.Save(ctx, sampleRecord(id, "AAPL", base.Add(time.Duration(i)*time.Minute))))
	}

	records, err := store.List(ctx, ListFilter{})
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "run-3", records[0].ID, "most recent run should come first")
	assert.Equal(t, "run-1", records[2].ID)
}

func TestMemoryStore_ListByTimeRange(t *testing.T) {
	store := NewMemoryStore(100)
	ctx := context.Background()

	now := time.Now().UTC()
	require.NoError(t, store.Save(ctx, sampleRecord("old", "AAPL", now.Add(-2*time.Hour))))
	require.NoError(t, store.Save(ctx, sampleRecord("new", "MSFT", now)))

	records, err := store.List(ctx, ListFilter{From: now.Add(-1 * time.Hour)})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "new", records[0].ID)
}

func TestMemoryStore_LimitOffset(t *testing.T) {
	store := NewMemoryStore(100)
	ctx := context.Background()

	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"run-1", "run-2", "run-3", "run-4"} {
		require.NoError(t, store.Save(ctx, sampleRecord(id, "AAPL", base.Add(time.Duration(i)*time.Minute))))
	}

	records, err := store.List(ctx, ListFilter{Limit: 2, Offset: 1})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "run-3", records[0].ID)
	assert.Equal(t, "run-2", records[1].ID)

	empty, err := store.List(ctx, ListFilter{Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMemoryStore_MaxSize(t *testing.T) {
	store := NewMemoryStore(2)
	ctx := context.Background()

	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"run-1", "run-2", "run-3"} {
		require.NoError(t, store.Save(ctx, sampleRecord(id, "AAPL", base.Add(time.Duration(i)*time.Minute))))
	}

	records, err := store.List(ctx, ListFilter{})
	require.NoError(t, err)
	require.Len(t, records, 2, "oldest record should be dropped at capacity")
	assert.Equal(t, "run-3", records[0].ID)
	assert.Equal(t, "run-2", records[1].ID)
}

func TestMemoryStore_GetByID(t *testing.T) {
	store := NewMemoryStore(100)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sampleRecord("run-1", "AAPL", time.Now().UTC())))

	rec, err := store.GetByID(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", rec.Symbol)

	_, err = store.GetByID(ctx, "missing")
	assert.True(t, errors.Is(err, core.ErrNotFound), "expected NOT_FOUND, got %v", err)
}

func TestMemoryStore_AssignsID(t *testing.T) {
	store := NewMemoryStore(100)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sampleRecord("", "AAPL", time.Time{})))

	records, err := store.List(ctx, ListFilter{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.NotEmpty(t, records[0].ID)
	assert.False(t, records[0].CreatedAt.IsZero())
}

func TestMemoryStore_Count(t *testing.T) {
	store := NewMemoryStore(100)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sampleRecord("run-1", "AAPL", time.Now().UTC())))
	require.NoError(t, store.Save(ctx, sampleRecord("run-2", "AAPL", time.Now().UTC())))
	require.NoError(t, store.Save(ctx, sampleRecord("run-3", "MSFT", time.Now().UTC())))

	count, err := store.Count(ctx, ListFilter{Symbol: "AAPL"})
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	total, err := store.Count(ctx, ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
}
