package repository

import (
	"context"
	"fmt"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ChartCast/internal/domain/models"
	domrepo "ChartCast/internal/domain/repository"
	applogger "ChartCast/pkg/logger"
)

func historyStores(t *testing.T) map[string]domrepo.HistoryStore {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return map[string]domrepo.HistoryStore{
		"memory": NewMemoryHistory(0),
		"redis":  NewRedisHistory(rdb, "", 0, applogger.Nop()),
	}
}

func item(i int) models.CastHistoryItem {
	return models.CastHistoryItem{
		ID:        fmt.Sprintf("id-%d", i),
		Pair:      "BTCUSDT",
		Interval:  "1h",
		Caption:   "caption",
		ImageURL:  "https://img.example/c.png",
		Timestamp: int64(1700000000000 + i),
	}
}

func TestHistoryNewestFirstAndCapped(t *testing.T) {
	for name, store := range historyStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			items, err := store.List(ctx)
			require.NoError(t, err)
			assert.Empty(t, items)

			for i := 0; i < models.HistoryLimit+5; i++ {
				require.NoError(t, store.Append(ctx, item(i)))
			}

			items, err = store.List(ctx)
			require.NoError(t, err)
			require.Len(t, items, models.HistoryLimit)
			assert.Equal(t, "id-54", items[0].ID)
			assert.Equal(t, "id-5", items[len(items)-1].ID)
			assert.Equal(t, item(54), items[0])
		})
	}
}

func TestHistoryClear(t *testing.T) {
	for name, store := range historyStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, store.Append(ctx, item(1)))
			require.NoError(t, store.Clear(ctx))

			items, err := store.List(ctx)
			require.NoError(t, err)
			assert.Empty(t, items)
		})
	}
}

func TestMemoryHistoryListIsACopy(t *testing.T) {
	h := NewMemoryHistory(3)
	ctx := context.Background()
	require.NoError(t, h.Append(ctx, item(1)))

	items, _ := h.List(ctx)
	items[0].Caption = "changed"

	again, _ := h.List(ctx)
	assert.Equal(t, "caption", again[0].Caption)
}

func TestRedisHistorySkipsMalformed(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	h := NewRedisHistory(rdb, "hist", 10, nil)
	ctx := context.Background()
	require.NoError(t, h.Append(ctx, item(1)))
	_, err := mr.Lpush("hist", "{not json")
	require.NoError(t, err)

	items, err := h.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "id-1", items[0].ID)
}
