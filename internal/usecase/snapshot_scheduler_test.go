package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ChartCast/internal/domain/models"
	"ChartCast/pkg/cache"
	"ChartCast/pkg/logger"
	"ChartCast/pkg/metrics"
)

func newScheduler(src *fakeSource, locker Locker, events *fakeEvents, archive *fakeArchive) *SnapshotScheduler {
	return NewSnapshotScheduler(
		NewChartUseCase(src, metrics.Nop{}, 200),
		SnapshotSink{Events: events, Archive: archive},
		locker,
		[]string{"BTCUSDT", "ETHUSDT"},
		"1h",
		metrics.Nop{},
		logger.Nop(),
	)
}

func TestSnapshotRunNow(t *testing.T) {
	mem := cache.NewMemoryCache()
	defer mem.Close()

	events := &fakeEvents{}
	archive := &fakeArchive{}
	s := newScheduler(&fakeSource{rows: risingRows(20), src: models.SourceBinance}, mem, events, archive)

	n, err := s.RunNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Len(t, events.snapshots, 2)
	assert.Len(t, archive.snapshots, 2)

	ok, err := mem.TryLock(context.Background(), "lock:snapshots", time.Second)
	require.NoError(t, err)
	assert.True(t, ok, "lock released after the run")
}

func TestSnapshotRunSkipsWhenLocked(t *testing.T) {
	mem := cache.NewMemoryCache()
	defer mem.Close()
	_, _ = mem.TryLock(context.Background(), "lock:snapshots", time.Minute)

	events := &fakeEvents{}
	n, err := newScheduler(&fakeSource{rows: risingRows(20)}, mem, events, &fakeArchive{}).RunNow(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, events.snapshots)
}

func TestSnapshotRunCollectsErrors(t *testing.T) {
	s := newScheduler(&fakeSource{err: errors.New("down")}, nil, &fakeEvents{}, &fakeArchive{})
	n, err := s.RunNow(context.Background())
	assert.Zero(t, n)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BTCUSDT")
	assert.Contains(t, err.Error(), "ETHUSDT")
}

func TestSnapshotRegister(t *testing.T) {
	s := newScheduler(&fakeSource{rows: risingRows(20)}, nil, &fakeEvents{}, &fakeArchive{})
	require.NoError(t, s.Register(context.Background(), "0 * * * *"))
	assert.Error(t, s.Register(context.Background(), "not a cron"))

	s.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, s.Stop(ctx))
}

func TestCastArchiver(t *testing.T) {
	archive := &fakeArchive{}
	h := NewCastArchiver("chartcast.cast.published", archive, metrics.Nop{})
	assert.Equal(t, "chartcast.cast.published", h.Topic())

	b, err := json.Marshal(models.CastEvent{
		Item:        models.CastHistoryItem{ID: "c1", Pair: "BTCUSDT", Hash: "0x1"},
		PublishedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	require.NoError(t, h.Handle(context.Background(), b))
	require.Len(t, archive.casts, 1)
	assert.Equal(t, "0x1", archive.casts[0].Item.Hash)

	assert.Error(t, h.Handle(context.Background(), []byte("{bad")))
	assert.Error(t, h.Handle(context.Background(), []byte(`{"item":{}}`)))

	archive.err = errors.New("clickhouse down")
	assert.Error(t, h.Handle(context.Background(), b))
}
