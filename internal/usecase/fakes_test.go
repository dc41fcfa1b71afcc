package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"ChartCast/internal/domain/models"
	"ChartCast/pkg/metrics"
)

func risingRows(n int) []models.RawKline {
	rows := make([]models.RawKline, n)
	for i := range rows {
		p := 100 + float64(i)
		rows[i] = models.RawKline{float64(1700000000000 + int64(i)*3600000), p, p + 1, p - 1, p + 0.5, 10.0}
	}
	return rows
}

type fakeSource struct {
	mu          sync.Mutex
	rows        []models.RawKline
	src         models.DataSource
	err         error
	calls       int
	invalidated []string
	invErr      error
}

func (f *fakeSource) FetchKlines(_ context.Context, symbol, interval string, limit int) ([]models.RawKline, models.DataSource, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, "", f.err
	}
	return f.rows, f.src, nil
}

func (f *fakeSource) Invalidate(_ context.Context, symbol, interval string, limit int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidated = append(f.invalidated, fmt.Sprintf("%s:%s:%d", symbol, interval, limit))
	return f.invErr
}

// errorMetrics counts RecordError kinds.
type errorMetrics struct {
	metrics.Nop
	mu     sync.Mutex
	errors []string
}

func (m *errorMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, kind)
}

type fakeEvents struct {
	mu        sync.Mutex
	casts     []models.CastEvent
	snapshots []models.SignalSnapshot
	err       error
}

func (f *fakeEvents) PublishCast(_ context.Context, evt models.CastEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.casts = append(f.casts, evt)
	return f.err
}

func (f *fakeEvents) PublishAnalysis(_ context.Context, snap models.SignalSnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshots = append(f.snapshots, snap)
	return f.err
}

func (f *fakeEvents) Close() error { return nil }

func (f *fakeEvents) snapshotCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.snapshots)
}

type fakeArchive struct {
	mu        sync.Mutex
	snapshots []models.SignalSnapshot
	casts     []models.CastEvent
	err       error
}

func (f *fakeArchive) StoreSnapshot(_ context.Context, snap models.SignalSnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshots = append(f.snapshots, snap)
	return f.err
}

func (f *fakeArchive) StoreCast(_ context.Context, evt models.CastEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.casts = append(f.casts, evt)
	return f.err
}

func (f *fakeArchive) Health(context.Context) error { return nil }

type fakeHistory struct {
	items []models.CastHistoryItem
	err   error
}

func (f *fakeHistory) Append(_ context.Context, item models.CastHistoryItem) error {
	if f.err != nil {
		return f.err
	}
	f.items = append([]models.CastHistoryItem{item}, f.items...)
	return nil
}

func (f *fakeHistory) List(context.Context) ([]models.CastHistoryItem, error) { return f.items, f.err }
func (f *fakeHistory) Clear(context.Context) error                            { f.items = nil; return f.err }

type fakePublisher struct {
	got  models.CastRequest
	hash string
	err  error
}

func (f *fakePublisher) Publish(_ context.Context, req models.CastRequest) (string, error) {
	f.got = req
	return f.hash, f.err
}

type fakeCaptioner struct {
	got  models.CaptionRequest
	text string
	err  error
}

func (f *fakeCaptioner) Caption(_ context.Context, req models.CaptionRequest) (string, error) {
	f.got = req
	return f.text, f.err
}

type fakeBlobs struct{}

func (fakeBlobs) Put(_ context.Context, filename, contentType string, body io.Reader) (*models.Blob, error) {
	b, _ := io.ReadAll(body)
	if len(b) == 0 {
		return nil, errors.New("empty")
	}
	return &models.Blob{URL: "https://blob/" + filename, Pathname: filename, ContentType: contentType}, nil
}

type fakeLinker struct{}

func (fakeLinker) FrameURL(pair, interval, img string) string {
	return "https://app/api/frames?pair=" + pair + "&interval=" + interval
}
