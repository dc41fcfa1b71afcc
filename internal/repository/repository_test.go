package repository

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
	"ChartCast/pkg/metrics"
)

type sentMessage struct {
	topic string
	key   string
	value []byte
}

type fakeProducer struct {
	sent []sentMessage
	err  error
}

func (p *fakeProducer) Publish(_ context.Context, topic string, key []byte, value interface{}) error {
	if p.err != nil {
		return p.err
	}
	b, _ := json.Marshal(value)
	p.sent = append(p.sent, sentMessage{topic: topic, key: string(key), value: b})
	return nil
}

func (p *fakeProducer) Close() error { return nil }

func TestKafkaEvents(t *testing.T) {
	p := &fakeProducer{}
	ev := NewKafkaEvents(p, "", "", metrics.Nop{})
	ctx := context.Background()

	require.NoError(t, ev.PublishCast(ctx, models.CastEvent{Item: models.CastHistoryItem{ID: "c1"}}))
	require.NoError(t, ev.PublishAnalysis(ctx, models.SignalSnapshot{Symbol: "ETHUSDT"}))

	require.Len(t, p.sent, 2)
	assert.Equal(t, TopicCastPublished, p.sent[0].topic)
	assert.Equal(t, "c1", p.sent[0].key)
	assert.Equal(t, TopicAnalysisUpdated, p.sent[1].topic)
	assert.Equal(t, "ETHUSDT", p.sent[1].key)

	var evt models.CastEvent
	require.NoError(t, json.Unmarshal(p.sent[0].value, &evt))
	assert.Equal(t, "c1", evt.Item.ID)
}

func TestKafkaEventsError(t *testing.T) {
	ev := NewKafkaEvents(&fakeProducer{err: errors.New("down")}, "casts", "analysis", metrics.Nop{})
	assert.Error(t, ev.PublishCast(context.Background(), models.CastEvent{}))
}

type countingSource struct {
	calls int
	src   models.DataSource
}

func (s *countingSource) FetchKlines(context.Context, string, string, int) ([]models.RawKline, models.DataSource, error) {
	s.calls++
	return []models.RawKline{{float64(1700000000000), "1", "2", "0.5", "1.5", "10"}}, s.src, nil
}

func TestCachedSource(t *testing.T) {
	mem := cache.NewMemoryCache()
	defer mem.Close()

	next := &countingSource{src: models.SourceBinance}
	s := NewCachedSource(next, mem, time.Minute)
	ctx := context.Background()

	rows, src, err := s.FetchKlines(ctx, "BTCUSDT", "1h", 200)
	require.NoError(t, err)
	assert.Equal(t, models.SourceBinance, src)

	again, src, err := s.FetchKlines(ctx, "BTCUSDT", "1h", 200)
	require.NoError(t, err)
	assert.Equal(t, 1, next.calls)
	assert.Equal(t, models.SourceBinance, src)
	assert.Equal(t, rows, again)

	_, _, _ = s.FetchKlines(ctx, "BTCUSDT", "4h", 200)
	assert.Equal(t, 2, next.calls)

	require.NoError(t, s.Invalidate(ctx, "BTCUSDT", "1h", 200))
	_, _, _ = s.FetchKlines(ctx, "BTCUSDT", "1h", 200)
	assert.Equal(t, 3, next.calls)
}

func TestCachedSourceSkipsMock(t *testing.T) {
	mem := cache.NewMemoryCache()
	defer mem.Close()

	next := &countingSource{src: models.SourceMock}
	s := NewCachedSource(next, mem, time.Minute)

	_, _, _ = s.FetchKlines(context.Background(), "BTCUSDT", "1h", 200)
	_, _, _ = s.FetchKlines(context.Background(), "BTCUSDT", "1h", 200)
	assert.Equal(t, 2, next.calls)
}
