package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"ChartCast/pkg/logger"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	mu   sync.Mutex
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

type fakeReader struct {
	committed []kafka.Message
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.committed = append(r.committed, msgs...)
	return nil
}

func (r *fakeReader) Close() error { return nil }

func TestProducerEncodesJSON(t *testing.T) {
	w := &fakeWriter{}
	p := NewProducerWithWriter(w, "snappy")

	require.NoError(t, p.Publish(context.Background(), "events", []byte("BTCUSDT"), map[string]int{"n": 1}))
	require.NoError(t, p.PublishMessage(context.Background(), "events", "raw"))

	require.Len(t, w.msgs, 2)
	assert.Equal(t, "events", w.msgs[0].Topic)
	assert.Equal(t, []byte("BTCUSDT"), w.msgs[0].Key)
	assert.JSONEq(t, `{"n":1}`, string(w.msgs[0].Value))
	assert.Equal(t, "raw", string(w.msgs[1].Value))
}

func TestProducerWrapsWriteError(t *testing.T) {
	boom := errors.New("broker down")
	p := NewProducerWithWriter(&fakeWriter{err: boom}, "snappy")

	err := p.Publish(context.Background(), "events", nil, "x")
	assert.ErrorIs(t, err, boom)
}

func TestNewProducerRequiresBrokers(t *testing.T) {
	_, err := NewProducer()
	assert.Error(t, err)
}

func newTestConsumer(t *testing.T, dlq bool) *Consumer {
	t.Helper()
	opts := []ConsumerOption{
		WithConsumerBrokers([]string{"localhost:9092"}),
		WithConsumerRetry(2, time.Millisecond, 2*time.Millisecond),
	}
	if dlq {
		opts = append(opts, WithConsumerDLQ("chartcast.dlq"))
	}
	c, err := NewConsumer(logger.Nop(), opts...)
	require.NoError(t, err)
	return c
}

func TestConsumerProcessCommitsOnSuccess(t *testing.T) {
	c := newTestConsumer(t, false)
	reader := &fakeReader{}
	c.readers["casts"] = reader

	var got []byte
	c.RegisterHandler(HandlerFunc{Name: "casts", Fn: func(_ context.Context, b []byte) error {
		got = b
		return nil
	}})

	assert.True(t, c.process(kafka.Message{Topic: "casts", Value: []byte("hi")}))
	assert.Equal(t, "hi", string(got))
	assert.Len(t, reader.committed, 1)
}

func TestConsumerRetriesThenParksInDLQ(t *testing.T) {
	c := newTestConsumer(t, true)
	reader := &fakeReader{}
	dlq := &fakeWriter{}
	c.readers["casts"] = reader
	c.dlq = dlq

	calls := 0
	c.RegisterHandler(HandlerFunc{Name: "casts", Fn: func(context.Context, []byte) error {
		calls++
		return errors.New("clickhouse down")
	}})

	assert.True(t, c.process(kafka.Message{Topic: "casts", Value: []byte("x")}))
	assert.Equal(t, 3, calls, "first try plus two retries")
	require.Len(t, dlq.msgs, 1)
	assert.Equal(t, "chartcast.dlq", dlq.msgs[0].Topic)
	assert.Equal(t, "casts", string(dlq.msgs[0].Headers[0].Value))
	assert.Len(t, reader.committed, 1)
}

func TestConsumerKeepsOffsetWithoutDLQ(t *testing.T) {
	c := newTestConsumer(t, false)
	reader := &fakeReader{}
	c.readers["casts"] = reader
	c.RegisterHandler(HandlerFunc{Name: "casts", Fn: func(context.Context, []byte) error {
		panic("bad payload")
	}})

	assert.False(t, c.process(kafka.Message{Topic: "casts"}))
	assert.Empty(t, reader.committed)
}

func TestConsumerStartStop(t *testing.T) {
	c := newTestConsumer(t, false)
	reader := &fakeReader{}
	c.newReader = func(string) Reader { return reader }
	c.RegisterHandler(HandlerFunc{Name: "casts", Fn: func(context.Context, []byte) error { return nil }})

	require.NoError(t, c.Start())
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, c.Stop(ctx))
}

func TestBackoffWithJitterBounds(t *testing.T) {
	for attempt := 1; attempt < 10; attempt++ {
		d := backoffWithJitter(10*time.Millisecond, 80*time.Millisecond, attempt)
		assert.Greater(t, d, time.Duration(0))
		assert.LessOrEqual(t, d, 80*time.Millisecond)
	}
}
