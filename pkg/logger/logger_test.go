package logger

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturePublisher struct {
	mu      sync.Mutex
	topic   string
	batches [][]DigestEntry
}

func (c *capturePublisher) PublishMessage(_ context.Context, topic string, payload interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.topic = topic
	c.batches = append(c.batches, payload.([]DigestEntry))
	return nil
}

func TestLoggerWritesStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf).With(String("component", "chart"))

	l.Info("analysis done", Int("signals", 3), Float64("last_price", 101.5), Bool("mock", false))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "analysis done", entry["message"])
	assert.Equal(t, "chart", entry["component"])
	assert.EqualValues(t, 3, entry["signals"])
	assert.EqualValues(t, 101.5, entry["last_price"])
	assert.Equal(t, false, entry["mock"])
}

func TestNewRejectsBadLevel(t *testing.T) {
	_, err := New(&Config{Level: "loud", Output: "stdout"})
	require.Error(t, err)
}

func TestDigestFoldsRepeats(t *testing.T) {
	pub := &capturePublisher{}
	d := NewErrorDigest(DigestConfig{Interval: time.Hour, MaxUnique: 10, Topic: "log-digest", Publisher: pub})
	l := Nop()
	l.AttachDigest(d)

	for i := 0; i < 5; i++ {
		l.Error("upstream down", Error(errors.New("timeout")))
	}
	l.Error("other failure")
	assert.Equal(t, 2, d.Pending())

	l.DetachDigest()

	require.Len(t, pub.batches, 1)
	assert.Equal(t, "log-digest", pub.topic)
	batch := pub.batches[0]
	require.Len(t, batch, 2)
	assert.Equal(t, "upstream down", batch[0].Message)
	assert.Equal(t, 5, batch[0].Count)
	assert.Equal(t, "timeout", batch[0].Fields["error"])
}

func TestDigestFlushesAtThreshold(t *testing.T) {
	pub := &capturePublisher{}
	d := NewErrorDigest(DigestConfig{Interval: time.Hour, MaxUnique: 2, Publisher: pub})
	defer d.Close()

	d.Add("error", "a", nil, "x.go:1")
	d.Add("error", "b", nil, "x.go:2")

	pub.mu.Lock()
	defer pub.mu.Unlock()
	require.Len(t, pub.batches, 1)
	assert.Len(t, pub.batches[0], 2)
	assert.Zero(t, d.Pending())
}
