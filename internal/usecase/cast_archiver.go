package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"ChartCast/internal/domain/models"
	domrepo "ChartCast/internal/domain/repository"
	pkgkafka "ChartCast/pkg/kafka"
)

// CastArchiver consumes cast events and writes them to the archive.
type CastArchiver struct {
	topic   string
	archive domrepo.Archive
	metrics domrepo.Metrics
}

func NewCastArchiver(topic string, archive domrepo.Archive, metrics domrepo.Metrics) *CastArchiver {
	return &CastArchiver{topic: topic, archive: archive, metrics: metrics}
}

func (h *CastArchiver) Topic() string { return h.topic }

// Handle decodes a CastEvent. Undecodable payloads are returned as errors so
// the consumer routes them to the DLQ after retries.
func (h *CastArchiver) Handle(ctx context.Context, b []byte) error {
	var evt models.CastEvent
	if err := json.Unmarshal(b, &evt); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return fmt.Errorf("decode cast event: %w", err)
	}
	if evt.Item.ID == "" {
		h.metrics.RecordError("consumer_invalid")
		return fmt.Errorf("cast event without id")
	}
	if !evt.PublishedAt.IsZero() {
		h.metrics.RecordLatency("cast_archive_lag", time.Since(evt.PublishedAt).Seconds())
	}

	start := time.Now()
	err := h.archive.StoreCast(ctx, evt)
	h.metrics.RecordLatency("ch_insert", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	return nil
}

var _ pkgkafka.MessageHandler = (*CastArchiver)(nil)
