package repository

import (
	"context"
	"fmt"

	"ChartCast/internal/domain/models"
	domrepo "ChartCast/internal/domain/repository"
)

// Default topic names.
const (
	TopicCastPublished   = "chartcast.cast.published"
	TopicAnalysisUpdated = "chartcast.analysis.updated"
)

// MessageProducer is the slice of pkg/kafka.Producer used here.
type MessageProducer interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
	Close() error
}

// KafkaEvents implements EventPublisher over Kafka topics.
type KafkaEvents struct {
	producer      MessageProducer
	castTopic     string
	analysisTopic string
	metrics       domrepo.Metrics
}

var _ domrepo.EventPublisher = (*KafkaEvents)(nil)

func NewKafkaEvents(p MessageProducer, castTopic, analysisTopic string, m domrepo.Metrics) *KafkaEvents {
	if castTopic == "" {
		castTopic = TopicCastPublished
	}
	if analysisTopic == "" {
		analysisTopic = TopicAnalysisUpdated
	}
	return &KafkaEvents{producer: p, castTopic: castTopic, analysisTopic: analysisTopic, metrics: m}
}

// PublishCast is keyed by cast id.
func (k *KafkaEvents) PublishCast(ctx context.Context, evt models.CastEvent) error {
	if err := k.producer.Publish(ctx, k.castTopic, []byte(evt.Item.ID), evt); err != nil {
		return fmt.Errorf("publish cast event: %w", err)
	}
	k.metrics.RecordEventPublished(k.castTopic)
	return nil
}

// PublishAnalysis is keyed by symbol so one pair stays on one partition.
func (k *KafkaEvents) PublishAnalysis(ctx context.Context, snap models.SignalSnapshot) error {
	if err := k.producer.Publish(ctx, k.analysisTopic, []byte(snap.Symbol), snap); err != nil {
		return fmt.Errorf("publish analysis event: %w", err)
	}
	k.metrics.RecordEventPublished(k.analysisTopic)
	return nil
}

func (k *KafkaEvents) Close() error { return k.producer.Close() }

// NopEvents drops every event; used when Kafka is disabled.
type NopEvents struct{}

func (NopEvents) PublishCast(context.Context, models.CastEvent) error          { return nil }
func (NopEvents) PublishAnalysis(context.Context, models.SignalSnapshot) error { return nil }
func (NopEvents) Close() error                                                 { return nil }

// NopArchive drops every write; used when ClickHouse is disabled.
type NopArchive struct{}

func (NopArchive) StoreSnapshot(context.Context, models.SignalSnapshot) error { return nil }
func (NopArchive) StoreCast(context.Context, models.CastEvent) error          { return nil }
func (NopArchive) Health(context.Context) error                               { return nil }
