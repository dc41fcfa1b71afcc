package repository

import (
	"context"

	"ChartCast/internal/domain/models"
)

// KlineSource supplies ordered raw OHLCV records for a pair and interval.
type KlineSource interface {
	FetchKlines(ctx context.Context, symbol, interval string, limit int) ([]models.RawKline, models.DataSource, error)
}

// KlineStream delivers closed klines for a set of pairs.
type KlineStream interface {
	Connect(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.ClosedKline, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// HistoryStore is the append-only, capped log of published casts.
type HistoryStore interface {
	Append(ctx context.Context, item models.CastHistoryItem) error
	List(ctx context.Context) ([]models.CastHistoryItem, error)
	Clear(ctx context.Context) error
}

// EventPublisher emits domain events to the message bus.
type EventPublisher interface {
	PublishCast(ctx context.Context, evt models.CastEvent) error
	PublishAnalysis(ctx context.Context, snap models.SignalSnapshot) error
	Close() error
}

// Archive persists snapshots and casts for later analysis.
type Archive interface {
	StoreSnapshot(ctx context.Context, snap models.SignalSnapshot) error
	StoreCast(ctx context.Context, evt models.CastEvent) error
	Health(ctx context.Context) error
}

// Metrics receives operational counters from the usecases.
type Metrics interface {
	RecordSourceFallback(from, to string)
	RecordSignal(name string, polarity models.Polarity)
	RecordEventPublished(topic string)
	RecordError(kind string)
	RecordLastPrice(symbol string, price float64)
	RecordLatency(op string, seconds float64)
}
