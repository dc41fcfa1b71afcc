package metrics

import (
	"ChartCast/internal/domain/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "chartcast"

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	sourceFallbacks *prometheus.CounterVec
	signals         *prometheus.CounterVec
	events          *prometheus.CounterVec
	errorsTotal     *prometheus.CounterVec
	lastPrice       *prometheus.GaugeVec
	latency         *prometheus.HistogramVec
}

// New registers the collectors on reg; nil means the default registry.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Recorder{
		sourceFallbacks: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "source_fallbacks_total",
				Help:      "Market-data requests served by a fallback source",
			},
			[]string{"from", "to"},
		),
		signals: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "signals_total",
				Help:      "Signals emitted by the detector",
			},
			[]string{"name", "type"},
		),
		events: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_published_total",
				Help:      "Domain events written to the message bus",
			},
			[]string{"topic"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_total",
				Help:      "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastPrice: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_price",
				Help:      "Last analysed close for a symbol",
			},
			[]string{"symbol"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "Duration of operations in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordSourceFallback counts a request that fell through from one source to another.
func (r *Recorder) RecordSourceFallback(from, to string) {
	r.sourceFallbacks.WithLabelValues(from, to).Inc()
}

// RecordSignal counts one emitted signal.
func (r *Recorder) RecordSignal(name string, polarity models.Polarity) {
	r.signals.WithLabelValues(name, string(polarity)).Inc()
}

// RecordEventPublished counts a message produced to topic.
func (r *Recorder) RecordEventPublished(topic string) {
	r.events.WithLabelValues(topic).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastPrice records the last price for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// Nop satisfies the same interface and records nothing.
type Nop struct{}

func (Nop) RecordSourceFallback(string, string)  {}
func (Nop) RecordSignal(string, models.Polarity) {}
func (Nop) RecordEventPublished(string)          {}
func (Nop) RecordError(string)                   {}
func (Nop) RecordLastPrice(string, float64)      {}
func (Nop) RecordLatency(string, float64)        {}
