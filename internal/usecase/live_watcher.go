package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"ChartCast/internal/domain/models"
	domrepo "ChartCast/internal/domain/repository"
	mid "ChartCast/internal/middleware"
	"ChartCast/internal/services/chart"
	"ChartCast/pkg/logger"
)

// SnapshotSink receives refreshed analyses.
type SnapshotSink struct {
	Events  domrepo.EventPublisher
	Archive domrepo.Archive
}

// Deliver publishes and archives snap; both are attempted.
func (s SnapshotSink) Deliver(ctx context.Context, snap models.SignalSnapshot) error {
	var errs []error
	if s.Events != nil {
		errs = append(errs, s.Events.PublishAnalysis(ctx, snap))
	}
	if s.Archive != nil {
		errs = append(errs, s.Archive.StoreSnapshot(ctx, snap))
	}
	return errors.Join(errs...)
}

// LiveWatcher re-analyzes a pair whenever the stream closes one of its bars.
type LiveWatcher struct {
	stream  domrepo.KlineStream
	chart   *ChartUseCase
	sink    SnapshotSink
	metrics domrepo.Metrics
	log     *logger.Logger
	pipe    *mid.KlinePipeline

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewLiveWatcher wires the pipeline so closed klines pass its throttle first.
func NewLiveWatcher(stream domrepo.KlineStream, chart *ChartUseCase, sink SnapshotSink, metrics domrepo.Metrics, log *logger.Logger, opts ...mid.PipelineOption) *LiveWatcher {
	w := &LiveWatcher{stream: stream, chart: chart, sink: sink, metrics: metrics, log: log}
	w.pipe = mid.NewKlinePipeline(w, metrics, opts...)
	return w
}

// IsConnected returns true if the kline stream is connected.
func (w *LiveWatcher) IsConnected() bool { return w.stream.IsConnected() }

func (w *LiveWatcher) Start(ctx context.Context) error {
	if err := w.stream.Connect(ctx); err != nil {
		return err
	}

	ctx, w.cancel = context.WithCancel(ctx)
	w.pipe.Start(ctx)

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.run(ctx)
	}()
	return nil
}

func (w *LiveWatcher) run(ctx context.Context) {
	for {
		klines, errs := w.stream.Read(ctx)
		w.consume(ctx, klines, errs)

		if ctx.Err() != nil {
			return
		}
		for {
			w.metrics.RecordError("stream")
			err := w.stream.Reconnect(ctx)
			if err == nil {
				break
			}
			if ctx.Err() != nil {
				return
			}
			w.log.Warn("kline stream reconnect failed", logger.Error(err))
		}
	}
}

// consume returns when the stream reports an error or ctx ends.
func (w *LiveWatcher) consume(ctx context.Context, klines <-chan *models.ClosedKline, errs <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errs:
			if ok && err != nil {
				w.log.Warn("kline stream error", logger.Error(err))
			}
			return
		case k, ok := <-klines:
			if !ok {
				return
			}
			if err := w.pipe.Process(ctx, k); err != nil && !errors.Is(err, mid.ErrDuplicateKline) {
				w.log.Warn("closed kline not processed",
					logger.String("symbol", k.Symbol),
					logger.Error(err),
				)
			}
		}
	}
}

// Process refreshes the pair's analysis and delivers the snapshot.
func (w *LiveWatcher) Process(ctx context.Context, k *models.ClosedKline) error {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	ma, err := w.chart.Refresh(ctx, k.Symbol, k.Interval)
	if err != nil {
		return err
	}
	snap := w.chart.Snapshot(ma)

	w.log.Debug("analysis refreshed on closed kline",
		logger.String("symbol", k.Symbol),
		logger.String("interval", k.Interval),
		logger.Strings("signals", chart.Names(snap.Signals)),
	)
	return w.sink.Deliver(ctx, snap)
}

// Shutdown stops the pipeline and closes the stream.
func (w *LiveWatcher) Shutdown(ctx context.Context) error {
	if w.cancel != nil {
		w.cancel()
	}
	w.pipe.Stop()
	err := w.stream.Close()

	done := make(chan struct{})
	go func() { w.wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return err
}
