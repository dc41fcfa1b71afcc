package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	domrepo "ChartCast/internal/domain/repository"
	"ChartCast/pkg/cache"
	"ChartCast/pkg/logger"
)

// Locker serializes runs across replicas.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key string) error
}

var _ Locker = (cache.Service)(nil)

// SnapshotScheduler analyzes every watched pair on a cron schedule and hands
// the snapshots to the sink.
type SnapshotScheduler struct {
	cron     *cron.Cron
	chart    *ChartUseCase
	sink     SnapshotSink
	locker   Locker
	pairs    []string
	interval string
	log      *logger.Logger
	metrics  domrepo.Metrics
	lockTTL  time.Duration
}

func NewSnapshotScheduler(chart *ChartUseCase, sink SnapshotSink, locker Locker, pairs []string, interval string, metrics domrepo.Metrics, log *logger.Logger) *SnapshotScheduler {
	return &SnapshotScheduler{
		cron:     cron.New(),
		chart:    chart,
		sink:     sink,
		locker:   locker,
		pairs:    pairs,
		interval: domrepo.NormalizeInterval(interval),
		log:      log,
		metrics:  metrics,
		lockTTL:  5 * time.Minute,
	}
}

// Register adds the snapshot job. spec uses the standard five-field syntax.
func (s *SnapshotScheduler) Register(ctx context.Context, spec string) error {
	if _, err := s.cron.AddFunc(spec, func() {
		if _, err := s.RunNow(ctx); err != nil {
			s.log.Warn("scheduled snapshot incomplete", logger.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("register snapshot job: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *SnapshotScheduler) Start() {
	s.cron.Start()
	s.log.Info("snapshot scheduler started",
		logger.Strings("pairs", s.pairs),
		logger.String("interval", s.interval),
	)
}

// Stop waits for a running job to finish or ctx to end.
func (s *SnapshotScheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunNow snapshots every pair once and returns how many were delivered.
// It is a no-op when another replica holds the lock.
func (s *SnapshotScheduler) RunNow(ctx context.Context) (int, error) {
	const lockKey = "lock:snapshots"

	if s.locker != nil {
		ok, err := s.locker.TryLock(ctx, lockKey, s.lockTTL)
		if err != nil {
			return 0, fmt.Errorf("acquire snapshot lock: %w", err)
		}
		if !ok {
			s.log.Debug("snapshot run skipped, lock held elsewhere")
			return 0, nil
		}
		defer func() { _ = s.locker.Unlock(context.Background(), lockKey) }()
	}

	var (
		delivered int
		errs      []error
	)
	for _, pair := range s.pairs {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		ma, err := s.chart.Refresh(ctx, pair, s.interval)
		if err != nil {
			s.metrics.RecordError("snapshot_analyze")
			errs = append(errs, fmt.Errorf("%s: %w", pair, err))
			continue
		}
		if err := s.sink.Deliver(ctx, s.chart.Snapshot(ma)); err != nil {
			s.metrics.RecordError("snapshot_deliver")
			errs = append(errs, fmt.Errorf("%s: %w", pair, err))
			continue
		}
		delivered++
	}

	s.log.Info("snapshot run finished",
		logger.Int("pairs", len(s.pairs)),
		logger.Int("delivered", delivered),
	)
	return delivered, errors.Join(errs...)
}
