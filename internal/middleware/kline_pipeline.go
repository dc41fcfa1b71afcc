package middleware

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"ChartCast/internal/domain/models"
	domrepo "ChartCast/internal/domain/repository"
	"ChartCast/internal/services/chart"
)

var ErrDuplicateKline = errors.New("kline already processed")

// Proc is the minimal processor interface the pipeline needs.
type Proc interface {
	Process(ctx context.Context, k *models.ClosedKline) error
}

// KlinePipeline sits between the websocket stream and the analysis refresh.
// It validates, drops replays and bursts per pair, and buffers when downstream fails.
type KlinePipeline struct {
	proc    Proc
	metrics domrepo.Metrics
	minGap  time.Duration
	bufSize int
	bufCh   chan *models.ClosedKline
	stopCh  chan struct{}
	started bool
	now     func() time.Time

	mu       sync.Mutex
	lastSeen map[string]seen
}

type seen struct {
	at       time.Time
	openTime float64
}

type PipelineOption func(*KlinePipeline)

// WithMinGap sets the minimum wall time between two refreshes of one pair.
func WithMinGap(d time.Duration) PipelineOption {
	return func(p *KlinePipeline) {
		if d >= 0 {
			p.minGap = d
		}
	}
}

// WithBufferSize sets the retry buffer size used when downstream is unavailable.
func WithBufferSize(n int) PipelineOption {
	return func(p *KlinePipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) PipelineOption {
	return func(p *KlinePipeline) { p.now = now }
}

// NewKlinePipeline creates a new pipeline.
func NewKlinePipeline(proc Proc, metrics domrepo.Metrics, opts ...PipelineOption) *KlinePipeline {
	p := &KlinePipeline{
		proc:     proc,
		metrics:  metrics,
		minGap:   2 * time.Second,
		bufSize:  64,
		stopCh:   make(chan struct{}),
		now:      time.Now,
		lastSeen: make(map[string]seen),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.bufCh = make(chan *models.ClosedKline, p.bufSize)
	return p
}

// Start launches background retry of buffered klines.
func (p *KlinePipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go func() {
		backoff := 50 * time.Millisecond
		for {
			select {
			case <-p.stopCh:
				return
			case <-ctx.Done():
				return
			case k := <-p.bufCh:
				if err := p.proc.Process(ctx, k); err != nil {
					if backoff < 2*time.Second {
						backoff *= 2
					}
					p.metrics.RecordError("pipeline_flush")
					select {
					case <-time.After(backoff):
					case <-p.stopCh:
						return
					case <-ctx.Done():
						return
					}
					select {
					case p.bufCh <- k:
					default:
						p.metrics.RecordError("pipeline_buffer_drop")
					}
				} else {
					backoff = 50 * time.Millisecond
				}
			}
		}
	}()
}

// Stop stops the background retry loop.
func (p *KlinePipeline) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.started {
		return
	}
	p.started = false
	close(p.stopCh)
}

// Process validates and throttles k, then forwards it downstream.
// Throttled klines are dropped silently; replays return ErrDuplicateKline.
func (p *KlinePipeline) Process(ctx context.Context, k *models.ClosedKline) error {
	start := p.now()
	if err := validateKline(k); err != nil {
		p.metrics.RecordError("pipeline_validate")
		return err
	}

	switch p.admit(k, start) {
	case admitDuplicate:
		return ErrDuplicateKline
	case admitThrottled:
		p.metrics.RecordError("pipeline_throttle")
		return nil
	}

	if err := p.proc.Process(ctx, k); err != nil {
		p.metrics.RecordError("pipeline_process")
		select {
		case p.bufCh <- k:
			p.metrics.RecordLatency("pipeline_buffer_depth", float64(len(p.bufCh)))
		default:
			p.metrics.RecordError("pipeline_buffer_full")
		}
		return fmt.Errorf("pipeline downstream: %w", err)
	}
	p.metrics.RecordLatency("pipeline_process", p.now().Sub(start).Seconds())
	return nil
}

// Buffered reports how many klines wait for retry.
func (p *KlinePipeline) Buffered() int { return len(p.bufCh) }

func validateKline(k *models.ClosedKline) error {
	if k == nil {
		return fmt.Errorf("kline nil")
	}
	if k.Symbol == "" {
		return fmt.Errorf("symbol empty")
	}
	if _, err := chart.Normalize([]models.RawKline{k.Raw}); err != nil {
		return err
	}
	if t := chart.ParseNumber(k.Raw[0]); math.IsNaN(t) || t <= 0 {
		return fmt.Errorf("open time invalid")
	}
	return nil
}

type admission int

const (
	admitOK admission = iota
	admitDuplicate
	admitThrottled
)

func (p *KlinePipeline) admit(k *models.ClosedKline, now time.Time) admission {
	key := k.Symbol + "@" + k.Interval
	openTime := chart.ParseNumber(k.Raw[0])

	p.mu.Lock()
	defer p.mu.Unlock()

	last, ok := p.lastSeen[key]
	if ok && openTime <= last.openTime {
		return admitDuplicate
	}
	if ok && p.minGap > 0 && now.Sub(last.at) < p.minGap {
		return admitThrottled
	}
	p.lastSeen[key] = seen{at: now, openTime: openTime}
	return admitOK
}
