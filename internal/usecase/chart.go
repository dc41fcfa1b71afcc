package usecase

import (
	"context"
	"fmt"
	"time"

	"ChartCast/internal/domain/models"
	domrepo "ChartCast/internal/domain/repository"
	"ChartCast/internal/services/chart"
)

// Invalidator drops cached klines so the next fetch hits the provider.
type Invalidator interface {
	Invalidate(ctx context.Context, symbol, interval string, limit int) error
}

// ChartUseCase serves klines and their analysis for one pair/timeframe.
type ChartUseCase struct {
	source  domrepo.KlineSource
	metrics domrepo.Metrics
	limit   int
	timeout time.Duration
	now     func() time.Time
}

func NewChartUseCase(source domrepo.KlineSource, metrics domrepo.Metrics, limit int) *ChartUseCase {
	if limit <= 0 {
		limit = 200
	}
	return &ChartUseCase{
		source:  source,
		metrics: metrics,
		limit:   limit,
		timeout: 10 * time.Second,
		now:     time.Now,
	}
}

// Klines returns the raw provider rows.
func (uc *ChartUseCase) Klines(ctx context.Context, symbol, interval string) ([]models.RawKline, models.DataSource, error) {
	if symbol == "" {
		return nil, "", fmt.Errorf("symbol required")
	}
	interval = domrepo.NormalizeInterval(interval)

	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	return uc.source.FetchKlines(ctx, symbol, interval, uc.limit)
}

// Analyze fetches klines and runs the signal pipeline over them.
func (uc *ChartUseCase) Analyze(ctx context.Context, symbol, interval string) (*models.MarketAnalysis, error) {
	start := uc.now()
	interval = domrepo.NormalizeInterval(interval)

	raw, src, err := uc.Klines(ctx, symbol, interval)
	if err != nil {
		uc.metrics.RecordError("fetch_klines")
		return nil, err
	}

	a, err := chart.Analyze(raw)
	if err != nil {
		uc.metrics.RecordError("analyze")
		return nil, err
	}

	for _, s := range a.Signals {
		uc.metrics.RecordSignal(s.Name, s.Type)
	}
	if len(a.Candles) > 0 {
		uc.metrics.RecordLastPrice(symbol, a.LastPrice)
	}
	uc.metrics.RecordLatency("analyze", uc.now().Sub(start).Seconds())

	return &models.MarketAnalysis{
		Symbol:   symbol,
		Interval: interval,
		Source:   src,
		Analysis: a,
	}, nil
}

// Refresh drops any cached rows before analyzing. A failed invalidation is
// counted and the analysis may then come from the cache.
func (uc *ChartUseCase) Refresh(ctx context.Context, symbol, interval string) (*models.MarketAnalysis, error) {
	if inv, ok := uc.source.(Invalidator); ok {
		if err := inv.Invalidate(ctx, symbol, domrepo.NormalizeInterval(interval), uc.limit); err != nil {
			uc.metrics.RecordError("cache_invalidate")
		}
	}
	return uc.Analyze(ctx, symbol, interval)
}

// Snapshot converts an analysis into its archived form.
func (uc *ChartUseCase) Snapshot(ma *models.MarketAnalysis) models.SignalSnapshot {
	snap := models.SignalSnapshot{
		Timestamp: uc.now().UTC(),
		Symbol:    ma.Symbol,
		Interval:  ma.Interval,
		Source:    ma.Source,
	}
	if ma.Analysis != nil {
		snap.LastPrice = ma.LastPrice
		snap.Signals = ma.Signals
	}
	return snap
}
