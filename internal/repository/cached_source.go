package repository

import (
	"context"
	"time"

	"ChartCast/internal/domain/models"
	domrepo "ChartCast/internal/domain/repository"
	"ChartCast/pkg/cache"
)

const klinesKeyPrefix = "klines"

// CachedSource memoizes a KlineSource per symbol, interval and limit.
type CachedSource struct {
	next  domrepo.KlineSource
	cache cache.Service
	ttl   time.Duration
}

var _ domrepo.KlineSource = (*CachedSource)(nil)

type cachedKlines struct {
	Rows   []models.RawKline `json:"rows"`
	Source models.DataSource `json:"source"`
}

func NewCachedSource(next domrepo.KlineSource, c cache.Service, ttl time.Duration) *CachedSource {
	return &CachedSource{next: next, cache: c, ttl: ttl}
}

// FetchKlines serves from cache when fresh. Mock data is never cached so a
// recovering upstream is picked up on the next request.
func (s *CachedSource) FetchKlines(ctx context.Context, symbol, interval string, limit int) ([]models.RawKline, models.DataSource, error) {
	key := klinesKey(symbol, interval, limit)

	if s.cache != nil {
		var hit cachedKlines
		if err := s.cache.Get(ctx, key, &hit); err == nil && len(hit.Rows) > 0 {
			return hit.Rows, hit.Source, nil
		}
	}

	rows, src, err := s.next.FetchKlines(ctx, symbol, interval, limit)
	if err != nil {
		return nil, "", err
	}
	if s.cache != nil && s.ttl > 0 && src != models.SourceMock {
		_ = s.cache.Set(ctx, key, cachedKlines{Rows: rows, Source: src}, s.ttl)
	}
	return rows, src, nil
}

// Invalidate drops the cached rows for one request shape.
func (s *CachedSource) Invalidate(ctx context.Context, symbol, interval string, limit int) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Delete(ctx, klinesKey(symbol, interval, limit))
}

func klinesKey(symbol, interval string, limit int) string {
	return cache.GenerateKeyWithParams(klinesKeyPrefix, symbol, interval, limit)
}
