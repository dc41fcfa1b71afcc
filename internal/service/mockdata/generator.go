// Package mockdata produces synthetic hourly klines for offline mode.
package mockdata

import (
	"context"
	"math/rand/v2"
	"strconv"
	"sync"
	"time"

	"ChartCast/internal/domain/models"
)

const (
	DefaultLimit = 200
	startPrice   = 50000.0
	bodySpread   = 500.0
	wickSpread   = 100.0
	volume       = "1000.00"
	barMs        = int64(time.Hour / time.Millisecond)
)

// Generator emits a random walk of one-hour bars ending at the current time.
type Generator struct {
	mu  sync.Mutex
	rnd *rand.Rand
	now func() time.Time
}

// New seeds the walk from the wall clock.
func New() *Generator {
	return NewWithSeed(uint64(time.Now().UnixNano()), time.Now)
}

// NewWithSeed is deterministic for a given seed and clock.
func NewWithSeed(seed uint64, now func() time.Time) *Generator {
	return &Generator{
		rnd: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		now: now,
	}
}

// Generate returns limit rows shaped like the Binance klines payload.
// Prices are decimal strings, times are milliseconds.
func (g *Generator) Generate(limit int) []models.RawKline {
	if limit <= 0 {
		limit = DefaultLimit
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	ts := g.now().UnixMilli() - int64(limit)*barMs
	price := startPrice
	out := make([]models.RawKline, 0, limit)

	for i := 0; i < limit; i++ {
		open := price
		cl := price + (g.rnd.Float64()-0.5)*bodySpread
		high := max(open, cl) + g.rnd.Float64()*wickSpread
		low := min(open, cl) - g.rnd.Float64()*wickSpread

		out = append(out, models.RawKline{
			float64(ts),
			format(open),
			format(high),
			format(low),
			format(cl),
			volume,
			float64(ts + barMs),
		})

		price = cl
		ts += barMs
	}
	return out
}

// FetchKlines makes the generator usable as the last source in a chain.
func (g *Generator) FetchKlines(_ context.Context, _, _ string, limit int) ([]models.RawKline, models.DataSource, error) {
	return g.Generate(limit), models.SourceMock, nil
}

func format(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
