package server

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ChartCast/internal/domain/models"
	"ChartCast/pkg/cache"
	"ChartCast/pkg/config"
	applogger "ChartCast/pkg/logger"
)

type closingEvents struct {
	closed int
	err    error
}

func (e *closingEvents) PublishCast(context.Context, models.CastEvent) error          { return nil }
func (e *closingEvents) PublishAnalysis(context.Context, models.SignalSnapshot) error { return nil }
func (e *closingEvents) Close() error {
	e.closed++
	return e.err
}

func TestServeShutsDownWhenContextEnds(t *testing.T) {
	events := &closingEvents{}
	app := New(config.Default(), applogger.Nop(), Components{
		Events: events,
		Cache:  cache.NewLayeredCache(nil),
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, app.Serve(ctx))
	assert.Equal(t, 1, events.closed)
}

func TestServeReportsCloseErrors(t *testing.T) {
	boom := errors.New("broker gone")
	app := New(config.Default(), applogger.Nop(), Components{Events: &closingEvents{err: boom}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := app.Serve(ctx)
	assert.ErrorIs(t, err, boom)
}
