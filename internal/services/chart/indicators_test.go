package chart

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ChartCast/internal/domain/models"
)

func risingKlines(n int) []models.RawKline {
	raw := make([]models.RawKline, n)
	for i := range raw {
		c := strconv.Itoa(i + 1)
		raw[i] = kline(int64(i)*3_600_000, c, c, c, c)
	}
	return raw
}

func TestBuildIndicatorsAlignment(t *testing.T) {
	set, err := BuildIndicators(risingKlines(120))
	require.NoError(t, err)

	require.Len(t, set.Candles, 120)
	for _, s := range []models.EMASeries{set.EMA5, set.EMA25, set.EMA99} {
		require.Len(t, s.Points, len(set.Candles))
		for i, p := range s.Points {
			assert.Equal(t, set.Candles[i].Time, p.Time)
		}
		assert.Equal(t, set.Candles[0].Close, s.Points[0].Value)
	}
	assert.Equal(t, FastPeriod, set.EMA5.Period)
	assert.Equal(t, MediumPeriod, set.EMA25.Period)
	assert.Equal(t, SlowPeriod, set.EMA99.Period)
}

func TestBuildIndicatorsFastLineLeadsOnRisingPrices(t *testing.T) {
	set, err := BuildIndicators(risingKlines(120))
	require.NoError(t, err)

	last := len(set.Candles) - 1
	fast, medium, slow := Values(set.EMA5), Values(set.EMA25), Values(set.EMA99)
	assert.Greater(t, fast[last], medium[last])
	assert.Greater(t, medium[last], slow[last])
}

func TestBuildIndicatorsWithPeriods(t *testing.T) {
	set, err := BuildIndicatorsWithPeriods(risingKlines(10), 3, 5, 7)
	require.NoError(t, err)

	assert.Equal(t, 3, set.EMA5.Period)
	assert.Equal(t, EMA(Closes(set.Candles), 7), Values(set.EMA99))
}

func TestBuildIndicatorsPropagatesShapeError(t *testing.T) {
	_, err := BuildIndicators([]models.RawKline{{1.0, "1"}})
	require.ErrorIs(t, err, ErrInvalidRecordShape)
}

func TestBuildIndicatorsEmpty(t *testing.T) {
	set, err := BuildIndicators(nil)
	require.NoError(t, err)
	assert.Empty(t, set.Candles)
	assert.Empty(t, set.EMA99.Points)
}
