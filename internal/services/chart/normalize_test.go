package chart

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ChartCast/internal/domain/models"
)

func kline(openMs int64, o, h, l, c string) models.RawKline {
	return models.RawKline{float64(openMs), o, h, l, c, "1000.00", float64(openMs + 3_599_999)}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want float64
	}{
		{"float", 42.5, 42.5},
		{"int", 7, 7},
		{"int64", int64(1700000000000), 1700000000000},
		{"string", "50123.45", 50123.45},
		{"padded string", " 1.5 ", 1.5},
		{"json number", json.Number("12.25"), 12.25},
		{"exponent", "1e3", 1000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseNumber(tt.in))
		})
	}
}

func TestParseNumberMalformed(t *testing.T) {
	for _, in := range []any{"abc", "", "12abc", nil, true, []int{1}, json.Number("x")} {
		assert.True(t, math.IsNaN(ParseNumber(in)), "input %#v", in)
	}
}

func TestParseNumberSpecialSpellings(t *testing.T) {
	assert.True(t, math.IsInf(ParseNumber("Inf"), 1))
	assert.True(t, math.IsInf(ParseNumber("-infinity"), -1))
	assert.True(t, math.IsNaN(ParseNumber("NaN")))
	assert.True(t, math.IsNaN(ParseNumber("0x1p4")))
	assert.True(t, math.IsNaN(ParseNumber("-0X10")))
	assert.Equal(t, 0.0, ParseNumber("0"))
}

func TestNormalizeConvertsMillisecondsToSeconds(t *testing.T) {
	raw := []models.RawKline{kline(3_600_000, "1", "2", "0.5", "1.5")}

	candles, err := Normalize(raw)
	require.NoError(t, err)
	require.Len(t, candles, 1)
	assert.Equal(t, models.Candle{Time: 3600, Open: 1, High: 2, Low: 0.5, Close: 1.5}, candles[0])
}

func TestNormalizeKeepsOrderAndLength(t *testing.T) {
	raw := []models.RawKline{
		kline(1_000, "1", "1", "1", "1"),
		kline(2_000, "2", "2", "2", "2"),
		kline(3_000, "3", "3", "3", "3"),
	}

	candles, err := Normalize(raw)
	require.NoError(t, err)
	require.Len(t, candles, len(raw))
	for i, c := range candles {
		assert.Equal(t, int64(i+1), c.Time)
		assert.Equal(t, float64(i+1), c.Close)
	}
}

func TestNormalizeMalformedFieldsBecomeNaN(t *testing.T) {
	raw := []models.RawKline{{float64(60_000), "oops", "2", "1", "", "0"}}

	candles, err := Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, int64(60), candles[0].Time)
	assert.True(t, math.IsNaN(candles[0].Open))
	assert.True(t, math.IsNaN(candles[0].Close))
	assert.Equal(t, 2.0, candles[0].High)
}

func TestNormalizeNonFiniteTimeIsZero(t *testing.T) {
	candles, err := Normalize([]models.RawKline{{"never", "1", "1", "1", "1", "1"}})
	require.NoError(t, err)
	assert.Zero(t, candles[0].Time)
}

func TestNormalizeRejectsShortRecord(t *testing.T) {
	raw := []models.RawKline{
		kline(1_000, "1", "1", "1", "1"),
		{float64(2_000), "1", "1", "1"},
	}

	_, err := Normalize(raw)
	require.ErrorIs(t, err, ErrInvalidRecordShape)
}

func TestNormalizeEmpty(t *testing.T) {
	candles, err := Normalize(nil)
	require.NoError(t, err)
	assert.Empty(t, candles)
}
