// Package chart is the technical-analysis signal engine: it normalizes raw
// klines, derives EMA trend lines and flags pattern, trend and momentum signals
// on the latest bar.
//
// Everything here is pure. Bad numeric content never fails; it becomes NaN and
// quietly switches off the comparisons it touches. Only a record that is too
// short to hold an OHLC bar is rejected.
package chart

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"ChartCast/internal/domain/models"
)

// ErrInvalidRecordShape is returned when a raw record lacks the positional
// fields [openTime, open, high, low, close, volume].
var ErrInvalidRecordShape = errors.New("chart: invalid record shape")

const (
	fieldOpenTime = iota
	fieldOpen
	fieldHigh
	fieldLow
	fieldClose
	fieldVolume

	recordArity
)

// Normalize converts raw provider records into candles, preserving order.
func Normalize(raw []models.RawKline) ([]models.Candle, error) {
	out := make([]models.Candle, len(raw))
	for i, r := range raw {
		if len(r) < recordArity {
			return nil, fmt.Errorf("record %d has %d fields, want %d: %w", i, len(r), recordArity, ErrInvalidRecordShape)
		}
		out[i] = models.Candle{
			Time:  msToSeconds(ParseNumber(r[fieldOpenTime])),
			Open:  ParseNumber(r[fieldOpen]),
			High:  ParseNumber(r[fieldHigh]),
			Low:   ParseNumber(r[fieldLow]),
			Close: ParseNumber(r[fieldClose]),
		}
	}
	return out, nil
}

// ParseNumber reads a numeric or numeric-string field. Anything it cannot read
// yields NaN.
func ParseNumber(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case float32:
		return float64(x)
	case int:
		return float64(x)
	case int64:
		return float64(x)
	case int32:
		return float64(x)
	case uint64:
		return float64(x)
	case string:
		// Decimal and exponent forms only. "Inf" and "NaN" spellings parse to
		// their float values; hex floats do not.
		x = strings.TrimSpace(x)
		if isHexFloat(x) {
			return math.NaN()
		}
		f, err := strconv.ParseFloat(x, 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return math.NaN()
		}
		return f
	case interface{ Float64() (float64, error) }:
		f, err := x.Float64()
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

// msToSeconds keeps unix-second timestamps integral. A non-finite open time
// maps to zero.
func msToSeconds(ms float64) int64 {
	if math.IsNaN(ms) || math.IsInf(ms, 0) {
		return 0
	}
	return int64(ms / 1000)
}

func isHexFloat(s string) bool {
	s = strings.TrimLeft(s, "+-")
	return len(s) > 1 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}
