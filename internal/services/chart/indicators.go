package chart

import "ChartCast/internal/domain/models"

// Conventional fast/medium/slow periods.
const (
	FastPeriod   = 5
	MediumPeriod = 25
	SlowPeriod   = 99
)

// BuildIndicators normalizes raw and derives the EMA5/EMA25/EMA99 lines from
// the closing prices.
func BuildIndicators(raw []models.RawKline) (*models.IndicatorSet, error) {
	return BuildIndicatorsWithPeriods(raw, FastPeriod, MediumPeriod, SlowPeriod)
}

// BuildIndicatorsWithPeriods is BuildIndicators with explicit periods. The
// series are stored in the EMA5/EMA25/EMA99 slots in fast/medium/slow order.
func BuildIndicatorsWithPeriods(raw []models.RawKline, fast, medium, slow int) (*models.IndicatorSet, error) {
	candles, err := Normalize(raw)
	if err != nil {
		return nil, err
	}
	closes := Closes(candles)

	return &models.IndicatorSet{
		Candles: candles,
		EMA5:    stamp(candles, EMA(closes, fast), fast),
		EMA25:   stamp(candles, EMA(closes, medium), medium),
		EMA99:   stamp(candles, EMA(closes, slow), slow),
	}, nil
}

// Closes extracts closing prices.
func Closes(candles []models.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}

// Values strips the timestamps from a series.
func Values(s models.EMASeries) []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Value
	}
	return out
}

func stamp(candles []models.Candle, values []float64, period int) models.EMASeries {
	points := make([]models.EMAPoint, len(values))
	for i, v := range values {
		points[i] = models.EMAPoint{Time: candles[i].Time, Value: v}
	}
	return models.EMASeries{Period: period, Points: points}
}
