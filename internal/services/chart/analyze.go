package chart

import "ChartCast/internal/domain/models"

// Analyze runs the full pipeline: normalize, derive the default EMA lines and
// detect signals on the last bar.
func Analyze(raw []models.RawKline) (*models.Analysis, error) {
	set, err := BuildIndicators(raw)
	if err != nil {
		return nil, err
	}

	signals := DetectSignals(set.Candles, Values(set.EMA5), Values(set.EMA25), Values(set.EMA99))

	var lastPrice float64
	if n := len(set.Candles); n > 0 {
		lastPrice = set.Candles[n-1].Close
	}

	return &models.Analysis{
		IndicatorSet: *set,
		Signals:      signals,
		LastPrice:    lastPrice,
	}, nil
}

// Names lists signal names in order; handy for logs and metrics labels.
func Names(signals []models.Signal) []string {
	out := make([]string, len(signals))
	for i, s := range signals {
		out[i] = s.Name
	}
	return out
}
