package models

// RawKline is one positional market-data record as delivered by the provider:
// [openTime_ms, open, high, low, close, volume, ...]. Fields may be JSON numbers
// or numeric strings.
type RawKline []any

// Candle represents one normalized OHLC bar. Time is in unix seconds.
type Candle struct {
	Time  int64   `json:"time"`
	Open  float64 `json:"open"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Close float64 `json:"close"`
}

// EMAPoint is one smoothed value stamped with its candle's time.
type EMAPoint struct {
	Time  int64   `json:"time"`
	Value float64 `json:"value"`
}

// EMASeries is aligned 1:1 by index with the candles it was derived from.
type EMASeries struct {
	Period int        `json:"period"`
	Points []EMAPoint `json:"points"`
}

// IndicatorSet bundles the candles with the fast/medium/slow EMA lines.
type IndicatorSet struct {
	Candles []Candle  `json:"candles"`
	EMA5    EMASeries `json:"ema5"`
	EMA25   EMASeries `json:"ema25"`
	EMA99   EMASeries `json:"ema99"`
}

// ClosedKline is a finished bar reported by the live stream.
type ClosedKline struct {
	Symbol   string
	Interval string
	Raw      RawKline
}
