package models

// Polarity is the directional bias attached to a signal.
type Polarity string

const (
	Bullish Polarity = "BULLISH"
	Bearish Polarity = "BEARISH"
	Neutral Polarity = "NEUTRAL"
)

// Signal is a named observation about the latest market state.
type Signal struct {
	Type        Polarity `json:"type" validate:"required,oneof=BULLISH BEARISH NEUTRAL"`
	Name        string   `json:"name" validate:"required"`
	Description string   `json:"description"`
}

// Analysis is the output of one pipeline run over a kline sequence.
type Analysis struct {
	IndicatorSet
	Signals   []Signal `json:"signals"`
	LastPrice float64  `json:"lastPrice"`
}

// DataSource tells where a kline sequence came from.
type DataSource string

const (
	SourceBinance   DataSource = "binance"
	SourceBinanceUS DataSource = "binance_us"
	SourceMock      DataSource = "mock"
)

// MarketAnalysis is an Analysis tagged with the pair, timeframe and provenance.
type MarketAnalysis struct {
	Symbol   string     `json:"symbol"`
	Interval string     `json:"interval"`
	Source   DataSource `json:"source"`
	*Analysis
}
