package models

// TradingPairs lists the pairs offered by the pair selector.
var TradingPairs = []string{
	"BTCUSDT",
	"ETHUSDT",
	"BNBUSDT",
	"SOLUSDT",
	"DOGEUSDT",
	"XRPUSDT",
	"ADAUSDT",
	"AVAXUSDT",
	"DOTUSDT",
	"LINKUSDT",
	"LTCUSDT",
	"TRXUSDT",
	"MATICUSDT",
	"SHIBUSDT",
	"ATOMUSDT",
	"APTUSDT",
	"OPUSDT",
	"TONUSDT",
	"NEARUSDT",
	"ARBUSDT",
}

// Timeframe is a selectable chart interval.
type Timeframe struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Timeframes lists the supported chart intervals.
var Timeframes = []Timeframe{
	{Label: "15m", Value: "15m"},
	{Label: "1H", Value: "1h"},
	{Label: "4H", Value: "4h"},
	{Label: "1D", Value: "1d"},
}

// Catalog is the pair/timeframe listing served to clients.
type Catalog struct {
	Pairs      []string    `json:"pairs"`
	Timeframes []Timeframe `json:"timeframes"`
}
