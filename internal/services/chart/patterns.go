package chart

import (
	"math"

	"ChartCast/internal/domain/models"
)

// MinCandles is the shortest history DetectSignals will evaluate.
const MinCandles = 5

const (
	// sidewaysBand is the relative distance to the slow line inside which
	// price is considered ranging.
	sidewaysBand = 0.002
	// dojiBody is the body/range ratio below which a bar is a doji.
	dojiBody = 0.1
)

var (
	signalSideways     = models.Signal{Type: models.Neutral, Name: "SIDEWAYS", Description: "Price ranging near EMA 99"}
	signalUptrend      = models.Signal{Type: models.Bullish, Name: "UPTREND", Description: "Price > EMA 99"}
	signalDowntrend    = models.Signal{Type: models.Bearish, Name: "DOWNTREND", Description: "Price < EMA 99"}
	signalBullMomentum = models.Signal{Type: models.Bullish, Name: "BULL MOMENTUM", Description: "EMA 5 > EMA 25"}
	signalBearMomentum = models.Signal{Type: models.Bearish, Name: "BEAR MOMENTUM", Description: "EMA 5 < EMA 25"}
	signalGoldenCross  = models.Signal{Type: models.Bullish, Name: "GOLDEN CROSS", Description: "EMA 5 crossed ABOVE EMA 25"}
	signalDeathCross   = models.Signal{Type: models.Bearish, Name: "DEATH CROSS", Description: "EMA 5 crossed BELOW EMA 25"}
	signalBreakout     = models.Signal{Type: models.Bullish, Name: "EMA99 BREAKOUT", Description: "Price broke ABOVE EMA 99"}
	signalBreakdown    = models.Signal{Type: models.Bearish, Name: "EMA99 BREAKDOWN", Description: "Price broke BELOW EMA 99"}
	signalHammer       = models.Signal{Type: models.Bullish, Name: "HAMMER", Description: "Bullish rejection of lower prices"}
	signalShootingStar = models.Signal{Type: models.Bearish, Name: "SHOOTING STAR", Description: "Bearish rejection of higher prices"}
	signalDoji         = models.Signal{Type: models.Neutral, Name: "DOJI", Description: "Market indecision"}
	signalBullEngulf   = models.Signal{Type: models.Bullish, Name: "BULL ENGULFING", Description: "Strong bullish reversal pattern"}
	signalBearEngulf   = models.Signal{Type: models.Bearish, Name: "BEAR ENGULFING", Description: "Strong bearish reversal pattern"}
)

// DetectSignals evaluates the latest bar against the one before it and the
// three EMA lines, which are index-aligned with candles. Fewer than MinCandles
// candles yield an empty list.
//
// Signals come back in a fixed order: trend, momentum, crossover, slow-line
// break, then single-bar shapes (hammer, shooting star, doji) and finally the
// two-bar engulfing pattern. Trend and momentum always produce exactly one
// entry; every other category produces at most one.
//
// Any NaN in the inputs makes the comparisons it takes part in false. A short
// EMA slice reads as NaN past its end.
func DetectSignals(candles []models.Candle, fast, medium, slow []float64) []models.Signal {
	signals := make([]models.Signal, 0, 6)
	n := len(candles)
	if n < MinCandles {
		return signals
	}

	last, prev := candles[n-1], candles[n-2]
	curFast, prevFast := at(fast, n-1), at(fast, n-2)
	curMed, prevMed := at(medium, n-1), at(medium, n-2)
	curSlow := at(slow, n-1)

	// Trend relative to the slow line.
	dist := math.Abs(last.Close - curSlow)
	switch {
	case dist < curSlow*sidewaysBand:
		signals = append(signals, signalSideways)
	case last.Close > curSlow:
		signals = append(signals, signalUptrend)
	default:
		signals = append(signals, signalDowntrend)
	}

	// Momentum, ties go bearish.
	if curFast > curMed {
		signals = append(signals, signalBullMomentum)
	} else {
		signals = append(signals, signalBearMomentum)
	}

	// Fast/medium crossover. Touching the medium line on the previous bar
	// is not a cross.
	if prevFast < prevMed && curFast > curMed {
		signals = append(signals, signalGoldenCross)
	} else if prevFast > prevMed && curFast < curMed {
		signals = append(signals, signalDeathCross)
	}

	// The previous close is measured against the current slow value.
	if prev.Close < curSlow && last.Close > curSlow {
		signals = append(signals, signalBreakout)
	} else if prev.Close > curSlow && last.Close < curSlow {
		signals = append(signals, signalBreakdown)
	}

	isGreen := last.Close > last.Open
	body := math.Abs(last.Close - last.Open)
	upperWick := last.High - math.Max(last.Open, last.Close)
	lowerWick := math.Min(last.Open, last.Close) - last.Low
	totalRange := last.High - last.Low

	if isGreen && lowerWick > body*2 && upperWick < body*0.5 {
		signals = append(signals, signalHammer)
	}
	if !isGreen && upperWick > body*2 && lowerWick < body*0.5 {
		signals = append(signals, signalShootingStar)
	}
	if body < totalRange*dojiBody {
		signals = append(signals, signalDoji)
	}

	prevGreen := prev.Close > prev.Open
	prevBody := math.Abs(prev.Close - prev.Open)
	switch {
	case !prevGreen && isGreen && body > prevBody && last.Close > prev.Open && last.Open < prev.Close:
		signals = append(signals, signalBullEngulf)
	case prevGreen && !isGreen && body > prevBody && last.Close < prev.Open && last.Open > prev.Close:
		signals = append(signals, signalBearEngulf)
	}

	return signals
}

func at(xs []float64, i int) float64 {
	if i < 0 || i >= len(xs) {
		return math.NaN()
	}
	return xs[i]
}
