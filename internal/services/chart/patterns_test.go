package chart

import (
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"ChartCast/internal/domain/models"
)

// flatCandles returns n doji-free bars pinned at price.
func flatCandles(n int, price float64) []models.Candle {
	out := make([]models.Candle, n)
	for i := range out {
		out[i] = models.Candle{Time: int64(i) * 3600, Open: price, High: price, Low: price, Close: price}
	}
	return out
}

func repeat(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestDetectSignalsNeedsFiveCandles(t *testing.T) {
	for n := 0; n < MinCandles; n++ {
		got := DetectSignals(flatCandles(n, 100), repeat(n, 100), repeat(n, 100), repeat(n, 100))
		assert.NotNil(t, got)
		assert.Empty(t, got, "n=%d", n)
	}
}

func TestDetectSignalsGoldenCross(t *testing.T) {
	candles := flatCandles(5, 10)
	candles[4] = models.Candle{Time: 4 * 3600, Open: 10, High: 15, Low: 10, Close: 15}
	fast := []float64{10, 10, 10, 9, 12}
	medium := []float64{10, 10, 10, 10, 11}
	slow := repeat(5, 10)

	got := DetectSignals(candles, fast, medium, slow)
	assert.Equal(t, []string{"UPTREND", "BULL MOMENTUM", "GOLDEN CROSS"}, Names(got))
	assert.Equal(t, models.Bullish, got[2].Type)
	assert.Equal(t, "EMA 5 crossed ABOVE EMA 25", got[2].Description)
}

func TestDetectSignalsDeathCross(t *testing.T) {
	candles := flatCandles(5, 10)
	fast := []float64{10, 10, 10, 11, 9}
	medium := []float64{10, 10, 10, 10, 10}

	got := DetectSignals(candles, fast, medium, repeat(5, 20))
	assert.Equal(t, []string{"DOWNTREND", "BEAR MOMENTUM", "DEATH CROSS"}, Names(got))
}

func TestDetectSignalsCrossover(t *testing.T) {
	tests := []struct {
		name                         string
		prevFast, prevMed, fast, med float64
		want                         []string
	}{
		{"golden", 24, 25, 26, 25, []string{"GOLDEN CROSS"}},
		{"death", 26, 25, 24, 25, []string{"DEATH CROSS"}},
		{"equal before rising", 25, 25, 26, 25, nil},
		{"equal before falling", 25, 25, 24, 25, nil},
		{"equal now", 24, 25, 25, 25, nil},
		{"stays above", 26, 25, 27, 25, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fast := []float64{20, 20, 20, tt.prevFast, tt.fast}
			medium := []float64{20, 20, 20, tt.prevMed, tt.med}

			got := DetectSignals(flatCandles(5, 10), fast, medium, repeat(5, 10))
			var crosses []string
			for _, name := range Names(got) {
				if name == "GOLDEN CROSS" || name == "DEATH CROSS" {
					crosses = append(crosses, name)
				}
			}
			assert.Equal(t, tt.want, crosses)
		})
	}
}

func TestDetectSignalsTrendAgainstSlowLine(t *testing.T) {
	tests := []struct {
		close float64
		want  string
	}{
		{110, "UPTREND"},
		{100.1, "SIDEWAYS"},
		{90, "DOWNTREND"},
	}
	for _, tt := range tests {
		t.Run(strconv.FormatFloat(tt.close, 'f', -1, 64), func(t *testing.T) {
			got := DetectSignals(flatCandles(5, tt.close), repeat(5, 1), repeat(5, 1), repeat(5, 100))
			require.NotEmpty(t, got)
			assert.Equal(t, tt.want, got[0].Name)
		})
	}
}

func TestDetectSignalsTrendThreshold(t *testing.T) {
	tests := []struct {
		close float64
		want  string
	}{
		{1001.5, "SIDEWAYS"},
		{998.5, "SIDEWAYS"},
		{1000, "SIDEWAYS"},
		{1002, "UPTREND"}, // distance equal to the band is not sideways
		{998, "DOWNTREND"},
		{1100, "UPTREND"},
		{900, "DOWNTREND"},
	}
	for _, tt := range tests {
		t.Run(strconv.FormatFloat(tt.close, 'f', -1, 64), func(t *testing.T) {
			candles := flatCandles(6, tt.close)
			got := DetectSignals(candles, repeat(6, 1), repeat(6, 1), repeat(6, 1000))
			require.NotEmpty(t, got)
			assert.Equal(t, tt.want, got[0].Name)
		})
	}
}

func TestDetectSignalsMomentumTieIsBearish(t *testing.T) {
	got := DetectSignals(flatCandles(5, 50), repeat(5, 7), repeat(5, 7), repeat(5, 50))
	require.Len(t, got, 2)
	assert.Equal(t, signalSideways, got[0])
	assert.Equal(t, signalBearMomentum, got[1])
}

func TestDetectSignalsHammer(t *testing.T) {
	candles := flatCandles(5, 100)
	candles[4] = models.Candle{Time: 4 * 3600, Open: 100, High: 101.2, Low: 97, Close: 101}

	got := DetectSignals(candles, repeat(5, 1), repeat(5, 1), repeat(5, 1))
	assert.Contains(t, Names(got), "HAMMER")
	assert.NotContains(t, Names(got), "DOJI")
}

func TestDetectSignalsHammerShapes(t *testing.T) {
	tests := []struct {
		name   string
		candle models.Candle
		want   bool
	}{
		{"long lower wick", models.Candle{Open: 100, Close: 102, High: 102.5, Low: 90}, true},
		{"wick exactly twice the body", models.Candle{Open: 100, Close: 102, High: 102.5, Low: 96}, false},
		{"upper wick half the body", models.Candle{Open: 100, Close: 102, High: 103, Low: 90}, false},
		{"red bar", models.Candle{Open: 102, Close: 100, High: 102.5, Low: 90}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			candles := flatCandles(5, 100)
			tt.candle.Time = 4 * 3600
			candles[4] = tt.candle

			got := Names(DetectSignals(candles, repeat(5, 1), repeat(5, 1), repeat(5, 1)))
			if tt.want {
				assert.Contains(t, got, "HAMMER")
			} else {
				assert.NotContains(t, got, "HAMMER")
			}
		})
	}
}

func TestDetectSignalsHammerWickBoundary(t *testing.T) {
	candles := flatCandles(5, 100)
	// lower wick is exactly twice the body
	candles[4] = models.Candle{Time: 4 * 3600, Open: 100, High: 101, Low: 98, Close: 101}

	got := DetectSignals(candles, repeat(5, 1), repeat(5, 1), repeat(5, 1))
	assert.NotContains(t, Names(got), "HAMMER")
}

func TestDetectSignalsShootingStar(t *testing.T) {
	candles := flatCandles(5, 100)
	candles[4] = models.Candle{Time: 4 * 3600, Open: 101, High: 104, Low: 99.8, Close: 100}

	got := DetectSignals(candles, repeat(5, 1), repeat(5, 1), repeat(5, 1))
	assert.Contains(t, Names(got), "SHOOTING STAR")
	assert.NotContains(t, Names(got), "HAMMER")
}

func TestDetectSignalsDoji(t *testing.T) {
	candles := flatCandles(5, 100)
	candles[4] = models.Candle{Time: 4 * 3600, Open: 100, High: 101, Low: 99, Close: 100.05}

	got := DetectSignals(candles, repeat(5, 1), repeat(5, 1), repeat(5, 1))
	assert.Equal(t, "DOJI", got[len(got)-1].Name)
	assert.Equal(t, models.Neutral, got[len(got)-1].Type)
}

func TestDetectSignalsFlatBarIsNotDoji(t *testing.T) {
	got := DetectSignals(flatCandles(5, 100), repeat(5, 1), repeat(5, 1), repeat(5, 1))
	assert.NotContains(t, Names(got), "DOJI")
}

func TestDetectSignalsEngulfing(t *testing.T) {
	t.Run("bull", func(t *testing.T) {
		candles := flatCandles(5, 100)
		candles[3] = models.Candle{Time: 3 * 3600, Open: 102, High: 102, Low: 100, Close: 100}
		candles[4] = models.Candle{Time: 4 * 3600, Open: 99.5, High: 103, Low: 99.5, Close: 103}

		got := DetectSignals(candles, repeat(5, 1), repeat(5, 1), repeat(5, 1))
		assert.Equal(t, signalBullEngulf, got[len(got)-1])
	})
	t.Run("bear", func(t *testing.T) {
		candles := flatCandles(5, 100)
		candles[3] = models.Candle{Time: 3 * 3600, Open: 100, High: 102, Low: 100, Close: 102}
		candles[4] = models.Candle{Time: 4 * 3600, Open: 102.5, High: 102.5, Low: 99, Close: 99}

		got := DetectSignals(candles, repeat(5, 1), repeat(5, 1), repeat(5, 1))
		assert.Equal(t, signalBearEngulf, got[len(got)-1])
	})
}

func TestDetectSignalsBreakoutUsesCurrentSlowValue(t *testing.T) {
	candles := flatCandles(5, 100)
	candles[3].Close = 98
	candles[4] = models.Candle{Time: 4 * 3600, Open: 101, High: 101, Low: 101, Close: 101}
	// the previous close was already above the previous slow value
	slow := []float64{97, 97, 97, 97, 100}

	got := DetectSignals(candles, repeat(5, 1), repeat(5, 1), slow)
	assert.Contains(t, Names(got), "EMA99 BREAKOUT")

	candles[3].Close = 101
	candles[4] = models.Candle{Time: 4 * 3600, Open: 99, High: 99, Low: 99, Close: 99}
	slow = []float64{103, 103, 103, 103, 100}

	got = DetectSignals(candles, repeat(5, 1), repeat(5, 1), slow)
	assert.Contains(t, Names(got), "EMA99 BREAKDOWN")
}

func TestDetectSignalsNaNClose(t *testing.T) {
	candles := flatCandles(5, 100)
	candles[4].Close = math.NaN()

	var got []models.Signal
	require.NotPanics(t, func() {
		got = DetectSignals(candles, repeat(5, 100), repeat(5, 100), repeat(5, 100))
	})
	// only the two categories with a fall-through branch remain
	assert.Equal(t, []string{"DOWNTREND", "BEAR MOMENTUM"}, Names(got))
}

func TestDetectSignalsShortEMASlices(t *testing.T) {
	var got []models.Signal
	require.NotPanics(t, func() {
		got = DetectSignals(flatCandles(8, 100), []float64{1}, nil, repeat(3, 100))
	})
	assert.Equal(t, []string{"DOWNTREND", "BEAR MOMENTUM"}, Names(got))
}

func TestDetectSignalsInvariants(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(MinCandles, 60).Draw(t, "n")
		candles := make([]models.Candle, n)
		for i := range candles {
			o := rapid.Float64Range(1, 1000).Draw(t, "open")
			c := rapid.Float64Range(1, 1000).Draw(t, "close")
			hi := math.Max(o, c) + rapid.Float64Range(0, 50).Draw(t, "upper")
			lo := math.Min(o, c) - rapid.Float64Range(0, 0.9).Draw(t, "lower")
			candles[i] = models.Candle{Time: int64(i), Open: o, High: hi, Low: lo, Close: c}
		}
		closes := Closes(candles)
		fast, medium, slow := EMA(closes, 5), EMA(closes, 25), EMA(closes, 99)

		got := DetectSignals(candles, fast, medium, slow)
		again := DetectSignals(candles, fast, medium, slow)
		if len(got) < 2 {
			t.Fatalf("want at least trend and momentum, got %v", Names(got))
		}
		if len(got) != len(again) {
			t.Fatalf("not deterministic: %v vs %v", Names(got), Names(again))
		}

		trend := map[string]bool{"UPTREND": true, "DOWNTREND": true, "SIDEWAYS": true}
		momentum := map[string]bool{"BULL MOMENTUM": true, "BEAR MOMENTUM": true}
		if !trend[got[0].Name] || !momentum[got[1].Name] {
			t.Fatalf("unexpected leading signals %v", Names(got))
		}

		seen := map[string]bool{}
		for i, s := range got {
			if seen[s.Name] {
				t.Fatalf("duplicate signal %s", s.Name)
			}
			seen[s.Name] = true
			if i >= 2 && (trend[s.Name] || momentum[s.Name]) {
				t.Fatalf("trend or momentum repeated at %d", i)
			}
			if s != again[i] {
				t.Fatalf("not deterministic at %d", i)
			}
		}
		if seen["GOLDEN CROSS"] && seen["DEATH CROSS"] {
			t.Fatal("both crossovers")
		}
		if seen["BULL ENGULFING"] && seen["BEAR ENGULFING"] {
			t.Fatal("both engulfing patterns")
		}
		if seen["HAMMER"] && seen["SHOOTING STAR"] {
			t.Fatal("hammer and shooting star together")
		}
	})
}
