package chart

// EMA returns the exponential moving average of data, aligned 1:1 with it.
//
// The recursion is seeded with data[0] rather than a lookback average, so the
// first period values are less smoothed but there is no NaN warm-up. period is
// not validated: values <= 0 give a smoothing constant outside (0, 1] and an
// oscillating or divergent series.
func EMA(data []float64, period int) []float64 {
	out := make([]float64, len(data))
	if len(data) == 0 {
		return out
	}

	k := 2 / float64(period+1)
	out[0] = data[0]
	for i := 1; i < len(data); i++ {
		out[i] = data[i]*k + out[i-1]*(1-k)
	}
	return out
}
