package repository

import "time"

// IntervalDuration maps a Binance interval string to its bar length.
func IntervalDuration(interval string) (time.Duration, bool) {
	switch interval {
	case "1m":
		return time.Minute, true
	case "5m":
		return 5 * time.Minute, true
	case "15m":
		return 15 * time.Minute, true
	case "30m":
		return 30 * time.Minute, true
	case "1h":
		return time.Hour, true
	case "4h":
		return 4 * time.Hour, true
	case "1d":
		return 24 * time.Hour, true
	default:
		return 0, false
	}
}

// DefaultInterval returns the default chart interval.
func DefaultInterval() string { return "1h" }

// NormalizeInterval converts a raw string to a supported interval (or default).
func NormalizeInterval(s string) string {
	if _, ok := IntervalDuration(s); ok {
		return s
	}
	return DefaultInterval()
}
