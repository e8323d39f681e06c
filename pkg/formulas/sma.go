package formulas

import (
	"github.com/markcheno/go-talib"
)

// SMA calculates the simple moving average over the trailing period.
//
// Args:
//
//	closes: Array of closing prices
//	period: Averaging window (e.g. 50 or 200)
//
// Returns:
//
//	The SMA of the last `period` closes, or nil if insufficient data
func SMA(closes []float64, period int) *float64 {
	if period <= 0 || len(closes) < period {
		return nil
	}

	sma := talib.Sma(closes, period)

	if len(sma) > 0 && !isNaN(sma[len(sma)-1]) {
		result := sma[len(sma)-1]
		return &result
	}

	return nil
}

// isNaN checks if a float64 is NaN
func isNaN(f float64) bool {
	return f != f
}
