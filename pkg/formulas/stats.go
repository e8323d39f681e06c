package formulas

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// PopStdDev calculates the population standard deviation (divides by N).
// Note: gonum's stat.StdDev applies Bessel's correction, which is not what
// the volatility indicator uses.
func PopStdDev(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}

	mean := stat.Mean(data, nil)
	var sumSq float64
	for _, v := range data {
		d := v - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(data)))
}

// LogReturns converts a price series into daily log returns.
// Returns[i] = ln(Price[i+1] / Price[i])
func LogReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return []float64{}
	}

	returns := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] > 0 && prices[i] > 0 {
			returns = append(returns, math.Log(prices[i]/prices[i-1]))
		}
	}

	return returns
}

// AnnualizedVolatility calculates annualized volatility from daily log returns
// Formula: Population Std Dev of Daily Returns × sqrt(252 trading days)
func AnnualizedVolatility(dailyReturns []float64) float64 {
	if len(dailyReturns) == 0 {
		return 0
	}
	return PopStdDev(dailyReturns) * math.Sqrt(252)
}

// DrawdownFromPeak calculates the decline of the last price from the highest
// price in the series, as a fraction. Always <= 0.
func DrawdownFromPeak(prices []float64) float64 {
	if len(prices) == 0 {
		return 0
	}

	peak := prices[0]
	for _, p := range prices {
		if p > peak {
			peak = p
		}
	}
	if peak <= 0 {
		return 0
	}

	last := prices[len(prices)-1]
	return (last - peak) / peak
}
