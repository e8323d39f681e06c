package allocation

import (
	"github.com/aristath/modelfolio/internal/modules/regime"
)

// CashSymbol is the residual bucket in a position set, never traded
const CashSymbol = "CASH"

// Universe is the fixed set of tradable instruments, in display order
var Universe = []string{"SPY", "VOO", "QQQ", "VTI", "IEF", "LQD", "BND", "GLD"}

// Weights maps symbols to target portfolio fractions
type Weights map[string]float64

var regimeWeights = map[regime.Regime]Weights{
	regime.RiskOn: {
		"SPY": 0.35,
		"VOO": 0.15,
		"QQQ": 0.20,
		"VTI": 0.10,
		"IEF": 0.08,
		"LQD": 0.07,
		"BND": 0.03,
		"GLD": 0.02,
	},
	regime.Neutral: {
		"SPY": 0.25,
		"VOO": 0.10,
		"QQQ": 0.10,
		"VTI": 0.05,
		"IEF": 0.25,
		"LQD": 0.15,
		"BND": 0.07,
		"GLD": 0.03,
	},
	regime.RiskOff: {
		"SPY": 0.10,
		"VOO": 0.05,
		"QQQ": 0.03,
		"VTI": 0.02,
		"IEF": 0.40,
		"LQD": 0.15,
		"BND": 0.15,
		"GLD": 0.10,
	},
}

// TargetWeights returns the target allocation for a regime. Unknown
// regimes get the Neutral weights. The result is a copy; callers may
// mutate it freely.
func TargetWeights(r regime.Regime) Weights {
	weights, ok := regimeWeights[r]
	if !ok {
		weights = regimeWeights[regime.Neutral]
	}

	out := make(Weights, len(weights))
	for symbol, w := range weights {
		out[symbol] = w
	}
	return out
}
