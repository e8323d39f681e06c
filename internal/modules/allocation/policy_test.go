package allocation

import (
	"math"
	"testing"

	"github.com/aristath/modelfolio/internal/modules/regime"
)

func TestTargetWeights_CoversUniverseAndSumsToOne(t *testing.T) {
	for _, r := range []regime.Regime{regime.RiskOn, regime.Neutral, regime.RiskOff} {
		weights := TargetWeights(r)

		if len(weights) != len(Universe) {
			t.Errorf("%s: expected %d weights, got %d", r, len(Universe), len(weights))
		}

		var sum float64
		for _, symbol := range Universe {
			w, ok := weights[symbol]
			if !ok {
				t.Errorf("%s: missing weight for %s", r, symbol)
				continue
			}
			if w < 0 {
				t.Errorf("%s: negative weight %.4f for %s", r, w, symbol)
			}
			sum += w
		}
		if math.Abs(sum-1.0) > 1e-9 {
			t.Errorf("%s: weights sum to %.6f, want 1.0", r, sum)
		}
	}
}

func TestTargetWeights_RiskOffFavorsBonds(t *testing.T) {
	weights := TargetWeights(regime.RiskOff)
	if weights["IEF"] <= weights["SPY"] {
		t.Errorf("Expected IEF weight above SPY in Risk-Off, got IEF=%.2f SPY=%.2f",
			weights["IEF"], weights["SPY"])
	}
}

func TestTargetWeights_UnknownRegimeFallsBackToNeutral(t *testing.T) {
	got := TargetWeights(regime.Regime("Sideways"))
	want := TargetWeights(regime.Neutral)

	for symbol, w := range want {
		if got[symbol] != w {
			t.Errorf("Expected Neutral weight %.2f for %s, got %.2f", w, symbol, got[symbol])
		}
	}
}

func TestTargetWeights_ReturnsIndependentCopy(t *testing.T) {
	first := TargetWeights(regime.RiskOn)
	first["SPY"] = 0

	second := TargetWeights(regime.RiskOn)
	if second["SPY"] != 0.35 {
		t.Errorf("Mutating a returned map must not affect later calls, got %.2f", second["SPY"])
	}
}
