package regime

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/aristath/modelfolio/pkg/formulas"
)

const (
	minHistoryBars = 200

	ma50Period  = 50
	ma200Period = 200
	volWindow   = 20
	ddWindow    = 63

	volRiskOn       = 0.20
	volRiskOff      = 0.30
	drawdownRiskOff = -0.10
)

// Classifier derives the market regime from benchmark daily closes
type Classifier struct {
	log zerolog.Logger
}

// NewClassifier creates a new regime classifier
func NewClassifier(log zerolog.Logger) *Classifier {
	return &Classifier{
		log: log.With().Str("component", "regime_classifier").Logger(),
	}
}

// DetermineRegime classifies the current regime from benchmark closes,
// ordered oldest first. Any risk-off condition overrides everything else;
// risk-on requires every favorable condition at once; anything in between
// stays neutral. Fewer than 200 closes defaults to Neutral.
func (c *Classifier) DetermineRegime(closes []float64) Classification {
	if len(closes) < minHistoryBars {
		c.log.Info().Int("bars", len(closes)).Int("required", minHistoryBars).
			Msg("Insufficient history, defaulting to Neutral")
		return Classification{
			Regime: Neutral,
			Reason: fmt.Sprintf("insufficient history (%d bars, need %d)", len(closes), minHistoryBars),
		}
	}

	lastClose := closes[len(closes)-1]
	ma50 := formulas.SMA(closes, ma50Period)
	ma200 := formulas.SMA(closes, ma200Period)

	volCloses := closes[len(closes)-volWindow:]
	vol20 := formulas.AnnualizedVolatility(formulas.LogReturns(volCloses))

	ddCloses := closes[len(closes)-ddWindow:]
	drawdown63 := formulas.DrawdownFromPeak(ddCloses)

	ind := &Indicators{
		ReferenceClose: lastClose,
		MA50:           *ma50,
		MA200:          *ma200,
		Vol20:          vol20,
		Drawdown63:     drawdown63,
	}

	regime := Neutral
	var reasons []string

	if lastClose < ind.MA200 {
		regime = RiskOff
		reasons = append(reasons, fmt.Sprintf("close %.2f below ma200 %.2f", lastClose, ind.MA200))
	}
	if drawdown63 < drawdownRiskOff {
		regime = RiskOff
		reasons = append(reasons, fmt.Sprintf("drawdown %.1f%% breaches %.0f%%", drawdown63*100, drawdownRiskOff*100))
	}
	if vol20 > volRiskOff {
		regime = RiskOff
		reasons = append(reasons, fmt.Sprintf("vol20 %.1f%% above %.0f%%", vol20*100, volRiskOff*100))
	}

	if regime == Neutral {
		if lastClose >= ind.MA200 && lastClose >= ind.MA50 && vol20 < volRiskOn {
			regime = RiskOn
			reasons = append(reasons, fmt.Sprintf("close at or above ma50 and ma200, vol20 %.1f%% below %.0f%%", vol20*100, volRiskOn*100))
		} else {
			reasons = append(reasons, "mixed signals, holding neutral")
		}
	}

	classification := Classification{
		Regime:     regime,
		Indicators: ind,
		Reason:     strings.Join(reasons, "; "),
	}

	c.log.Info().
		Str("regime", string(regime)).
		Float64("close", lastClose).
		Float64("ma50", ind.MA50).
		Float64("ma200", ind.MA200).
		Float64("vol20", vol20).
		Float64("drawdown63", drawdown63).
		Str("reason", classification.Reason).
		Msg("Regime determined")

	return classification
}
