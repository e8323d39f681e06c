package rebalancing

import (
	"math"
	"sort"

	"github.com/rs/zerolog"

	"github.com/aristath/modelfolio/internal/modules/allocation"
)

// Simulator turns target weights into whole-share trades against the
// current holdings. Purely arithmetic; it never touches storage or the
// network.
type Simulator struct {
	costRate float64
	log      zerolog.Logger
}

// NewSimulator creates a simulator charging costRate per unit of traded
// notional
func NewSimulator(costRate float64, log zerolog.Logger) *Simulator {
	return &Simulator{
		costRate: costRate,
		log:      log.With().Str("component", "rebalance_simulator").Logger(),
	}
}

// Simulate computes the trades that move the portfolio from its current
// holdings to the target weights at the given prices. The starting NAV
// values positions at their stored value, not at the fresh quotes.
// Share counts are floored to whole shares and the remainder stays in
// cash. Symbols with no price are left out of the new position set
// entirely; their previous value folds back into cash. Trades are
// returned in universe order.
func (s *Simulator) Simulate(positions map[string]Position, cash float64, quotes map[string]float64, weights allocation.Weights) (SimulationResult, error) {
	if len(quotes) == 0 {
		return SimulationResult{}, ErrNoQuotes
	}

	navBefore := cash
	for _, pos := range positions {
		navBefore += pos.Value
	}

	newPositions := make(map[string]Position)
	var trades []Trade
	var invested, totalCosts, tradedNotional float64

	symbols := make([]string, 0, len(weights))
	for symbol := range weights {
		symbols = append(symbols, symbol)
	}
	sort.Slice(symbols, func(i, j int) bool {
		return universeRank(symbols[i]) < universeRank(symbols[j])
	})

	for _, symbol := range symbols {
		price, ok := quotes[symbol]
		if !ok || price <= 0 {
			s.log.Warn().Str("symbol", symbol).Msg("No price for target symbol, skipping")
			continue
		}

		targetValue := navBefore * weights[symbol]
		targetShares := int64(math.Floor(targetValue / price))
		currentShares := int64(0)
		if pos, held := positions[symbol]; held {
			currentShares = pos.Shares
		}

		diff := targetShares - currentShares
		if diff != 0 {
			action := "BUY"
			if diff < 0 {
				action = "SELL"
			}
			shares := diff
			if shares < 0 {
				shares = -shares
			}
			cost := float64(shares) * price * s.costRate
			trades = append(trades, Trade{
				Symbol: symbol,
				Action: action,
				Shares: shares,
				Price:  price,
				Cost:   cost,
			})
			totalCosts += cost
			tradedNotional += float64(shares) * price
		}

		newPositions[symbol] = Position{
			Shares: targetShares,
			Value:  float64(targetShares) * price,
		}
		invested += float64(targetShares) * price
	}

	if len(newPositions) == 0 {
		return SimulationResult{}, ErrNoQuotes
	}

	newCash := navBefore - invested - totalCosts
	if newCash < 0 {
		s.log.Warn().Float64("cash", newCash).
			Msg("Transaction costs pushed cash negative")
	}

	var turnover float64
	if navBefore > 0 {
		turnover = tradedNotional / navBefore
	}

	return SimulationResult{
		Positions:        newPositions,
		Cash:             newCash,
		Trades:           trades,
		Turnover:         turnover,
		TransactionCosts: totalCosts,
		NAVBefore:        navBefore,
		NAVAfter:         invested + newCash,
	}, nil
}

func universeRank(symbol string) int {
	for i, s := range allocation.Universe {
		if s == symbol {
			return i
		}
	}
	return len(allocation.Universe)
}
