package rebalancing

import (
	"errors"
	"math"
	"testing"

	"github.com/rs/zerolog"

	"github.com/aristath/modelfolio/internal/modules/allocation"
)

func TestSimulate_AllCashSingleTarget(t *testing.T) {
	sim := NewSimulator(0.0005, zerolog.Nop())

	result, err := sim.Simulate(
		nil,
		1_000_000,
		map[string]float64{"SPY": 100},
		allocation.Weights{"SPY": 1.0},
	)
	if err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}

	pos := result.Positions["SPY"]
	if pos.Shares != 10000 {
		t.Errorf("Expected 10000 shares, got %d", pos.Shares)
	}
	if len(result.Trades) != 1 || result.Trades[0].Action != "BUY" {
		t.Fatalf("Expected a single BUY, got %+v", result.Trades)
	}
	if math.Abs(result.TransactionCosts-500) > 1e-9 {
		t.Errorf("Expected costs 500, got %.4f", result.TransactionCosts)
	}
	if math.Abs(result.Cash-(-500)) > 1e-9 {
		t.Errorf("Expected cash -500 after costs, got %.4f", result.Cash)
	}
	if math.Abs(result.NAVAfter-(result.NAVBefore-result.TransactionCosts)) > 1e-9 {
		t.Errorf("Expected navAfter = navBefore - costs, got before=%.2f after=%.2f costs=%.2f",
			result.NAVBefore, result.NAVAfter, result.TransactionCosts)
	}
	if math.Abs(result.Turnover-1.0) > 1e-9 {
		t.Errorf("Expected full turnover, got %.4f", result.Turnover)
	}
}

func TestSimulate_AlreadyAtTargetIsIdempotent(t *testing.T) {
	sim := NewSimulator(0.0005, zerolog.Nop())

	// Prices that do not divide the target values evenly, so flooring
	// leaves enough cash residue to absorb the transaction-cost drag
	quotes := map[string]float64{"SPY": 333, "IEF": 77}
	weights := allocation.Weights{"SPY": 0.5, "IEF": 0.5}

	first, err := sim.Simulate(nil, 100_000, quotes, weights)
	if err != nil {
		t.Fatalf("First pass failed: %v", err)
	}

	second, err := sim.Simulate(first.Positions, first.Cash, quotes, weights)
	if err != nil {
		t.Fatalf("Second pass failed: %v", err)
	}

	if len(second.Trades) != 0 {
		t.Errorf("Expected no trades at same prices and weights, got %+v", second.Trades)
	}
	if second.TransactionCosts != 0 {
		t.Errorf("Expected zero costs, got %.4f", second.TransactionCosts)
	}
	if math.Abs(second.NAVAfter-second.NAVBefore) > 1e-9 {
		t.Errorf("Expected NAV unchanged, got before=%.4f after=%.4f",
			second.NAVBefore, second.NAVAfter)
	}
}

func TestSimulate_FloorsToWholeShares(t *testing.T) {
	sim := NewSimulator(0.0005, zerolog.Nop())

	// 10000 * 0.5 = 5000 target value, 5000/333 = 15.01 shares
	result, err := sim.Simulate(
		nil,
		10_000,
		map[string]float64{"SPY": 333, "IEF": 100},
		allocation.Weights{"SPY": 0.5, "IEF": 0.5},
	)
	if err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}

	if result.Positions["SPY"].Shares != 15 {
		t.Errorf("Expected 15 whole shares, got %d", result.Positions["SPY"].Shares)
	}
	if result.Cash < 0 {
		t.Errorf("Flooring should leave a positive cash remainder, got %.4f", result.Cash)
	}
}

func TestSimulate_SellsDownOverweightPosition(t *testing.T) {
	sim := NewSimulator(0.0005, zerolog.Nop())

	positions := map[string]Position{
		"SPY": {Shares: 1000, Value: 100_000},
	}
	result, err := sim.Simulate(
		positions,
		0,
		map[string]float64{"SPY": 100, "IEF": 100},
		allocation.Weights{"SPY": 0.5, "IEF": 0.5},
	)
	if err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}

	var sell, buy *Trade
	for i := range result.Trades {
		switch result.Trades[i].Symbol {
		case "SPY":
			sell = &result.Trades[i]
		case "IEF":
			buy = &result.Trades[i]
		}
	}
	if sell == nil || sell.Action != "SELL" || sell.Shares != 500 {
		t.Errorf("Expected SELL 500 SPY, got %+v", sell)
	}
	if buy == nil || buy.Action != "BUY" || buy.Shares != 500 {
		t.Errorf("Expected BUY 500 IEF, got %+v", buy)
	}
}

func TestSimulate_MissingQuoteFoldsValueIntoCash(t *testing.T) {
	sim := NewSimulator(0.0005, zerolog.Nop())

	result, err := sim.Simulate(
		nil,
		100_000,
		map[string]float64{"SPY": 100},
		allocation.Weights{"SPY": 0.5, "IEF": 0.5},
	)
	if err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}

	if _, ok := result.Positions["IEF"]; ok {
		t.Error("Expected unpriced symbol to be absent from new positions")
	}
	// Half the portfolio was unfillable, so it stays in cash
	if result.Cash < 49_000 {
		t.Errorf("Expected unfilled weight to remain as cash, got %.2f", result.Cash)
	}
}

func TestSimulate_NoQuotesAtAll(t *testing.T) {
	sim := NewSimulator(0.0005, zerolog.Nop())

	_, err := sim.Simulate(nil, 100_000, map[string]float64{}, allocation.Weights{"SPY": 1.0})
	if !errors.Is(err, ErrNoQuotes) {
		t.Errorf("Expected ErrNoQuotes, got %v", err)
	}

	_, err = sim.Simulate(nil, 100_000, map[string]float64{"GLD": 190}, allocation.Weights{"SPY": 1.0})
	if !errors.Is(err, ErrNoQuotes) {
		t.Errorf("Expected ErrNoQuotes when no target symbol has a price, got %v", err)
	}
}

func TestSimulate_TradesInUniverseOrder(t *testing.T) {
	sim := NewSimulator(0.0005, zerolog.Nop())

	quotes := map[string]float64{"SPY": 578, "QQQ": 476, "GLD": 190, "IEF": 96}
	weights := allocation.Weights{"GLD": 0.25, "IEF": 0.25, "QQQ": 0.25, "SPY": 0.25}

	result, err := sim.Simulate(nil, 1_000_000, quotes, weights)
	if err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}

	want := []string{"SPY", "QQQ", "IEF", "GLD"}
	if len(result.Trades) != len(want) {
		t.Fatalf("Expected %d trades, got %d", len(want), len(result.Trades))
	}
	for i, symbol := range want {
		if result.Trades[i].Symbol != symbol {
			t.Errorf("Trade %d: expected %s, got %s", i, symbol, result.Trades[i].Symbol)
		}
	}
}
