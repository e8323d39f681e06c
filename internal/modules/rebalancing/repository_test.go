package rebalancing

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/aristath/modelfolio/internal/database"
	"github.com/aristath/modelfolio/internal/modules/allocation"
	"github.com/aristath/modelfolio/internal/modules/pricing"
	"github.com/aristath/modelfolio/internal/modules/regime"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}
	return NewRepository(db)
}

func TestInitState_SeedsOnceOnly(t *testing.T) {
	repo := newTestRepo(t)

	if err := repo.InitState("2026-01-01", 100_000); err != nil {
		t.Fatalf("InitState failed: %v", err)
	}
	// Second init with different values must not overwrite
	if err := repo.InitState("2026-06-01", 999_999); err != nil {
		t.Fatalf("Second InitState failed: %v", err)
	}

	state, err := repo.GetState()
	if err != nil {
		t.Fatalf("GetState failed: %v", err)
	}
	if state.StartDate != "2026-01-01" {
		t.Errorf("Expected original start date, got %s", state.StartDate)
	}
	if state.StartingNAV != 100_000 || state.CurrentNAV != 100_000 || state.Cash != 100_000 {
		t.Errorf("Expected all-cash seed at 100000, got %+v", state)
	}
}

func TestAppendBars_InsertionOrderAndCount(t *testing.T) {
	repo := newTestRepo(t)

	bars := []pricing.PriceBar{
		{Date: "2026-01-05", Close: 100},
		{Date: "2026-01-06", Close: 101},
		{Date: "2026-01-06", Close: 102}, // duplicate date kept as-is
	}
	if err := repo.AppendBars("SPY", bars); err != nil {
		t.Fatalf("AppendBars failed: %v", err)
	}

	count, err := repo.BarCount("SPY")
	if err != nil {
		t.Fatalf("BarCount failed: %v", err)
	}
	if count != 3 {
		t.Errorf("Expected 3 bars, got %d", count)
	}

	closes, err := repo.GetCloses("SPY")
	if err != nil {
		t.Fatalf("GetCloses failed: %v", err)
	}
	want := []float64{100, 101, 102}
	for i, c := range want {
		if closes[i] != c {
			t.Errorf("Close %d: expected %.0f, got %.0f", i, c, closes[i])
		}
	}

	if count, _ := repo.BarCount("QQQ"); count != 0 {
		t.Errorf("Expected no bars for other symbols, got %d", count)
	}
}

func TestSaveRebalance_PersistsEverythingAtomically(t *testing.T) {
	repo := newTestRepo(t)
	if err := repo.InitState("2026-01-01", 100_000); err != nil {
		t.Fatalf("InitState failed: %v", err)
	}

	record := Record{
		ID:      uuid.NewString(),
		Date:    "2026-02-06",
		Trigger: TriggerScheduled,
		Regime:  regime.RiskOn,
		Weights: allocation.TargetWeights(regime.RiskOn),
		Indicators: &regime.Indicators{
			ReferenceClose: 580, MA50: 570, MA200: 540, Vol20: 0.12, Drawdown63: -0.01,
		},
		Reason: "close above ma50 and ma200, vol20 12.0% below 20%",
		Trades: []Trade{
			{Symbol: "SPY", Action: "BUY", Shares: 60, Price: 578.45, Cost: 17.35},
		},
		Turnover:         0.35,
		TransactionCosts: 17.35,
		NAVBefore:        100_000,
		NAVAfter:         99_982.65,
		CreatedAt:        time.Now(),
	}
	result := SimulationResult{
		Positions: map[string]Position{
			"SPY": {Shares: 60, Value: 34_707},
		},
		Cash:             65_275.65,
		Trades:           record.Trades,
		Turnover:         record.Turnover,
		TransactionCosts: record.TransactionCosts,
		NAVBefore:        record.NAVBefore,
		NAVAfter:         record.NAVAfter,
	}

	if err := repo.SaveRebalance(record, result); err != nil {
		t.Fatalf("SaveRebalance failed: %v", err)
	}

	positions, err := repo.GetPositions()
	if err != nil {
		t.Fatalf("GetPositions failed: %v", err)
	}
	if positions["SPY"].Shares != 60 {
		t.Errorf("Expected 60 SPY shares, got %d", positions["SPY"].Shares)
	}

	state, err := repo.GetState()
	if err != nil {
		t.Fatalf("GetState failed: %v", err)
	}
	if state.CurrentNAV != record.NAVAfter {
		t.Errorf("Expected NAV %.2f, got %.2f", record.NAVAfter, state.CurrentNAV)
	}
	if state.Cash != result.Cash {
		t.Errorf("Expected cash %.2f, got %.2f", result.Cash, state.Cash)
	}

	alloc, err := repo.GetCurrentAllocation()
	if err != nil {
		t.Fatalf("GetCurrentAllocation failed: %v", err)
	}
	if alloc == nil {
		t.Fatal("Expected an active allocation")
	}
	if alloc.Regime != regime.RiskOn {
		t.Errorf("Expected Risk-On allocation, got %s", alloc.Regime)
	}
	if alloc.Weights["SPY"] != 0.35 {
		t.Errorf("Expected SPY weight 0.35 after round-trip, got %.4f", alloc.Weights["SPY"])
	}
	if alloc.Indicators == nil || alloc.Indicators.MA200 != 540 {
		t.Errorf("Expected indicators to round-trip, got %+v", alloc.Indicators)
	}

	fetched, err := repo.GetRecordByDate("2026-02-06")
	if err != nil {
		t.Fatalf("GetRecordByDate failed: %v", err)
	}
	if fetched == nil {
		t.Fatal("Expected record for date")
	}
	if fetched.ID != record.ID {
		t.Errorf("Expected record ID %s, got %s", record.ID, fetched.ID)
	}
	if len(fetched.Trades) != 1 || fetched.Trades[0].Shares != 60 {
		t.Errorf("Expected trades to round-trip, got %+v", fetched.Trades)
	}

	curve, err := repo.GetEquityCurve("", "")
	if err != nil {
		t.Fatalf("GetEquityCurve failed: %v", err)
	}
	if len(curve) != 1 || curve[0].NAV != record.NAVAfter {
		t.Errorf("Expected one equity point at %.2f, got %+v", record.NAVAfter, curve)
	}
}

func TestGetCurrentAllocation_NilBeforeFirstRebalance(t *testing.T) {
	repo := newTestRepo(t)

	alloc, err := repo.GetCurrentAllocation()
	if err != nil {
		t.Fatalf("GetCurrentAllocation failed: %v", err)
	}
	if alloc != nil {
		t.Errorf("Expected nil allocation before first rebalance, got %+v", alloc)
	}
}

func TestGetRecordByDate_NilWhenAbsent(t *testing.T) {
	repo := newTestRepo(t)

	record, err := repo.GetRecordByDate("2026-02-06")
	if err != nil {
		t.Fatalf("GetRecordByDate failed: %v", err)
	}
	if record != nil {
		t.Errorf("Expected nil for unknown date, got %+v", record)
	}
}

func TestGetRecords_NewestFirstWithLimit(t *testing.T) {
	repo := newTestRepo(t)
	if err := repo.InitState("2026-01-01", 100_000); err != nil {
		t.Fatalf("InitState failed: %v", err)
	}

	for i, date := range []string{"2026-01-09", "2026-01-16", "2026-01-23"} {
		record := Record{
			ID:        uuid.NewString(),
			Date:      date,
			Trigger:   TriggerScheduled,
			Regime:    regime.Neutral,
			Weights:   allocation.TargetWeights(regime.Neutral),
			Reason:    "mixed signals, holding neutral",
			NAVBefore: 100_000,
			NAVAfter:  100_000 - float64(i),
			CreatedAt: time.Now(),
		}
		result := SimulationResult{
			Positions: map[string]Position{"SPY": {Shares: 1, Value: 578}},
			Cash:      record.NAVAfter - 578,
			NAVBefore: record.NAVBefore,
			NAVAfter:  record.NAVAfter,
		}
		if err := repo.SaveRebalance(record, result); err != nil {
			t.Fatalf("SaveRebalance %s failed: %v", date, err)
		}
	}

	records, err := repo.GetRecords(2)
	if err != nil {
		t.Fatalf("GetRecords failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}
	if records[0].Date != "2026-01-23" || records[1].Date != "2026-01-16" {
		t.Errorf("Expected newest first, got %s then %s", records[0].Date, records[1].Date)
	}
}

func TestGetEquityCurve_RangeFilter(t *testing.T) {
	repo := newTestRepo(t)
	if err := repo.InitState("2026-01-01", 100_000); err != nil {
		t.Fatalf("InitState failed: %v", err)
	}

	for _, date := range []string{"2026-01-09", "2026-01-16", "2026-01-23"} {
		record := Record{
			ID:        uuid.NewString(),
			Date:      date,
			Trigger:   TriggerScheduled,
			Regime:    regime.Neutral,
			Weights:   allocation.TargetWeights(regime.Neutral),
			NAVBefore: 100_000,
			NAVAfter:  100_000,
			CreatedAt: time.Now(),
		}
		result := SimulationResult{
			Positions: map[string]Position{"SPY": {Shares: 1, Value: 578}},
			Cash:      99_422,
			NAVBefore: 100_000,
			NAVAfter:  100_000,
		}
		if err := repo.SaveRebalance(record, result); err != nil {
			t.Fatalf("SaveRebalance failed: %v", err)
		}
	}

	curve, err := repo.GetEquityCurve("2026-01-10", "2026-01-20")
	if err != nil {
		t.Fatalf("GetEquityCurve failed: %v", err)
	}
	if len(curve) != 1 || curve[0].Date != "2026-01-16" {
		t.Errorf("Expected only the middle point, got %+v", curve)
	}
}
