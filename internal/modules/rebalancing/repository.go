package rebalancing

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/aristath/modelfolio/internal/database"
	"github.com/aristath/modelfolio/internal/modules/pricing"
	"github.com/aristath/modelfolio/internal/modules/regime"
)

// Repository handles model portfolio persistence
type Repository struct {
	db *database.DB
}

// NewRepository creates a new rebalancing repository
func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

// InitState seeds the model state row on first boot. Existing state is
// left untouched.
func (r *Repository) InitState(startDate string, startingNAV float64) error {
	_, err := r.db.Exec(`
		INSERT INTO model_state (id, start_date, starting_nav, current_nav, cash)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, startDate, startingNAV, startingNAV, startingNAV)
	if err != nil {
		return fmt.Errorf("failed to init model state: %w", err)
	}
	return nil
}

// GetState returns the model bookkeeping row
func (r *Repository) GetState() (ModelState, error) {
	var state ModelState
	err := r.db.QueryRow(`
		SELECT start_date, starting_nav, current_nav, cash FROM model_state WHERE id = 1
	`).Scan(&state.StartDate, &state.StartingNAV, &state.CurrentNAV, &state.Cash)
	if err != nil {
		return ModelState{}, fmt.Errorf("failed to get model state: %w", err)
	}
	return state, nil
}

// GetPositions returns the current holdings keyed by symbol
func (r *Repository) GetPositions() (map[string]Position, error) {
	rows, err := r.db.Query(`SELECT symbol, shares, value FROM positions`)
	if err != nil {
		return nil, fmt.Errorf("failed to get positions: %w", err)
	}
	defer rows.Close()

	positions := make(map[string]Position)
	for rows.Next() {
		var symbol string
		var pos Position
		if err := rows.Scan(&symbol, &pos.Shares, &pos.Value); err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		positions[symbol] = pos
	}
	return positions, rows.Err()
}

// AppendBars adds daily closes for a symbol. Bars are append-only; the
// same date may appear more than once and later reads take rows in
// insertion order.
func (r *Repository) AppendBars(symbol string, bars []pricing.PriceBar) error {
	if len(bars) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO price_bars (symbol, date, close) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare bar insert: %w", err)
	}
	defer stmt.Close()

	for _, bar := range bars {
		if _, err := stmt.Exec(symbol, bar.Date, bar.Close); err != nil {
			return fmt.Errorf("failed to insert bar %s %s: %w", symbol, bar.Date, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit bars: %w", err)
	}
	return nil
}

// BarCount returns the number of stored bars for a symbol
func (r *Repository) BarCount(symbol string) (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM price_bars WHERE symbol = ?`, symbol).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count bars: %w", err)
	}
	return count, nil
}

// GetCloses returns all closes for a symbol in insertion order, oldest
// first
func (r *Repository) GetCloses(symbol string) ([]float64, error) {
	rows, err := r.db.Query(`SELECT close FROM price_bars WHERE symbol = ? ORDER BY id`, symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to get closes: %w", err)
	}
	defer rows.Close()

	var closes []float64
	for rows.Next() {
		var c float64
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("failed to scan close: %w", err)
		}
		closes = append(closes, c)
	}
	return closes, rows.Err()
}

// SaveRebalance persists everything a completed run produced in one
// transaction: the new positions, the model state, the audit record, the
// active allocation and the equity curve point. A crash mid-save leaves
// the previous portfolio intact.
func (r *Repository) SaveRebalance(record Record, result SimulationResult) error {
	weightsBlob, err := msgpack.Marshal(record.Weights)
	if err != nil {
		return fmt.Errorf("failed to encode weights: %w", err)
	}
	indicatorsBlob, err := msgpack.Marshal(record.Indicators)
	if err != nil {
		return fmt.Errorf("failed to encode indicators: %w", err)
	}
	tradesBlob, err := msgpack.Marshal(record.Trades)
	if err != nil {
		return fmt.Errorf("failed to encode trades: %w", err)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM positions`); err != nil {
		return fmt.Errorf("failed to clear positions: %w", err)
	}
	for symbol, pos := range result.Positions {
		if _, err := tx.Exec(`
			INSERT INTO positions (symbol, shares, value) VALUES (?, ?, ?)
		`, symbol, pos.Shares, pos.Value); err != nil {
			return fmt.Errorf("failed to insert position %s: %w", symbol, err)
		}
	}

	if _, err := tx.Exec(`
		UPDATE model_state SET current_nav = ?, cash = ? WHERE id = 1
	`, result.NAVAfter, result.Cash); err != nil {
		return fmt.Errorf("failed to update model state: %w", err)
	}

	if _, err := tx.Exec(`
		INSERT INTO rebalance_records
			(id, date, trig, regime, weights, indicators, reason, trades,
			 turnover, transaction_costs, nav_before, nav_after, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, record.ID, record.Date, string(record.Trigger), string(record.Regime),
		weightsBlob, indicatorsBlob, record.Reason, tradesBlob,
		record.Turnover, record.TransactionCosts, record.NAVBefore, record.NAVAfter,
		record.CreatedAt.UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("failed to insert rebalance record: %w", err)
	}

	if _, err := tx.Exec(`
		INSERT INTO current_allocation (id, date, regime, weights, indicators, reason)
		VALUES (1, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			date = excluded.date,
			regime = excluded.regime,
			weights = excluded.weights,
			indicators = excluded.indicators,
			reason = excluded.reason
	`, record.Date, string(record.Regime), weightsBlob, indicatorsBlob, record.Reason); err != nil {
		return fmt.Errorf("failed to update current allocation: %w", err)
	}

	if _, err := tx.Exec(`
		INSERT INTO equity_curve (date, nav, regime) VALUES (?, ?, ?)
	`, record.Date, record.NAVAfter, string(record.Regime)); err != nil {
		return fmt.Errorf("failed to insert equity point: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit rebalance: %w", err)
	}
	return nil
}

// GetCurrentAllocation returns the active allocation, or nil before the
// first rebalance
func (r *Repository) GetCurrentAllocation() (*Allocation, error) {
	var alloc Allocation
	var regimeStr string
	var weightsBlob, indicatorsBlob []byte

	err := r.db.QueryRow(`
		SELECT date, regime, weights, indicators, reason FROM current_allocation WHERE id = 1
	`).Scan(&alloc.Date, &regimeStr, &weightsBlob, &indicatorsBlob, &alloc.Reason)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get current allocation: %w", err)
	}

	alloc.Regime = regime.Regime(regimeStr)
	if err := msgpack.Unmarshal(weightsBlob, &alloc.Weights); err != nil {
		return nil, fmt.Errorf("failed to decode weights: %w", err)
	}
	if err := msgpack.Unmarshal(indicatorsBlob, &alloc.Indicators); err != nil {
		return nil, fmt.Errorf("failed to decode indicators: %w", err)
	}
	return &alloc, nil
}

// GetRecords returns rebalance records newest first, up to limit
func (r *Repository) GetRecords(limit int) ([]Record, error) {
	rows, err := r.db.Query(`
		SELECT id, date, trig, regime, weights, indicators, reason, trades,
		       turnover, transaction_costs, nav_before, nav_after, created_at
		FROM rebalance_records
		ORDER BY date DESC, created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get rebalance records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// GetRecordByDate returns the most recent record for a calendar date, or
// nil when none exists
func (r *Repository) GetRecordByDate(date string) (*Record, error) {
	rows, err := r.db.Query(`
		SELECT id, date, trig, regime, weights, indicators, reason, trades,
		       turnover, transaction_costs, nav_before, nav_after, created_at
		FROM rebalance_records
		WHERE date = ?
		ORDER BY created_at DESC
		LIMIT 1
	`, date)
	if err != nil {
		return nil, fmt.Errorf("failed to get rebalance record: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	record, err := scanRecord(rows)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// GetEquityCurve returns equity points in date range order. Empty bounds
// are open-ended.
func (r *Repository) GetEquityCurve(from, to string) ([]EquityPoint, error) {
	query := `SELECT date, nav, regime FROM equity_curve WHERE 1=1`
	var args []interface{}
	if from != "" {
		query += ` AND date >= ?`
		args = append(args, from)
	}
	if to != "" {
		query += ` AND date <= ?`
		args = append(args, to)
	}
	query += ` ORDER BY date, id`

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get equity curve: %w", err)
	}
	defer rows.Close()

	var points []EquityPoint
	for rows.Next() {
		var point EquityPoint
		var regimeStr string
		if err := rows.Scan(&point.Date, &point.NAV, &regimeStr); err != nil {
			return nil, fmt.Errorf("failed to scan equity point: %w", err)
		}
		point.Regime = regime.Regime(regimeStr)
		points = append(points, point)
	}
	return points, rows.Err()
}

func scanRecord(rows *sql.Rows) (Record, error) {
	var record Record
	var trig, regimeStr, createdAt string
	var weightsBlob, indicatorsBlob, tradesBlob []byte

	if err := rows.Scan(&record.ID, &record.Date, &trig, &regimeStr,
		&weightsBlob, &indicatorsBlob, &record.Reason, &tradesBlob,
		&record.Turnover, &record.TransactionCosts, &record.NAVBefore, &record.NAVAfter,
		&createdAt); err != nil {
		return Record{}, fmt.Errorf("failed to scan rebalance record: %w", err)
	}

	record.Trigger = Trigger(trig)
	record.Regime = regime.Regime(regimeStr)
	if err := msgpack.Unmarshal(weightsBlob, &record.Weights); err != nil {
		return Record{}, fmt.Errorf("failed to decode weights: %w", err)
	}
	if err := msgpack.Unmarshal(indicatorsBlob, &record.Indicators); err != nil {
		return Record{}, fmt.Errorf("failed to decode indicators: %w", err)
	}
	if err := msgpack.Unmarshal(tradesBlob, &record.Trades); err != nil {
		return Record{}, fmt.Errorf("failed to decode trades: %w", err)
	}
	if ts, err := time.Parse(time.RFC3339, createdAt); err == nil {
		record.CreatedAt = ts
	}
	return record, nil
}
