package rebalancing

import (
	"errors"
	"time"

	"github.com/aristath/modelfolio/internal/modules/allocation"
	"github.com/aristath/modelfolio/internal/modules/regime"
)

// Trigger identifies what initiated a rebalance run
type Trigger string

const (
	TriggerManual    Trigger = "manual"
	TriggerScheduled Trigger = "scheduled"
)

var (
	// ErrRebalanceInProgress is returned when a run is requested while
	// another one is still executing
	ErrRebalanceInProgress = errors.New("rebalance already in progress")

	// ErrNoQuotes is returned when no instrument in the universe has a
	// resolvable price
	ErrNoQuotes = errors.New("no quotes available for any instrument")
)

// Position is a whole-share holding valued at the last trade price
type Position struct {
	Shares int64   `json:"shares" msgpack:"shares"`
	Value  float64 `json:"value" msgpack:"value"`
}

// Trade is a single simulated order
type Trade struct {
	Symbol string  `json:"symbol" msgpack:"symbol"`
	Action string  `json:"action" msgpack:"action"`
	Shares int64   `json:"shares" msgpack:"shares"`
	Price  float64 `json:"price" msgpack:"price"`
	Cost   float64 `json:"cost" msgpack:"cost"`
}

// SimulationResult is the outcome of applying target weights to the
// current holdings at the given prices
type SimulationResult struct {
	Positions        map[string]Position
	Cash             float64
	Trades           []Trade
	Turnover         float64
	TransactionCosts float64
	NAVBefore        float64
	NAVAfter         float64
}

// Record is a persisted rebalance run
type Record struct {
	ID               string                `json:"id"`
	Date             string                `json:"date"`
	Trigger          Trigger               `json:"trigger"`
	Regime           regime.Regime         `json:"regime"`
	Weights          allocation.Weights    `json:"weights"`
	Indicators       *regime.Indicators    `json:"indicators"`
	Reason           string                `json:"reason"`
	Trades           []Trade               `json:"trades"`
	Turnover         float64               `json:"turnover"`
	TransactionCosts float64               `json:"transaction_costs"`
	NAVBefore        float64               `json:"nav_before"`
	NAVAfter         float64               `json:"nav_after"`
	CreatedAt        time.Time             `json:"created_at"`
}

// Allocation is the currently active target allocation
type Allocation struct {
	Date       string             `json:"date"`
	Regime     regime.Regime      `json:"regime"`
	Weights    allocation.Weights `json:"weights"`
	Indicators *regime.Indicators `json:"indicators"`
	Reason     string             `json:"reason"`
}

// EquityPoint is one observation of the model's net asset value
type EquityPoint struct {
	Date   string        `json:"date"`
	NAV    float64       `json:"nav"`
	Regime regime.Regime `json:"regime"`
}

// ModelState is the running bookkeeping of the model portfolio
type ModelState struct {
	StartDate   string  `json:"start_date"`
	StartingNAV float64 `json:"starting_nav"`
	CurrentNAV  float64 `json:"current_nav"`
	Cash        float64 `json:"cash"`
}
