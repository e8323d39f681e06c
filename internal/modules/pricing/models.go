package pricing

import "errors"

// Source identifies where a quote came from
type Source string

const (
	SourceFinnhub      Source = "finnhub"
	SourceAlphaVantage Source = "alphavantage"
	SourceStaticTable  Source = "static-table"
)

// Quote is a point-in-time price for a symbol
type Quote struct {
	Symbol   string  `json:"symbol"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Currency string  `json:"currency"`
	Source   Source  `json:"source"`
}

// PriceBar is one daily close in an append-only per-symbol series
type PriceBar struct {
	Date  string  `json:"date"` // YYYY-MM-DD
	Close float64 `json:"close"`
}

// ErrPriceUnavailable means every provider and the static table missed.
// Single-provider failures are recovered internally and never surface.
var ErrPriceUnavailable = errors.New("price unavailable from all sources")
