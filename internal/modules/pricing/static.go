package pricing

import (
	"sort"
	"strings"
)

// instrumentNames maps known symbols to display names
var instrumentNames = map[string]string{
	"AAPL":  "Apple Inc.",
	"GOOGL": "Alphabet Inc.",
	"GOOG":  "Alphabet Inc.",
	"MSFT":  "Microsoft Corporation",
	"AMZN":  "Amazon.com Inc.",
	"TSLA":  "Tesla Inc.",
	"META":  "Meta Platforms Inc.",
	"NVDA":  "NVIDIA Corporation",
	"JPM":   "JPMorgan Chase & Co.",
	"V":     "Visa Inc.",
	"JNJ":   "Johnson & Johnson",
	"WMT":   "Walmart Inc.",
	"BA":    "Boeing Company",
	"PG":    "Procter & Gamble",
	"DIS":   "The Walt Disney Company",
	"MCD":   "McDonald's Corporation",
	"INTC":  "Intel Corporation",
	"AMD":   "Advanced Micro Devices",
	"PYPL":  "PayPal Holdings Inc.",
	"NFLX":  "Netflix Inc.",
	"UBER":  "Uber Technologies",
	"SPOT":  "Spotify Technology",
	"COIN":  "Coinbase Global Inc.",
	"GME":   "GameStop Corp.",
	"AVGO":  "Broadcom Inc.",
	"ZION":  "Zions Bancorporation",
	"SPY":   "SPDR S&P 500 ETF",
	"VOO":   "Vanguard S&P 500 ETF",
	"QQQ":   "Invesco QQQ Trust (Nasdaq-100)",
	"VTI":   "Vanguard Total Stock Market ETF",
	"IEF":   "iShares 7-10 Year Treasury Bond ETF",
	"LQD":   "iShares iBoxx Investment Grade Corporate Bond ETF",
	"BND":   "Vanguard Total Bond Market ETF",
	"GLD":   "SPDR Gold Trust",
}

// staticPrices is the last-resort price table, used when every provider
// fails. Values are maintained by hand and go stale; the quote source marks
// them so consumers can tell.
var staticPrices = map[string]float64{
	"AAPL":  189.45,
	"GOOGL": 140.32,
	"GOOG":  140.32,
	"MSFT":  378.91,
	"AMZN":  172.50,
	"TSLA":  245.28,
	"META":  345.67,
	"NVDA":  875.43,
	"JPM":   156.23,
	"V":     267.89,
	"JNJ":   155.34,
	"WMT":   98.45,
	"BA":    185.67,
	"PG":    165.34,
	"DIS":   92.15,
	"MCD":   278.92,
	"INTC":  42.13,
	"AMD":   168.45,
	"PYPL":  78.23,
	"NFLX":  242.67,
	"UBER":  72.34,
	"SPOT":  156.89,
	"COIN":  118.45,
	"GME":   28.67,
	"AVGO":  178.92,
	"ZION":  52.34,
	"SPY":   578.45,
	"VOO":   524.67,
	"QQQ":   476.23,
	"VTI":   287.34,
	"IEF":   96.45,
	"LQD":   112.83,
	"BND":   72.18,
	"GLD":   189.76,
}

// StaticPrice looks up the fallback table
func StaticPrice(symbol string) (float64, bool) {
	price, ok := staticPrices[strings.ToUpper(symbol)]
	return price, ok
}

// InstrumentName returns the display name for a symbol, or the symbol
// itself when unknown
func InstrumentName(symbol string) string {
	if name, ok := instrumentNames[strings.ToUpper(symbol)]; ok {
		return name
	}
	return strings.ToUpper(symbol)
}

// SearchResult is one autocomplete hit
type SearchResult struct {
	Symbol   string   `json:"symbol"`
	Name     string   `json:"name"`
	Price    *float64 `json:"price"`
	Currency string   `json:"currency"`
}

// Search matches known instruments by symbol or name substring. Unknown
// queries that look like a ticker are suggested back with no price; prices
// are never invented.
func Search(query string) []SearchResult {
	query = strings.ToUpper(strings.TrimSpace(query))
	if query == "" {
		return nil
	}

	var results []SearchResult
	for symbol, name := range instrumentNames {
		if strings.Contains(symbol, query) || strings.Contains(strings.ToUpper(name), query) {
			r := SearchResult{Symbol: symbol, Name: name, Currency: "USD"}
			if price, ok := staticPrices[symbol]; ok {
				p := price
				r.Price = &p
			}
			results = append(results, r)
		}
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Symbol < results[j].Symbol })

	if len(results) == 0 && len(query) <= 5 {
		results = append(results, SearchResult{
			Symbol:   query,
			Name:     "Stock " + query,
			Currency: "USD",
		})
	}

	return results
}
