package pricing

import (
	"context"
	"sort"
	"time"
)

// syntheticFallbackPrice is returned only when the time-series provider,
// the current-price chain and the static table all miss. A flat constant
// rather than a random value, so downstream numbers stay reproducible; its
// use is a data-quality problem and is logged as such.
const syntheticFallbackPrice = 100.00

// GetHistoricalPrice resolves the close price for a symbol on a calendar
// date. It always produces a number, in fallback order: exact trading date
// from the time-series provider, nearest prior trading date from the same
// series, current price, static table, synthetic last resort.
func (s *Service) GetHistoricalPrice(ctx context.Context, symbol string, date time.Time) float64 {
	dateStr := date.Format("2006-01-02")

	if s.series != nil && s.series.Configured() {
		var series map[string]float64
		err := s.queue.Do(ctx, func(qctx context.Context) {
			callCtx, cancel := context.WithTimeout(qctx, s.timeout)
			defer cancel()

			result, err := s.series.DailySeries(callCtx, symbol)
			if err != nil {
				s.log.Warn().Err(err).Str("symbol", symbol).Msg("Time-series provider failed")
				return
			}
			series = result
		})
		if err != nil {
			s.log.Warn().Err(err).Str("symbol", symbol).Msg("Outbound queue rejected call")
		}

		if price, ok := series[dateStr]; ok {
			s.log.Debug().Str("symbol", symbol).Str("date", dateStr).Float64("price", price).
				Msg("Found exact historical close")
			return price
		}

		// Nearest prior trading day <= requested date
		if len(series) > 0 {
			dates := make([]string, 0, len(series))
			for d := range series {
				dates = append(dates, d)
			}
			sort.Sort(sort.Reverse(sort.StringSlice(dates)))

			for _, d := range dates {
				if d <= dateStr {
					s.log.Debug().Str("symbol", symbol).Str("date", d).Str("requested", dateStr).
						Float64("price", series[d]).Msg("Using nearest prior trading day")
					return series[d]
				}
			}
		}
	}

	if quote, err := s.GetPrice(ctx, symbol); err == nil {
		s.log.Info().Str("symbol", symbol).Str("date", dateStr).Float64("price", quote.Price).
			Msg("Falling back to current price for historical lookup")
		return quote.Price
	}

	if price, ok := StaticPrice(symbol); ok {
		s.log.Info().Str("symbol", symbol).Str("date", dateStr).Float64("price", price).
			Msg("Falling back to static table for historical lookup")
		return price
	}

	s.log.Warn().Str("symbol", symbol).Str("date", dateStr).
		Str("data_quality", "synthetic_price").
		Float64("price", syntheticFallbackPrice).
		Msg("No source has any entry, returning synthetic fallback price")
	return syntheticFallbackPrice
}
