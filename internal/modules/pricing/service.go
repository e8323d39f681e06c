package pricing

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// QuoteProvider is a current-price source
type QuoteProvider interface {
	Name() string
	Configured() bool
	Quote(ctx context.Context, symbol string) (float64, error)
}

// SeriesProvider is a historical daily-close source
type SeriesProvider interface {
	Configured() bool
	DailySeries(ctx context.Context, symbol string) (map[string]float64, error)
}

// Service resolves symbols to prices: cache first, then the primary
// provider directly, then the secondary provider through the outbound
// queue, then the static table. It never invents a price; when every
// source misses, GetPrice fails with ErrPriceUnavailable.
type Service struct {
	primary   QuoteProvider
	secondary QuoteProvider
	series    SeriesProvider
	queue     *Queue
	cache     *Cache
	timeout   time.Duration
	log       zerolog.Logger
}

// ServiceConfig holds price service dependencies
type ServiceConfig struct {
	Primary   QuoteProvider
	Secondary QuoteProvider
	Series    SeriesProvider
	Queue     *Queue
	Cache     *Cache
	Timeout   time.Duration
	Log       zerolog.Logger
}

// NewService creates a new price service
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		primary:   cfg.Primary,
		secondary: cfg.Secondary,
		series:    cfg.Series,
		queue:     cfg.Queue,
		cache:     cfg.Cache,
		timeout:   cfg.Timeout,
		log:       cfg.Log.With().Str("service", "pricing").Logger(),
	}
}

// GetPrice resolves the current price for a symbol
func (s *Service) GetPrice(ctx context.Context, symbol string) (Quote, error) {
	symbol = strings.ToUpper(symbol)

	if quote, ok := s.cache.Get(symbol); ok {
		s.log.Debug().Str("symbol", symbol).Float64("price", quote.Price).Msg("Returning cached price")
		return quote, nil
	}

	var price float64
	var source Source

	if s.primary != nil && s.primary.Configured() {
		callCtx, cancel := context.WithTimeout(ctx, s.timeout)
		p, err := s.primary.Quote(callCtx, symbol)
		cancel()
		if err != nil {
			s.log.Warn().Err(err).Str("symbol", symbol).Str("provider", s.primary.Name()).
				Msg("Primary provider failed, falling through")
		} else {
			price = p
			source = Source(s.primary.Name())
		}
	}

	if price == 0 && s.secondary != nil && s.secondary.Configured() {
		err := s.queue.Do(ctx, func(qctx context.Context) {
			callCtx, cancel := context.WithTimeout(qctx, s.timeout)
			defer cancel()

			p, err := s.secondary.Quote(callCtx, symbol)
			if err != nil {
				s.log.Warn().Err(err).Str("symbol", symbol).Str("provider", s.secondary.Name()).
					Msg("Secondary provider failed, falling through")
				return
			}
			price = p
			source = Source(s.secondary.Name())
		})
		if err != nil {
			s.log.Warn().Err(err).Str("symbol", symbol).Msg("Outbound queue rejected call")
		}
	}

	if price == 0 {
		if p, ok := StaticPrice(symbol); ok {
			price = p
			source = SourceStaticTable
			s.log.Info().Str("symbol", symbol).Float64("price", p).Msg("Using static table price")
		} else {
			return Quote{}, fmt.Errorf("%s: %w", symbol, ErrPriceUnavailable)
		}
	}

	quote := Quote{
		Symbol:   symbol,
		Name:     InstrumentName(symbol),
		Price:    math.Round(price*100) / 100,
		Currency: "USD",
		Source:   source,
	}

	s.cache.Put(quote)
	return quote, nil
}
