package rebalancing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aristath/modelfolio/internal/modules/allocation"
	"github.com/aristath/modelfolio/internal/modules/pricing"
	"github.com/aristath/modelfolio/internal/modules/regime"
)

// PriceSource resolves current prices for the universe
type PriceSource interface {
	GetPrice(ctx context.Context, symbol string) (pricing.Quote, error)
}

// EventSink receives lifecycle notifications from completed or failed
// runs
type EventSink interface {
	Emit(eventType string, data interface{})
}

const (
	EventRebalanceCompleted = "REBALANCE_COMPLETED"
	EventRebalanceFailed    = "REBALANCE_FAILED"
)

const minScheduledHistory = 200

// Service orchestrates a full rebalance run: quotes, history, regime,
// target weights, simulation and persistence. At most one run executes
// at a time; concurrent requests fail fast with ErrRebalanceInProgress.
type Service struct {
	mu sync.Mutex

	repo       *Repository
	prices     PriceSource
	classifier *regime.Classifier
	simulator  *Simulator
	events     EventSink
	benchmark  string
	loc        *time.Location
	now        func() time.Time
	log        zerolog.Logger
}

// ServiceConfig holds orchestrator dependencies
type ServiceConfig struct {
	Repo       *Repository
	Prices     PriceSource
	Classifier *regime.Classifier
	Simulator  *Simulator
	Events     EventSink
	Benchmark  string
	Location   *time.Location
	Log        zerolog.Logger
}

// NewService creates the rebalance orchestrator
func NewService(cfg ServiceConfig) *Service {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		repo:       cfg.Repo,
		prices:     cfg.Prices,
		classifier: cfg.Classifier,
		simulator:  cfg.Simulator,
		events:     cfg.Events,
		benchmark:  cfg.Benchmark,
		loc:        loc,
		now:        time.Now,
		log:        cfg.Log.With().Str("service", "rebalancing").Logger(),
	}
}

// Run executes one rebalance. All universe quotes are fetched before
// anything is written, so a provider failure leaves the stored portfolio
// untouched. Scheduled runs additionally require enough benchmark
// history and return (nil, nil) when there is not; manual runs proceed
// and let the classifier default to Neutral. Returns the persisted
// record on success.
func (s *Service) Run(ctx context.Context, trigger Trigger) (*Record, error) {
	if !s.mu.TryLock() {
		s.log.Warn().Str("trigger", string(trigger)).Msg("Rebalance already running, rejecting")
		return nil, ErrRebalanceInProgress
	}
	defer s.mu.Unlock()

	started := s.now()
	date := started.In(s.loc).Format("2006-01-02")
	s.log.Info().Str("trigger", string(trigger)).Str("date", date).Msg("Starting rebalance")

	quotes := make(map[string]float64, len(allocation.Universe))
	for _, symbol := range allocation.Universe {
		quote, err := s.prices.GetPrice(ctx, symbol)
		if err != nil {
			err = fmt.Errorf("failed to price %s: %w", symbol, err)
			s.fail(trigger, err)
			return nil, err
		}
		quotes[symbol] = quote.Price
	}

	for _, symbol := range allocation.Universe {
		bar := pricing.PriceBar{Date: date, Close: quotes[symbol]}
		if err := s.repo.AppendBars(symbol, []pricing.PriceBar{bar}); err != nil {
			err = fmt.Errorf("failed to record bar for %s: %w", symbol, err)
			s.fail(trigger, err)
			return nil, err
		}
	}

	closes, err := s.repo.GetCloses(s.benchmark)
	if err != nil {
		err = fmt.Errorf("failed to load benchmark history: %w", err)
		s.fail(trigger, err)
		return nil, err
	}

	if trigger == TriggerScheduled && len(closes) < minScheduledHistory {
		s.log.Info().
			Int("bars", len(closes)).
			Int("required", minScheduledHistory).
			Msg("Skipping scheduled rebalance, benchmark history too short")
		return nil, nil
	}

	classification := s.classifier.DetermineRegime(closes)
	weights := allocation.TargetWeights(classification.Regime)

	positions, err := s.repo.GetPositions()
	if err != nil {
		err = fmt.Errorf("failed to load positions: %w", err)
		s.fail(trigger, err)
		return nil, err
	}
	state, err := s.repo.GetState()
	if err != nil {
		err = fmt.Errorf("failed to load model state: %w", err)
		s.fail(trigger, err)
		return nil, err
	}

	result, err := s.simulator.Simulate(positions, state.Cash, quotes, weights)
	if err != nil {
		err = fmt.Errorf("simulation failed: %w", err)
		s.fail(trigger, err)
		return nil, err
	}

	record := Record{
		ID:               uuid.NewString(),
		Date:             date,
		Trigger:          trigger,
		Regime:           classification.Regime,
		Weights:          weights,
		Indicators:       classification.Indicators,
		Reason:           classification.Reason,
		Trades:           result.Trades,
		Turnover:         result.Turnover,
		TransactionCosts: result.TransactionCosts,
		NAVBefore:        result.NAVBefore,
		NAVAfter:         result.NAVAfter,
		CreatedAt:        started.UTC(),
	}

	if err := s.repo.SaveRebalance(record, result); err != nil {
		err = fmt.Errorf("failed to persist rebalance: %w", err)
		s.fail(trigger, err)
		return nil, err
	}

	s.log.Info().
		Str("id", record.ID).
		Str("regime", string(record.Regime)).
		Int("trades", len(record.Trades)).
		Float64("turnover", record.Turnover).
		Float64("nav_after", record.NAVAfter).
		Msg("Rebalance completed")

	if s.events != nil {
		s.events.Emit(EventRebalanceCompleted, record)
	}
	return &record, nil
}

func (s *Service) fail(trigger Trigger, err error) {
	s.log.Error().Err(err).Str("trigger", string(trigger)).Msg("Rebalance failed")
	if s.events != nil {
		s.events.Emit(EventRebalanceFailed, map[string]string{
			"trigger": string(trigger),
			"error":   err.Error(),
		})
	}
}
