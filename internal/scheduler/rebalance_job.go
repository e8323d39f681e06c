package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/modelfolio/internal/modules/rebalancing"
)

// RebalanceJob runs the weekly model rebalance
type RebalanceJob struct {
	service *rebalancing.Service
	timeout time.Duration
	log     zerolog.Logger
}

// NewRebalanceJob creates the scheduled rebalance job
func NewRebalanceJob(service *rebalancing.Service, log zerolog.Logger) *RebalanceJob {
	return &RebalanceJob{
		service: service,
		timeout: 5 * time.Minute,
		log:     log.With().Str("job", "rebalance").Logger(),
	}
}

// Name returns the job name
func (j *RebalanceJob) Name() string {
	return "rebalance"
}

// Run executes one scheduled rebalance. An already-running rebalance is
// not an error; this cycle is simply skipped.
func (j *RebalanceJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	record, err := j.service.Run(ctx, rebalancing.TriggerScheduled)
	if err != nil {
		if errors.Is(err, rebalancing.ErrRebalanceInProgress) {
			j.log.Warn().Msg("Rebalance already running, skipping this cycle")
			return nil
		}
		return fmt.Errorf("scheduled rebalance failed: %w", err)
	}

	if record == nil {
		j.log.Info().Msg("Rebalance skipped, not enough benchmark history yet")
		return nil
	}

	j.log.Info().
		Str("id", record.ID).
		Str("regime", string(record.Regime)).
		Int("trades", len(record.Trades)).
		Msg("Scheduled rebalance completed")
	return nil
}
