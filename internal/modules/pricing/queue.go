package pricing

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Queue serializes outbound provider calls: at most one call in flight
// system-wide, with a mandatory cooldown after each call (success or
// failure) before the next one starts. Callers block until their call has
// run; there is no busy-waiting.
type Queue struct {
	jobs     chan queueJob
	cooldown time.Duration
	done     chan struct{}
	log      zerolog.Logger
}

type queueJob struct {
	run  func()
	done chan struct{}
}

// NewQueue creates and starts the outbound call queue
func NewQueue(cooldown time.Duration, log zerolog.Logger) *Queue {
	q := &Queue{
		jobs:     make(chan queueJob, 64),
		cooldown: cooldown,
		done:     make(chan struct{}),
		log:      log.With().Str("component", "outbound_queue").Logger(),
	}
	go q.worker()
	return q
}

// Do runs fn through the queue and waits for it to complete. Enqueueing
// respects ctx; once the call has started it always runs to completion so
// that result variables captured by fn are safe to read afterwards. fn
// receives ctx and is expected to honor its deadline.
func (q *Queue) Do(ctx context.Context, fn func(ctx context.Context)) error {
	job := queueJob{
		run:  func() { fn(ctx) },
		done: make(chan struct{}),
	}

	select {
	case q.jobs <- job:
	case <-ctx.Done():
		return ctx.Err()
	case <-q.done:
		return context.Canceled
	}

	<-job.done
	return nil
}

// Close stops the worker after the current call finishes
func (q *Queue) Close() {
	close(q.done)
}

func (q *Queue) worker() {
	for {
		select {
		case job := <-q.jobs:
			start := time.Now()
			job.run()
			close(job.done)

			q.log.Debug().
				Dur("duration", time.Since(start)).
				Dur("cooldown", q.cooldown).
				Msg("Outbound call completed, cooling down")

			select {
			case <-time.After(q.cooldown):
			case <-q.done:
				return
			}
		case <-q.done:
			return
		}
	}
}
