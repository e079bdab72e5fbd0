package worker

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-lms/internal/clock"
	"github.com/stemsi/exstem-lms/internal/observability"
	"github.com/stemsi/exstem-lms/internal/service"
)

const (
	PublicationBatchSize  = 50
	PublicationSweepLimit = 200
	PublicationRetryDelay = 30 * time.Second
)

// Publisher publishes due results.
type Publisher interface {
	Publish(ctx context.Context, attemptID uuid.UUID) (bool, error)
	PublishDue(ctx context.Context, limit int) (int, error)
}

// PublicationWorker drains the Redis publication queue and periodically sweeps
// the database for due attempts the queue lost (restarts, Redis flushes).
type PublicationWorker struct {
	queue     *PublicationQueue
	publisher Publisher
	clock     clock.Clock
	poll      time.Duration
	sweep     time.Duration
	log       zerolog.Logger
}

func NewPublicationWorker(queue *PublicationQueue, publisher Publisher, clk clock.Clock, poll, sweep time.Duration, log zerolog.Logger) *PublicationWorker {
	return &PublicationWorker{
		queue:     queue,
		publisher: publisher,
		clock:     clk,
		poll:      poll,
		sweep:     sweep,
		log:       log.With().Str("component", "publication_worker").Logger(),
	}
}

// ----------------------------------------------------------------
// Worker loop
// ----------------------------------------------------------------

// Start blocks until ctx is cancelled. It sweeps once on startup so results
// that fell due while the process was down are published immediately.
func (w *PublicationWorker) Start(ctx context.Context) {
	w.log.Info().
		Dur("poll", w.poll).
		Dur("sweep", w.sweep).
		Msg("PublicationWorker started")

	w.Sweep(ctx)

	pollTicker := time.NewTicker(w.poll)
	defer pollTicker.Stop()
	sweepTicker := time.NewTicker(w.sweep)
	defer sweepTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("PublicationWorker stopped")
			return
		case <-pollTicker.C:
			w.Drain(ctx)
		case <-sweepTicker.C:
			w.Sweep(ctx)
		}
	}
}

// ----------------------------------------------------------------
// Fast lane: Redis sorted set
// ----------------------------------------------------------------

// Drain publishes every queued attempt that is due. It returns how many were published.
func (w *PublicationWorker) Drain(ctx context.Context) int {
	published := 0
	for {
		ids, err := w.queue.PopDue(ctx, w.clock.Now(), PublicationBatchSize)
		if err != nil {
			if ctx.Err() == nil {
				w.log.Error().Err(err).Msg("PopDue error")
			}
			break
		}

		for _, id := range ids {
			if w.publishOne(ctx, id) {
				published++
			}
		}
		if len(ids) < PublicationBatchSize {
			break
		}
	}

	if n, err := w.queue.Len(ctx); err == nil {
		observability.PublicationQueueLength().Set(float64(n))
	}
	return published
}

func (w *PublicationWorker) publishOne(ctx context.Context, id uuid.UUID) bool {
	ok, err := w.publisher.Publish(ctx, id)
	switch {
	case err == nil:
		return ok
	case errors.Is(err, service.ErrPublicationNotDue):
		// Queue score and database disagree; the database wins.
		w.requeue(ctx, id, w.clock.Now().Add(w.poll))
	case errors.Is(err, service.ErrNotFound), errors.Is(err, service.ErrNotGraded):
		w.log.Warn().Err(err).Str("attempt_id", id.String()).Msg("Dropping unpublishable attempt")
	default:
		w.log.Error().Err(err).Str("attempt_id", id.String()).Msg("Publish failed, requeueing")
		w.requeue(ctx, id, w.clock.Now().Add(PublicationRetryDelay))
	}
	return false
}

func (w *PublicationWorker) requeue(ctx context.Context, id uuid.UUID, at time.Time) {
	if err := w.queue.Enqueue(ctx, id, at); err != nil {
		w.log.Error().Err(err).Str("attempt_id", id.String()).Msg("Requeue failed, left to sweep")
	}
}

// ----------------------------------------------------------------
// Slow lane: database sweep
// ----------------------------------------------------------------

// Sweep publishes due attempts straight from the database.
func (w *PublicationWorker) Sweep(ctx context.Context) int {
	n, err := w.publisher.PublishDue(ctx, PublicationSweepLimit)
	if err != nil && ctx.Err() == nil {
		w.log.Error().Err(err).Msg("Publication sweep failed")
	}
	return n
}
