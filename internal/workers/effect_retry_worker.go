package workers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gatehouse/internal/common"
	"gatehouse/internal/logging"
	"gatehouse/internal/metrics"
	"gatehouse/internal/services"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// EffectExecutor performs a queued effect.
type EffectExecutor interface {
	Execute(ctx context.Context, item *common.EffectQueueItem) error
}

// EffectRetryWorker drains the effect stream, retrying failed DMs and emails
// until they succeed or run out of attempts.
type EffectRetryWorker struct {
	workerID    string
	queue       *common.RedisQueueService
	exec        EffectExecutor
	maxAttempts int
	backoff     time.Duration
	block       time.Duration
	poll        time.Duration
	metrics     *metrics.MetricsRegistry
	now         func() time.Time
}

func NewEffectRetryWorker(
	workerID string,
	queue *common.RedisQueueService,
	exec EffectExecutor,
	maxAttempts int,
	m *metrics.MetricsRegistry,
) *EffectRetryWorker {
	return &EffectRetryWorker{
		workerID:    workerID,
		queue:       queue,
		exec:        exec,
		maxAttempts: maxAttempts,
		backoff:     30 * time.Second,
		block:       5 * time.Second,
		poll:        time.Second,
		metrics:     m,
		now:         time.Now,
	}
}

// Start runs numWorkers consumers plus a stale-message reclaimer until ctx
// is done.
func (w *EffectRetryWorker) Start(ctx context.Context, numWorkers int) error {
	if err := w.queue.CreateConsumerGroup(ctx, common.EffectStream, common.EffectGroup); err != nil {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}
	logging.Info("Effect retry worker starting", "workers", numWorkers, "max_attempts", w.maxAttempts)

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < numWorkers; i++ {
		consumer := fmt.Sprintf("%s-%d", w.workerID, i)
		g.Go(func() error {
			w.processQueue(ctx, consumer)
			return nil
		})
	}
	g.Go(func() error {
		w.claimStaleMessages(ctx, w.workerID+"-reclaimer")
		return nil
	})
	return g.Wait()
}

func (w *EffectRetryWorker) processQueue(ctx context.Context, consumer string) {
	for {
		select {
		case <-ctx.Done():
			logging.Info("Effect retry consumer stopping", "consumer", consumer)
			return
		default:
		}

		if _, err := w.ProcessOne(ctx, consumer); err != nil && ctx.Err() == nil {
			logging.Warn("Effect retry dequeue failed", "consumer", consumer, "error", err.Error())
			sleepCtx(ctx, time.Second)
		}
	}
}

// ProcessOne reads and handles at most one message. It reports whether a
// message was handled.
func (w *EffectRetryWorker) ProcessOne(ctx context.Context, consumer string) (bool, error) {
	item, messageID, err := w.queue.Dequeue(ctx, common.EffectStream, common.EffectGroup, consumer, w.block)
	if err != nil {
		if messageID != "" {
			// Undecodable message, never retryable.
			_ = w.queue.Ack(ctx, common.EffectStream, common.EffectGroup, messageID)
		}
		return false, err
	}
	if item == nil {
		return false, nil
	}

	// Items that are not due go back to the tail so nothing sits unacked
	// for the length of a backoff.
	if wait := w.delayFor(item); wait > 0 {
		w.postpone(ctx, item, messageID)
		sleepCtx(ctx, min(wait, w.poll))
		return true, nil
	}

	w.handle(ctx, item)
	w.ack(ctx, messageID)
	return true, nil
}

// postpone re-adds item unchanged and acks the original. When the re-add
// fails the original stays pending for the reclaimer.
func (w *EffectRetryWorker) postpone(ctx context.Context, item *common.EffectQueueItem, messageID string) {
	if err := w.queue.Enqueue(ctx, common.EffectStream, item); err != nil {
		itemLogger(item).Warnw("Failed to postpone effect", "effect", item.Effect, "error", err.Error())
		return
	}
	w.ack(ctx, messageID)
}

func (w *EffectRetryWorker) ack(ctx context.Context, messageID string) {
	if err := w.queue.Ack(ctx, common.EffectStream, common.EffectGroup, messageID); err != nil {
		logging.Warn("Failed to ack effect message", "id", messageID, "error", err.Error())
	}
}

func (w *EffectRetryWorker) handle(ctx context.Context, item *common.EffectQueueItem) {
	log := itemLogger(item)
	err := w.exec.Execute(ctx, item)
	switch {
	case err == nil, errors.Is(err, services.ErrEffectSkipped):
		w.metrics.EffectFinished(item.Effect, "retry_ok")
		log.Infow("Effect delivered on retry", "effect", item.Effect, "attempt", item.Attempts+1)
		return
	case item.Attempts+1 >= w.maxAttempts:
		w.metrics.EffectFinished(item.Effect, "dropped")
		log.Errorw("Effect dropped after max attempts", "effect", item.Effect, "attempts", item.Attempts+1, "error", err.Error())
		return
	}

	next := *item
	next.Attempts++
	next.LastError = err.Error()
	next.EnqueuedAt = w.now()
	if qerr := w.queue.Enqueue(ctx, common.EffectStream, &next); qerr != nil {
		w.metrics.EffectFinished(item.Effect, "dropped")
		log.Errorw("Failed to requeue effect", "effect", item.Effect, "error", qerr.Error())
		return
	}
	w.metrics.EffectFinished(item.Effect, "retry_failed")
}

func itemLogger(item *common.EffectQueueItem) *zap.SugaredLogger {
	return logging.WithApplication(item.ApplicationID, item.Payload["user_id"])
}

// delayFor doubles the wait with every attempt, measured from enqueue time.
func (w *EffectRetryWorker) delayFor(item *common.EffectQueueItem) time.Duration {
	if w.backoff <= 0 || item.Attempts <= 0 {
		return 0
	}
	wait := w.backoff << (item.Attempts - 1)
	due := item.EnqueuedAt.Add(wait)
	if d := due.Sub(w.now()); d > 0 {
		return d
	}
	return 0
}

// claimStaleMessages takes over messages a crashed consumer left pending.
func (w *EffectRetryWorker) claimStaleMessages(ctx context.Context, consumer string) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			items, ids, err := w.queue.ClaimStale(ctx, common.EffectStream, common.EffectGroup, consumer, 5*time.Minute)
			if err != nil {
				logging.Warn("Failed to claim stale effects", "error", err.Error())
				continue
			}
			for i, item := range items {
				if w.delayFor(item) > 0 {
					w.postpone(ctx, item, ids[i])
					continue
				}
				w.handle(ctx, item)
				w.ack(ctx, ids[i])
			}
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
