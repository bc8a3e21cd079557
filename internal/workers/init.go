package workers

import (
	"context"
	"os"
	"time"

	"gatehouse/internal/common"
	"gatehouse/internal/logging"
	"gatehouse/internal/metrics"
)

// InitWorkers starts the effect retry workers in the background. It is a
// no-op without a queue.
func InitWorkers(
	ctx context.Context,
	queue *common.RedisQueueService,
	exec EffectExecutor,
	numWorkers, maxAttempts int,
	m *metrics.MetricsRegistry,
) {
	if queue == nil {
		logging.Info("Redis not configured, failed effects will not be retried")
		return
	}

	host, _ := os.Hostname()
	worker := NewEffectRetryWorker("effects-"+host, queue, exec, maxAttempts, m)
	monitor := NewEffectQueueMonitor(queue)

	go func() {
		if err := worker.Start(ctx, numWorkers); err != nil {
			logging.Error("Effect retry worker stopped", "error", err.Error())
		}
	}()
	go monitor.Start(ctx, time.Minute)
}
