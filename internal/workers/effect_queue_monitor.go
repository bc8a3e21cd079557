package workers

import (
	"context"
	"time"

	"gatehouse/internal/common"
	"gatehouse/internal/logging"
)

// EffectQueueMonitor logs the size of the retry stream.
type EffectQueueMonitor struct {
	queue *common.RedisQueueService
}

func NewEffectQueueMonitor(queue *common.RedisQueueService) *EffectQueueMonitor {
	return &EffectQueueMonitor{queue: queue}
}

func (m *EffectQueueMonitor) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.check(ctx)
	for {
		select {
		case <-ctx.Done():
			logging.Info("Effect queue monitor shutting down")
			return
		case <-ticker.C:
			m.check(ctx)
		}
	}
}

func (m *EffectQueueMonitor) check(ctx context.Context) {
	length, err := m.queue.Length(ctx, common.EffectStream)
	if err != nil {
		logging.Warn("Effect queue length check failed", "error", err.Error())
		return
	}
	pending, err := m.queue.PendingCount(ctx, common.EffectStream, common.EffectGroup)
	if err != nil {
		logging.Warn("Effect queue pending check failed", "error", err.Error())
		return
	}
	if pending > 0 || length > 0 {
		logging.Info("Effect queue status", "length", length, "pending", pending)
	}
}
