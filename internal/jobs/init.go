package jobs

import (
	"context"
	"time"

	"gatehouse/internal/logging"
	"gatehouse/internal/metrics"
)

// InitializeJobs starts the background jobs. backupStore may be nil when no
// bucket is configured.
func InitializeJobs(
	ctx context.Context,
	source SnapshotSource,
	backupStore ObjectPutter,
	bucket string,
	backupInterval time.Duration,
	limiter Sweeper,
	m *metrics.MetricsRegistry,
) {
	if backupStore != nil {
		backup := NewBackupJob(source, backupStore, bucket, m)
		go backup.RunScheduled(ctx, backupInterval)
	} else {
		logging.Info("S3 not configured, collection backups disabled")
	}

	if limiter != nil {
		go RunJanitor(ctx, "rate_limiter", limiter, 5*time.Minute, 15*time.Minute)
	}
}
