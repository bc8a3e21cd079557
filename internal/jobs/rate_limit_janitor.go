package jobs

import (
	"context"
	"time"

	"gatehouse/internal/logging"
)

// Sweeper drops entries idle for longer than the given duration.
type Sweeper interface {
	Sweep(idle time.Duration) int
}

// RunJanitor sweeps every interval until ctx is done.
func RunJanitor(ctx context.Context, name string, s Sweeper, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := s.Sweep(idle); n > 0 {
				logging.Debug("Janitor swept idle entries", "janitor", name, "removed", n)
			}
		case <-ctx.Done():
			return
		}
	}
}
