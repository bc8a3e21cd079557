package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"gatehouse/internal/common"
	"gatehouse/internal/logging"
	"gatehouse/internal/models/entities"
)

const (
	healthOK       = "ok"
	healthDegraded = "degraded"
	healthDown     = "down"
)

// HealthCheckHandler handles GET /healthCheck
//
// @Summary Health check
// @Description Reports the collection store, sessions, the audit mirror and the effect backlog.
// @Tags Misc
// @Success 200 {object} entities.HealthReport
// @Failure 503 {object} entities.HealthReport
// @Router /healthCheck [get]
func HealthCheckHandler(deps *Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		store := deps.Repo.Collections.Store()
		components := map[string]entities.ComponentHealth{
			"storage": check(ctx, true, "Collections readable", store.Ping),
		}

		if deps.Infra.Redis != nil {
			components["redis"] = check(ctx, true, "Sessions and effect queue reachable", func(ctx context.Context) error {
				return deps.Infra.Redis.Ping(ctx).Err()
			})
		} else {
			components["redis"] = entities.ComponentHealth{State: entities.ComponentDisabled, Detail: "Sessions kept in memory"}
		}

		if deps.Repo.ActivitySQL != nil {
			components["audit_db"] = check(ctx, false, "Audit mirror reachable", deps.Repo.ActivitySQL.Ping)
		}

		report := entities.HealthReport{
			Status:         summarize(components),
			StorageBackend: store.Backend(),
			Components:     components,
			Effects:        effectBacklog(ctx, deps.Services.Queue),
			StartedAt:      deps.StartedAt,
			Uptime:         time.Since(deps.StartedAt).Round(time.Second).String(),
		}

		w.Header().Set("Content-Type", "application/json")
		if report.Status == healthDown {
			logging.Warn("Health check failing", "components", components)
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(report)
	}
}

func check(ctx context.Context, required bool, okDetail string, ping func(context.Context) error) entities.ComponentHealth {
	start := time.Now()
	err := ping(ctx)
	h := entities.ComponentHealth{
		State:     entities.ComponentOK,
		Required:  required,
		Detail:    okDetail,
		LatencyMs: time.Since(start).Milliseconds(),
	}
	if err != nil {
		h.State = entities.ComponentDown
		h.Detail = err.Error()
	}
	return h
}

// summarize is down when a required component is down and degraded when
// only optional ones are.
func summarize(components map[string]entities.ComponentHealth) string {
	status := healthOK
	for _, c := range components {
		if c.State != entities.ComponentDown {
			continue
		}
		if c.Required {
			return healthDown
		}
		status = healthDegraded
	}
	return status
}

func effectBacklog(ctx context.Context, queue *common.RedisQueueService) *entities.EffectBacklog {
	if queue == nil {
		return nil
	}
	queued, err := queue.Length(ctx, common.EffectStream)
	if err != nil {
		return nil
	}
	pending, err := queue.PendingCount(ctx, common.EffectStream, common.EffectGroup)
	if err != nil {
		return nil
	}
	return &entities.EffectBacklog{Queued: queued, Pending: pending}
}
