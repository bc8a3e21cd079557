package entities

import "time"

type ComponentState string

const (
	ComponentOK       ComponentState = "ok"
	ComponentDown     ComponentState = "down"
	ComponentDisabled ComponentState = "disabled"
)

// ComponentHealth is the state of one backing service. Required components
// take the whole report down; the rest only degrade it.
type ComponentHealth struct {
	State     ComponentState `json:"state"`
	Required  bool           `json:"required"`
	Detail    string         `json:"detail,omitempty"`
	LatencyMs int64          `json:"latency_ms"`
}

// EffectBacklog counts DM and email retries waiting in the effect stream.
type EffectBacklog struct {
	Queued  int64 `json:"queued"`
	Pending int64 `json:"pending"`
}

// HealthReport is the /healthCheck body. Status is ok, degraded or down.
type HealthReport struct {
	Status         string                     `json:"status"`
	StorageBackend string                     `json:"storage_backend"`
	Components     map[string]ComponentHealth `json:"components"`
	Effects        *EffectBacklog             `json:"effects,omitempty"`
	StartedAt      time.Time                  `json:"started_at"`
	Uptime         string                     `json:"uptime"`
}
