package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gatehouse/internal/common"
	"gatehouse/internal/constants"
	"gatehouse/internal/logging"
	"gatehouse/internal/metrics"
	"gatehouse/internal/models/dtos"
	"gatehouse/internal/providers"
)

// Post-commit effect names.
const (
	EffectAuditSubmitted      = "audit.submitted"
	EffectAuditStatusChanged  = "audit.status_changed"
	EffectAuditArchived       = "audit.archived"
	EffectNotifyNew           = "notify.new_application"
	EffectNotifyStatusChanged = "notify.status_changed"
	EffectNotifyArchived      = "notify.archived"
	EffectDiscordDM           = "discord.dm"
	EffectEmailDecision       = "email.decision"
)

// ErrEffectSkipped means the effect had nothing to do, e.g. no channel is
// configured or the applicant left no email address.
var ErrEffectSkipped = errors.New("effect skipped")

// Effect is one step that runs after the authoritative write committed.
// Retry, when set, is enqueued if Run fails.
type Effect struct {
	Name  string
	Run   func(ctx context.Context) error
	Retry *common.EffectQueueItem
}

// EffectQueue is where failed retryable effects go.
type EffectQueue interface {
	Enqueue(ctx context.Context, stream string, item *common.EffectQueueItem) error
}

// EffectRunner executes effects in order. A failing effect never stops the
// ones after it.
type EffectRunner struct {
	queue   EffectQueue
	metrics *metrics.MetricsRegistry
	now     func() time.Time
}

func NewEffectRunner(queue EffectQueue, m *metrics.MetricsRegistry, now func() time.Time) *EffectRunner {
	if now == nil {
		now = time.Now
	}
	return &EffectRunner{queue: queue, metrics: m, now: now}
}

func (r *EffectRunner) Run(ctx context.Context, effects []Effect) []dtos.EffectOutcome {
	// The decision is already stored; a client hanging up must not cut the
	// notifications short.
	ctx = context.WithoutCancel(ctx)

	outcomes := make([]dtos.EffectOutcome, 0, len(effects))
	for _, e := range effects {
		outcomes = append(outcomes, r.runOne(ctx, e))
	}
	return outcomes
}

func (r *EffectRunner) runOne(ctx context.Context, e Effect) (out dtos.EffectOutcome) {
	out.Name = e.Name
	defer func() {
		if p := recover(); p != nil {
			out.OK = false
			out.Error = fmt.Sprintf("panic: %v", p)
			logging.Error("Effect panicked", "effect", e.Name, "panic", p)
			r.metrics.EffectFinished(e.Name, "failed")
		}
	}()

	err := e.Run(ctx)
	switch {
	case err == nil:
		out.OK = true
		r.metrics.EffectFinished(e.Name, "ok")
	case errors.Is(err, ErrEffectSkipped):
		out.Skipped = true
		r.metrics.EffectFinished(e.Name, "skipped")
	default:
		out.Error = err.Error()
		logging.Warn("Post-commit effect failed", "effect", e.Name, "error", err.Error())
		if r.enqueue(ctx, e, err) {
			out.Queued = true
			r.metrics.EffectFinished(e.Name, "queued")
		} else {
			r.metrics.EffectFinished(e.Name, "failed")
		}
	}
	return out
}

func (r *EffectRunner) enqueue(ctx context.Context, e Effect, cause error) bool {
	if e.Retry == nil || r.queue == nil {
		return false
	}
	item := *e.Retry
	item.Attempts = 1
	item.LastError = cause.Error()
	item.EnqueuedAt = r.now()
	if err := r.queue.Enqueue(ctx, common.EffectStream, &item); err != nil {
		logging.Error("Failed to enqueue effect for retry", "effect", e.Name, "error", err.Error())
		return false
	}
	return true
}

// DecisionDelivery sends decision DMs and emails. Retries from the queue run
// through the same code as the first attempt.
type DecisionDelivery struct {
	dm         providers.DirectMessenger
	mailer     providers.Mailer
	serverName string
}

func NewDecisionDelivery(dm providers.DirectMessenger, mailer providers.Mailer, serverName string) *DecisionDelivery {
	return &DecisionDelivery{dm: dm, mailer: mailer, serverName: serverName}
}

// decisionItem builds the queue item describing a delivery.
func (d *DecisionDelivery) decisionItem(effect, userID, email string, msg providers.DecisionMessage) *common.EffectQueueItem {
	return &common.EffectQueueItem{
		Effect:        effect,
		ApplicationID: msg.ApplicationID,
		Payload: map[string]string{
			"user_id":   userID,
			"to":        email,
			"type_name": msg.TypeName,
			"status":    string(msg.Status),
			"reason":    msg.Reason,
		},
	}
}

func (d *DecisionDelivery) message(item *common.EffectQueueItem) providers.DecisionMessage {
	return providers.DecisionMessage{
		ApplicationID: item.ApplicationID,
		TypeName:      item.Payload["type_name"],
		Status:        constants.ApplicationStatus(item.Payload["status"]),
		Reason:        item.Payload["reason"],
		ServerName:    d.serverName,
	}
}

// Execute performs the delivery described by item.
func (d *DecisionDelivery) Execute(ctx context.Context, item *common.EffectQueueItem) error {
	msg := d.message(item)

	switch item.Effect {
	case EffectDiscordDM:
		if d.dm == nil {
			return ErrEffectSkipped
		}
		return d.dm.SendDecision(ctx, item.Payload["user_id"], msg)

	case EffectEmailDecision:
		to := item.Payload["to"]
		if d.mailer == nil || to == "" {
			return ErrEffectSkipped
		}
		subject, body := providers.DecisionEmail(msg)
		err := d.mailer.Send(ctx, to, subject, body)
		if errors.Is(err, constants.ErrEmailDisabled) {
			return ErrEffectSkipped
		}
		return err

	default:
		return fmt.Errorf("unknown effect %q", item.Effect)
	}
}

// Effects returns the DM and email steps for a decision.
func (d *DecisionDelivery) Effects(userID, email string, msg providers.DecisionMessage) []Effect {
	dm := d.decisionItem(EffectDiscordDM, userID, email, msg)
	mail := d.decisionItem(EffectEmailDecision, userID, email, msg)
	return []Effect{
		{Name: EffectDiscordDM, Run: func(ctx context.Context) error { return d.Execute(ctx, dm) }, Retry: dm},
		{Name: EffectEmailDecision, Run: func(ctx context.Context) error { return d.Execute(ctx, mail) }, Retry: mail},
	}
}
