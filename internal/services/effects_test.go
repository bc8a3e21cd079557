package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"gatehouse/internal/common"
	"gatehouse/internal/constants"
	"gatehouse/internal/providers"
)

func TestEffectRunner_FailureDoesNotStopLaterEffects(t *testing.T) {
	queue := &mockQueue{}
	runner := NewEffectRunner(queue, nil, nil)
	ran := 0

	outcomes := runner.Run(context.Background(), []Effect{
		{Name: "first", Run: func(context.Context) error { ran++; return errors.New("boom") }},
		{Name: "second", Run: func(context.Context) error { ran++; panic("bad") }},
		{Name: "third", Run: func(context.Context) error { ran++; return ErrEffectSkipped }},
		{Name: "fourth", Run: func(context.Context) error { ran++; return nil }},
	})

	if ran != 4 {
		t.Fatalf("Expected 4 effects to run, got %d", ran)
	}
	if outcomes[0].OK || outcomes[0].Error != "boom" || outcomes[0].Queued {
		t.Errorf("Unexpected first outcome: %+v", outcomes[0])
	}
	if outcomes[1].OK || outcomes[1].Error == "" {
		t.Errorf("Expected panic captured, got %+v", outcomes[1])
	}
	if !outcomes[2].Skipped {
		t.Errorf("Expected skipped, got %+v", outcomes[2])
	}
	if !outcomes[3].OK {
		t.Errorf("Expected ok, got %+v", outcomes[3])
	}
}

func TestEffectRunner_QueuesRetryableFailure(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	queue := &mockQueue{}
	runner := NewEffectRunner(queue, nil, func() time.Time { return now })

	retry := &common.EffectQueueItem{Effect: EffectDiscordDM, ApplicationID: "1"}
	outcomes := runner.Run(context.Background(), []Effect{
		{Name: EffectDiscordDM, Run: func(context.Context) error { return errors.New("rate limited") }, Retry: retry},
	})

	if !outcomes[0].Queued {
		t.Fatalf("Expected queued, got %+v", outcomes[0])
	}
	if len(queue.items) != 1 {
		t.Fatalf("Expected 1 queued item, got %d", len(queue.items))
	}
	item := queue.items[0]
	if item.Attempts != 1 || item.LastError != "rate limited" || !item.EnqueuedAt.Equal(now) {
		t.Errorf("Unexpected queued item: %+v", item)
	}
	if retry.Attempts != 0 {
		t.Error("Expected original retry template untouched")
	}
}

func TestEffectRunner_SurvivesCancelledContext(t *testing.T) {
	runner := NewEffectRunner(nil, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcomes := runner.Run(ctx, []Effect{
		{Name: "check", Run: func(ctx context.Context) error { return ctx.Err() }},
	})
	if !outcomes[0].OK {
		t.Errorf("Expected effect to see a live context, got %+v", outcomes[0])
	}
}

func TestDecisionDelivery_SkipsUnconfiguredChannels(t *testing.T) {
	delivery := NewDecisionDelivery(nil, nil, "Test Server")

	for _, e := range delivery.Effects("1", "", providers.DecisionMessage{Status: constants.StatusApproved}) {
		if err := e.Run(context.Background()); !errors.Is(err, ErrEffectSkipped) {
			t.Errorf("Expected %s skipped, got %v", e.Name, err)
		}
	}
}

func TestDecisionDelivery_EmailDisabledIsSkipped(t *testing.T) {
	mailer := &mockMailer{sendFunc: func(ctx context.Context, to, subject, body string) error {
		return constants.ErrEmailDisabled
	}}
	delivery := NewDecisionDelivery(nil, mailer, "Test Server")

	err := delivery.Execute(context.Background(), &common.EffectQueueItem{
		Effect:  EffectEmailDecision,
		Payload: map[string]string{"to": "a@example.com", "status": "approved"},
	})
	if !errors.Is(err, ErrEffectSkipped) {
		t.Errorf("Expected skipped, got %v", err)
	}
}

func TestDecisionDelivery_ExecuteRebuildsMessage(t *testing.T) {
	var got providers.DecisionMessage
	dm := &mockMessenger{sendDecisionFunc: func(ctx context.Context, userID string, msg providers.DecisionMessage) error {
		got = msg
		return nil
	}}
	delivery := NewDecisionDelivery(dm, nil, "Test Server")

	err := delivery.Execute(context.Background(), &common.EffectQueueItem{
		Effect:        EffectDiscordDM,
		ApplicationID: "42",
		Payload:       map[string]string{"user_id": "7", "type_name": "Staff", "status": "denied", "reason": "no"},
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if got.ApplicationID != "42" || got.TypeName != "Staff" || got.Status != constants.StatusDenied || got.ServerName != "Test Server" {
		t.Errorf("Unexpected message: %+v", got)
	}

	if err := delivery.Execute(context.Background(), &common.EffectQueueItem{Effect: "nope"}); err == nil {
		t.Error("Expected error for unknown effect")
	}
}
