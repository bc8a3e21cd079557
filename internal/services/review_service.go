package services

import (
	"context"
	"fmt"
	"time"

	"gatehouse/internal/constants"
	"gatehouse/internal/db/repositories"
	"gatehouse/internal/metrics"
	"gatehouse/internal/models/dtos"
	"gatehouse/internal/models/entities"
	"gatehouse/internal/providers"
)

// ReviewService moves a pending application to the archive with a decision
// and then runs the decision's post-commit effects.
type ReviewService struct {
	apps          *repositories.ApplicationRepository
	eligibility   *EligibilityService
	activity      *ActivityService
	notifications *NotificationService
	delivery      *DecisionDelivery
	effects       *EffectRunner
	metrics       *metrics.MetricsRegistry
	now           func() time.Time
}

func NewReviewService(
	apps *repositories.ApplicationRepository,
	eligibility *EligibilityService,
	activity *ActivityService,
	notifications *NotificationService,
	delivery *DecisionDelivery,
	effects *EffectRunner,
	m *metrics.MetricsRegistry,
	now func() time.Time,
) *ReviewService {
	if now == nil {
		now = time.Now
	}
	return &ReviewService{
		apps:          apps,
		eligibility:   eligibility,
		activity:      activity,
		notifications: notifications,
		delivery:      delivery,
		effects:       effects,
		metrics:       m,
		now:           now,
	}
}

// Review approves or denies application id on behalf of reviewer.
func (s *ReviewService) Review(
	ctx context.Context,
	id string,
	req dtos.ReviewApplicationReq,
	reviewer entities.Reviewer,
) (*dtos.ReviewResult, error) {
	if !req.Status.IsDecision() {
		return nil, fmt.Errorf("%w: %s", constants.ErrValidation, constants.MsgInvalidStatus)
	}

	_, loc, err := s.apps.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if loc == repositories.LocationArchived {
		return nil, fmt.Errorf("%w: %s", constants.ErrConflict, constants.MsgAlreadyReviewed)
	}

	now := s.now()
	moved, err := s.apps.Move(ctx, id, func(app *entities.Application) error {
		app.Status = req.Status
		app.StatusReason = req.Reason
		app.UpdatedAt = &now
		app.Reviewer = &reviewer
		app.ReviewedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.ApplicationReviewed(moved.EffectiveType(), string(req.Status))

	typeName := moved.EffectiveType()
	if t, _, err := s.eligibility.ResolveType(ctx, typeName); err == nil && t.Name != "" {
		typeName = t.Name
	}

	outcomes := s.effects.Run(ctx, s.decisionEffects(moved, reviewer, typeName))

	result := &dtos.ReviewResult{Application: moved, Effects: outcomes}
	for _, o := range outcomes {
		switch o.Name {
		case EffectDiscordDM:
			result.DMSent = o.OK
		case EffectEmailDecision:
			result.EmailSent = o.OK
		}
	}
	return result, nil
}

func (s *ReviewService) decisionEffects(app *entities.Application, reviewer entities.Reviewer, typeName string) []Effect {
	applicant := app.Discord.Username
	status := string(app.Status)

	effects := []Effect{
		{
			Name: EffectAuditStatusChanged,
			Run: func(ctx context.Context) error {
				return s.activity.Log(ctx, ActivityEvent{
					Type:       constants.ActivityStatusChanged,
					UserID:     reviewer.ID,
					UserName:   reviewer.Username,
					TargetID:   app.ID,
					TargetName: applicant,
					Details:    fmt.Sprintf("%s application %s: %s", typeName, status, app.StatusReason),
				})
			},
		},
		{
			Name: EffectAuditArchived,
			Run: func(ctx context.Context) error {
				return s.activity.Log(ctx, ActivityEvent{
					Type:       constants.ActivityArchived,
					UserID:     reviewer.ID,
					UserName:   reviewer.Username,
					TargetID:   app.ID,
					TargetName: applicant,
					Details:    "archived after " + status,
				})
			},
		},
		{
			Name: EffectNotifyStatusChanged,
			Run: func(ctx context.Context) error {
				return s.notifications.Notify(ctx, constants.NotificationStatusChanged,
					"Application "+status,
					fmt.Sprintf("%s's %s application was %s by %s", applicant, typeName, status, reviewer.Username),
					app.ID)
			},
		},
		{
			Name: EffectNotifyArchived,
			Run: func(ctx context.Context) error {
				return s.notifications.Notify(ctx, constants.NotificationArchived,
					"Application archived",
					fmt.Sprintf("%s's %s application moved to the archive", applicant, typeName),
					app.ID)
			},
		},
	}

	msg := providers.DecisionMessage{
		ApplicationID: app.ID,
		TypeName:      typeName,
		Status:        app.Status,
		Reason:        app.StatusReason,
	}
	return append(effects, s.delivery.Effects(app.Discord.ID, app.Discord.Email, msg)...)
}
