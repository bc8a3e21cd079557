package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"gatehouse/internal/constants"
	"gatehouse/internal/db/repositories"
	"gatehouse/internal/metrics"
	"gatehouse/internal/models/dtos"
	"gatehouse/internal/models/entities"
)

const day = 24 * time.Hour

// EligibilityInput is everything the reapply decision depends on.
type EligibilityInput struct {
	UserID    string
	Type      entities.ApplicationType
	Active    []entities.Application
	Archived  []entities.Application
	Ban       *entities.BanEntry
	Blacklist *entities.BanEntry
	Now       time.Time
}

// EvaluateEligibility applies the reapply rules in order: ban, blacklist,
// pending duplicate, unique approval, cooldown. The first rule that rejects
// decides.
func EvaluateEligibility(in EligibilityInput) dtos.EligibilityDecision {
	if in.Ban != nil && in.Ban.ActiveAt(in.Now) {
		return reject(dtos.ReasonBanned, constants.MsgBanned)
	}
	if in.Blacklist != nil && in.Blacklist.ActiveAt(in.Now) {
		return reject(dtos.ReasonBlacklisted, constants.MsgBlacklisted)
	}

	typeID := in.Type.ID

	if !in.Type.AllowMultiplePending {
		for i := range in.Active {
			if in.Active[i].BelongsTo(in.UserID, typeID) && in.Active[i].IsPending() {
				return reject(dtos.ReasonPending, constants.MsgPendingDuplicate)
			}
		}
	}

	var (
		lastDenied  *entities.Application
		totalDenied int
	)
	for i := range in.Archived {
		app := &in.Archived[i]
		if !app.BelongsTo(in.UserID, typeID) {
			continue
		}
		switch app.EffectiveStatus() {
		case constants.StatusApproved:
			if in.Type.UniqueApproved {
				return reject(dtos.ReasonAlreadyApproved, constants.MsgAlreadyApproved)
			}
		case constants.StatusDenied:
			totalDenied++
			if lastDenied == nil || app.DecidedAt().After(lastDenied.DecidedAt()) {
				lastDenied = app
			}
		}
	}

	if lastDenied == nil {
		return dtos.EligibilityDecision{CanReapply: true, Message: constants.MsgEligible}
	}

	cooldownEnds := lastDenied.DecidedAt().Add(time.Duration(in.Type.CooldownDays) * day)
	if in.Now.Before(cooldownEnds) {
		days := daysUntil(in.Now, cooldownEnds)
		decision := reject(dtos.ReasonCooldown, fmt.Sprintf(constants.MsgCooldownActive, days))
		decision.CooldownEnds = &cooldownEnds
		decision.DaysRemaining = &days
		decision.TotalDenied = &totalDenied
		return decision
	}

	return dtos.EligibilityDecision{
		CanReapply:  true,
		Message:     constants.MsgEligibleAfterDeny,
		TotalDenied: &totalDenied,
	}
}

// daysUntil is the whole number of days left, rounded up and never negative.
func daysUntil(now, end time.Time) int {
	remaining := end.Sub(now)
	if remaining <= 0 {
		return 0
	}
	return int(math.Ceil(float64(remaining) / float64(day)))
}

// pendingGuard repeats the pending-duplicate rule against the collection as
// it is being written, so two concurrent submits cannot both pass.
func pendingGuard(userID string, appType entities.ApplicationType) func([]entities.Application) error {
	if appType.AllowMultiplePending {
		return nil
	}
	return func(active []entities.Application) error {
		for i := range active {
			if active[i].BelongsTo(userID, appType.ID) && active[i].IsPending() {
				return &EligibilityError{Decision: reject(dtos.ReasonPending, constants.MsgPendingDuplicate)}
			}
		}
		return nil
	}
}

func reject(reason, message string) dtos.EligibilityDecision {
	return dtos.EligibilityDecision{CanReapply: false, Reason: reason, Message: message}
}

// EligibilityError carries the decision that blocked a submission.
type EligibilityError struct {
	Decision dtos.EligibilityDecision
}

func (e *EligibilityError) Error() string { return e.Decision.Message }
func (e *EligibilityError) Unwrap() error { return constants.ErrNotEligible }

// EligibilityService loads the collections the decision needs.
type EligibilityService struct {
	apps      *repositories.ApplicationRepository
	types     *repositories.ApplicationTypeRepository
	bans      *repositories.BanListRepository
	blacklist *repositories.BanListRepository
	metrics   *metrics.MetricsRegistry
	now       func() time.Time
}

func NewEligibilityService(
	apps *repositories.ApplicationRepository,
	types *repositories.ApplicationTypeRepository,
	bans, blacklist *repositories.BanListRepository,
	m *metrics.MetricsRegistry,
	now func() time.Time,
) *EligibilityService {
	if now == nil {
		now = time.Now
	}
	return &EligibilityService{apps: apps, types: types, bans: bans, blacklist: blacklist, metrics: m, now: now}
}

// ResolveType returns the stored type, or the fallback configuration when
// typeID is unknown.
func (s *EligibilityService) ResolveType(ctx context.Context, typeID string) (entities.ApplicationType, bool, error) {
	t, err := s.types.Get(ctx, typeID)
	if errors.Is(err, constants.ErrNotFound) {
		return entities.FallbackApplicationType(typeID), false, nil
	}
	if err != nil {
		return entities.ApplicationType{}, false, err
	}
	return *t, true, nil
}

// Check decides whether userID may submit an application of typeID now.
func (s *EligibilityService) Check(ctx context.Context, userID, typeID string) (*dtos.EligibilityDecision, error) {
	if typeID == "" {
		typeID = constants.DefaultApplicationType
	}
	appType, _, err := s.ResolveType(ctx, typeID)
	if err != nil {
		return nil, err
	}
	return s.check(ctx, userID, appType)
}

func (s *EligibilityService) check(ctx context.Context, userID string, appType entities.ApplicationType) (*dtos.EligibilityDecision, error) {
	ban, err := s.bans.Find(ctx, userID)
	if err != nil {
		return nil, err
	}
	blacklisted, err := s.blacklist.Find(ctx, userID)
	if err != nil {
		return nil, err
	}
	active, err := s.apps.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	archived, err := s.apps.ListArchived(ctx)
	if err != nil {
		return nil, err
	}

	decision := EvaluateEligibility(EligibilityInput{
		UserID:    userID,
		Type:      appType,
		Active:    active,
		Archived:  archived,
		Ban:       ban,
		Blacklist: blacklisted,
		Now:       s.now(),
	})
	if !decision.CanReapply {
		s.metrics.EligibilityRejected(decision.Reason)
	}
	return &decision, nil
}
