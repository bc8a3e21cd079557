package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gatehouse/internal/constants"
	"gatehouse/internal/db/repositories"
	"gatehouse/internal/models/dtos"
	"gatehouse/internal/models/entities"
)

// ModerationService manages one keyed list: bans or the blacklist.
type ModerationService struct {
	list     *repositories.BanListRepository
	added    constants.ActivityType
	removed  constants.ActivityType
	activity *ActivityService
	now      func() time.Time
}

func NewBanService(list *repositories.BanListRepository, activity *ActivityService, now func() time.Time) *ModerationService {
	return newModerationService(list, constants.ActivityBanAdded, constants.ActivityBanRemoved, activity, now)
}

func NewBlacklistService(list *repositories.BanListRepository, activity *ActivityService, now func() time.Time) *ModerationService {
	return newModerationService(list, constants.ActivityBlacklistAdded, constants.ActivityBlacklistRemoved, activity, now)
}

func newModerationService(
	list *repositories.BanListRepository,
	added, removed constants.ActivityType,
	activity *ActivityService,
	now func() time.Time,
) *ModerationService {
	if now == nil {
		now = time.Now
	}
	return &ModerationService{list: list, added: added, removed: removed, activity: activity, now: now}
}

func (s *ModerationService) List(ctx context.Context) ([]entities.BanEntry, error) {
	return s.list.List(ctx)
}

// Add records an entry, replacing any previous one for the same user.
func (s *ModerationService) Add(ctx context.Context, req dtos.BanReq, actor entities.Reviewer) (*entities.BanEntry, error) {
	discordID := strings.TrimSpace(req.DiscordID)
	if discordID == "" {
		return nil, fmt.Errorf("%w: discordId is required", constants.ErrValidation)
	}
	now := s.now()
	if req.Expires != nil && !req.Expires.After(now) {
		return nil, fmt.Errorf("%w: expires must be in the future", constants.ErrValidation)
	}

	entry := entities.BanEntry{
		DiscordID: discordID,
		Reason:    strings.TrimSpace(req.Reason),
		Admin:     actor.Username,
		Date:      now,
		Expires:   req.Expires,
	}
	if err := s.list.Upsert(ctx, entry); err != nil {
		return nil, err
	}

	s.activity.Record(ctx, ActivityEvent{
		Type:     s.added,
		UserID:   actor.ID,
		UserName: actor.Username,
		TargetID: discordID,
		Details:  entry.Reason,
	})
	return &entry, nil
}

func (s *ModerationService) Remove(ctx context.Context, discordID string, actor entities.Reviewer) error {
	if err := s.list.Remove(ctx, discordID); err != nil {
		return err
	}

	s.activity.Record(ctx, ActivityEvent{
		Type:     s.removed,
		UserID:   actor.ID,
		UserName: actor.Username,
		TargetID: discordID,
	})
	return nil
}
