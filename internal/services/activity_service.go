package services

import (
	"context"
	"time"

	"gatehouse/internal/common"
	"gatehouse/internal/constants"
	"gatehouse/internal/db/repositories"
	"gatehouse/internal/logging"
	"gatehouse/internal/models/entities"
)

const (
	defaultActivityLimit = 100
	maxActivityLimit     = 1000
)

// ActivityService writes audit entries to the activity log collection and
// to any mirror sinks (the SQL audit table when configured).
type ActivityService struct {
	log     *repositories.ActivityLogRepository
	mirrors []repositories.ActivitySink
	now     func() time.Time
}

func NewActivityService(log *repositories.ActivityLogRepository, now func() time.Time, mirrors ...repositories.ActivitySink) *ActivityService {
	if now == nil {
		now = time.Now
	}
	return &ActivityService{log: log, mirrors: mirrors, now: now}
}

// ActivityEvent is the caller-facing shape of an audit entry.
type ActivityEvent struct {
	Type       constants.ActivityType
	UserID     string
	UserName   string
	TargetID   string
	TargetName string
	Details    string
}

// Log appends the event. Only the collection write can fail the call;
// mirror failures are logged.
func (s *ActivityService) Log(ctx context.Context, ev ActivityEvent) error {
	entry := entities.ActivityLogEntry{
		Type:       ev.Type,
		UserID:     ev.UserID,
		UserName:   ev.UserName,
		TargetID:   common.Ptr(ev.TargetID),
		TargetName: common.Ptr(ev.TargetName),
		Details:    common.Ptr(ev.Details),
		Timestamp:  s.now(),
	}

	if err := s.log.Append(ctx, entry); err != nil {
		return err
	}
	for _, m := range s.mirrors {
		if err := m.Append(ctx, entry); err != nil {
			logging.Warn("Activity mirror append failed", "type", ev.Type, "error", err.Error())
		}
	}
	return nil
}

// Record is Log for callers that do not care about the outcome.
func (s *ActivityService) Record(ctx context.Context, ev ActivityEvent) {
	if err := s.Log(ctx, ev); err != nil {
		logging.Error("Activity log append failed", "type", ev.Type, "error", err.Error())
	}
}

// Recent returns the newest entries. limit is clamped to a sane range.
func (s *ActivityService) Recent(ctx context.Context, limit int) ([]entities.ActivityLogEntry, error) {
	if limit <= 0 {
		limit = defaultActivityLimit
	}
	if limit > maxActivityLimit {
		limit = maxActivityLimit
	}
	return s.log.Recent(ctx, limit)
}
