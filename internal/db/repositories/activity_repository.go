package repositories

import (
	"context"
	"sort"

	"gatehouse/internal/constants"
	"gatehouse/internal/db"
	"gatehouse/internal/models/entities"
)

// ActivitySink accepts audit entries. Implementations append only.
type ActivitySink interface {
	Append(ctx context.Context, entry entities.ActivityLogEntry) error
}

// ActivityLogRepository keeps the activity log as a collection.
type ActivityLogRepository struct {
	cols *db.Collections
}

var _ ActivitySink = (*ActivityLogRepository)(nil)

func NewActivityLogRepository(cols *db.Collections) *ActivityLogRepository {
	return &ActivityLogRepository{cols: cols}
}

func (r *ActivityLogRepository) Append(ctx context.Context, entry entities.ActivityLogEntry) error {
	return db.Mutate(ctx, r.cols, constants.CollectionActivityLog, func(entries []entities.ActivityLogEntry) ([]entities.ActivityLogEntry, error) {
		return append(entries, entry), nil
	})
}

// Recent returns up to limit entries, newest first.
func (r *ActivityLogRepository) Recent(ctx context.Context, limit int) ([]entities.ActivityLogEntry, error) {
	entries, err := db.Read[entities.ActivityLogEntry](ctx, r.cols, constants.CollectionActivityLog)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}
