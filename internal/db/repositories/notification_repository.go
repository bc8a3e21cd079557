package repositories

import (
	"context"
	"fmt"

	"gatehouse/internal/constants"
	"gatehouse/internal/db"
	"gatehouse/internal/models/entities"
)

// NotificationRepository is the admin notification feed, capped at
// constants.MaxNotifications newest entries.
type NotificationRepository struct {
	cols *db.Collections
}

func NewNotificationRepository(cols *db.Collections) *NotificationRepository {
	return &NotificationRepository{cols: cols}
}

func (r *NotificationRepository) Append(ctx context.Context, n entities.Notification) error {
	return db.Mutate(ctx, r.cols, constants.CollectionNotifications, func(items []entities.Notification) ([]entities.Notification, error) {
		items = append(items, n)
		if over := len(items) - constants.MaxNotifications; over > 0 {
			items = items[over:]
		}
		return items, nil
	})
}

// List returns the feed newest first.
func (r *NotificationRepository) List(ctx context.Context, unreadOnly bool) ([]entities.Notification, error) {
	items, err := db.Read[entities.Notification](ctx, r.cols, constants.CollectionNotifications)
	if err != nil {
		return nil, err
	}
	out := make([]entities.Notification, 0, len(items))
	for i := len(items) - 1; i >= 0; i-- {
		if unreadOnly && items[i].Read {
			continue
		}
		out = append(out, items[i])
	}
	return out, nil
}

func (r *NotificationRepository) MarkRead(ctx context.Context, id string) error {
	return db.Mutate(ctx, r.cols, constants.CollectionNotifications, func(items []entities.Notification) ([]entities.Notification, error) {
		for i := range items {
			if items[i].ID == id {
				items[i].Read = true
				return items, nil
			}
		}
		return nil, fmt.Errorf("notification %s: %w", id, constants.ErrNotFound)
	})
}

// MarkAllRead returns how many notifications changed.
func (r *NotificationRepository) MarkAllRead(ctx context.Context) (int, error) {
	changed := 0
	err := db.Mutate(ctx, r.cols, constants.CollectionNotifications, func(items []entities.Notification) ([]entities.Notification, error) {
		changed = 0
		for i := range items {
			if !items[i].Read {
				items[i].Read = true
				changed++
			}
		}
		return items, nil
	})
	return changed, err
}
