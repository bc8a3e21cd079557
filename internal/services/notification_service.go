package services

import (
	"context"
	"time"

	"gatehouse/internal/constants"
	"gatehouse/internal/db/repositories"
	"gatehouse/internal/models/entities"

	"github.com/google/uuid"
)

// NotificationService feeds the admin notification list.
type NotificationService struct {
	repo *repositories.NotificationRepository
	now  func() time.Time
}

func NewNotificationService(repo *repositories.NotificationRepository, now func() time.Time) *NotificationService {
	if now == nil {
		now = time.Now
	}
	return &NotificationService{repo: repo, now: now}
}

func (s *NotificationService) Notify(ctx context.Context, kind constants.NotificationType, title, message, applicationID string) error {
	return s.repo.Append(ctx, entities.Notification{
		ID:            uuid.New().String(),
		Type:          kind,
		Title:         title,
		Message:       message,
		ApplicationID: applicationID,
		Timestamp:     s.now(),
	})
}

func (s *NotificationService) List(ctx context.Context, unreadOnly bool) ([]entities.Notification, error) {
	return s.repo.List(ctx, unreadOnly)
}

func (s *NotificationService) MarkRead(ctx context.Context, id string) error {
	return s.repo.MarkRead(ctx, id)
}

func (s *NotificationService) MarkAllRead(ctx context.Context) (int, error) {
	return s.repo.MarkAllRead(ctx)
}
