package entities

import (
	"time"

	"gatehouse/internal/constants"
)

// ActivityLogEntry is an append-only audit record.
type ActivityLogEntry struct {
	Type       constants.ActivityType `json:"type" db:"type"`
	UserID     string                 `json:"userId" db:"user_id"`
	UserName   string                 `json:"userName" db:"user_name"`
	TargetID   *string                `json:"targetId,omitempty" db:"target_id"`
	TargetName *string                `json:"targetName,omitempty" db:"target_name"`
	Details    *string                `json:"details,omitempty" db:"details"`
	Timestamp  time.Time              `json:"timestamp" db:"created_at"`
}

// Notification is an entry in the admin-facing feed.
type Notification struct {
	ID            string                     `json:"id"`
	Type          constants.NotificationType `json:"type"`
	Title         string                     `json:"title"`
	Message       string                     `json:"message"`
	ApplicationID string                     `json:"applicationId,omitempty"`
	Read          bool                       `json:"read"`
	Timestamp     time.Time                  `json:"timestamp"`
}
