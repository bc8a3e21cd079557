package entities

import (
	"time"

	"gatehouse/internal/constants"
)

// DiscordIdentity is the submitter snapshot taken at submission time.
type DiscordIdentity struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	Discriminator string `json:"discriminator,omitempty"`
	Avatar        string `json:"avatar,omitempty"`
	Email         string `json:"email,omitempty"`

	Extra Extra `json:"-"`
}

type discordIdentityFields DiscordIdentity

func (d *DiscordIdentity) UnmarshalJSON(data []byte) error {
	var fields discordIdentityFields
	extra, err := decodeWithExtra(data, &fields)
	if err != nil {
		return err
	}
	*d = DiscordIdentity(fields)
	d.Extra = extra
	return nil
}

func (d DiscordIdentity) MarshalJSON() ([]byte, error) {
	return encodeWithExtra(discordIdentityFields(d), d.Extra)
}

// Reviewer identifies the staff member who decided an application.
type Reviewer struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Note is a staff comment on an application. Notes are append-only.
type Note struct {
	ID         string    `json:"id"`
	AuthorID   string    `json:"authorId"`
	AuthorName string    `json:"authorName"`
	Content    string    `json:"content"`
	Timestamp  time.Time `json:"timestamp"`
}

// Application is a submitted request. It lives in exactly one of the active
// or archived collections.
type Application struct {
	ID              string                      `json:"id"`
	Timestamp       time.Time                   `json:"timestamp"`
	Discord         DiscordIdentity             `json:"discord"`
	ApplicationType string                      `json:"applicationType,omitempty"`
	Status          constants.ApplicationStatus `json:"status,omitempty"`
	Priority        constants.Priority          `json:"priority,omitempty"`
	Answers         map[string]any              `json:"answers,omitempty"`
	Notes           []Note                      `json:"notes,omitempty"`
	AssignedTo      string                      `json:"assignedTo,omitempty"`
	StatusReason    string                      `json:"statusReason,omitempty"`
	Reviewer        *Reviewer                   `json:"reviewer,omitempty"`
	ReviewedAt      *time.Time                  `json:"reviewedAt,omitempty"`
	UpdatedAt       *time.Time                  `json:"updatedAt,omitempty"`
	ArchivedAt      *time.Time                  `json:"archivedAt,omitempty"`

	// Extra keeps keys such as form answers that legacy records stored at
	// the top level.
	Extra Extra `json:"-"`
}

type applicationFields Application

func (a *Application) UnmarshalJSON(data []byte) error {
	var fields applicationFields
	extra, err := decodeWithExtra(data, &fields)
	if err != nil {
		return err
	}
	*a = Application(fields)
	a.Extra = extra
	return nil
}

func (a Application) MarshalJSON() ([]byte, error) {
	return encodeWithExtra(applicationFields(a), a.Extra)
}

// EffectiveStatus treats a missing status as pending.
func (a *Application) EffectiveStatus() constants.ApplicationStatus {
	if a.Status == "" {
		return constants.StatusPending
	}
	return a.Status
}

// EffectiveType falls back to whitelist for legacy records.
func (a *Application) EffectiveType() string {
	if a.ApplicationType == "" {
		return constants.DefaultApplicationType
	}
	return a.ApplicationType
}

func (a *Application) EffectivePriority() constants.Priority {
	if a.Priority == "" {
		return constants.PriorityNormal
	}
	return a.Priority
}

// DecidedAt is the instant used for cooldowns: updatedAt, else timestamp.
func (a *Application) DecidedAt() time.Time {
	if a.UpdatedAt != nil && !a.UpdatedAt.IsZero() {
		return *a.UpdatedAt
	}
	return a.Timestamp
}

func (a *Application) IsPending() bool {
	return a.EffectiveStatus() == constants.StatusPending
}

// BelongsTo reports whether the application was submitted by userID for typeID.
func (a *Application) BelongsTo(userID, typeID string) bool {
	return a.Discord.ID == userID && a.EffectiveType() == typeID
}
