package dtos

import (
	"time"

	"gatehouse/internal/constants"
	"gatehouse/internal/models/entities"
)

type APIResponse struct {
	Status       string `json:"status"`
	Message      string `json:"message"`
	ResponseTime string `json:"response_time"`
	Data         any    `json:"data,omitempty"`
}

// EligibilityDecision explains whether a user may submit an application.
type EligibilityDecision struct {
	CanReapply    bool       `json:"canReapply"`
	Message       string     `json:"message"`
	Reason        string     `json:"reason,omitempty"`
	CooldownEnds  *time.Time `json:"cooldownEnds,omitempty"`
	DaysRemaining *int       `json:"daysRemaining,omitempty"`
	TotalDenied   *int       `json:"totalDenied,omitempty"`
}

// Rejection reasons carried in EligibilityDecision.Reason.
const (
	ReasonBanned          = "banned"
	ReasonBlacklisted     = "blacklisted"
	ReasonPending         = "pending"
	ReasonAlreadyApproved = "already_approved"
	ReasonCooldown        = "cooldown"
)

// EffectOutcome reports how one post-commit effect went.
type EffectOutcome struct {
	Name    string `json:"name"`
	OK      bool   `json:"ok"`
	Skipped bool   `json:"skipped,omitempty"`
	Queued  bool   `json:"queued,omitempty"`
	Error   string `json:"error,omitempty"`
}

type ReviewResult struct {
	Application *entities.Application `json:"application"`
	DMSent      bool                  `json:"dmSent"`
	EmailSent   bool                  `json:"emailSent"`
	Effects     []EffectOutcome       `json:"effects"`
}

type SubmitResult struct {
	Application *entities.Application `json:"application"`
	Effects     []EffectOutcome       `json:"effects"`
}

type BulkResult struct {
	Action   BulkAction `json:"action"`
	Updated  int        `json:"updated"`
	NotFound []string   `json:"notFound,omitempty"`
}

type MyApplicationsResponse struct {
	Active   []entities.Application `json:"active"`
	Archived []entities.Application `json:"archived"`
}

type ApplicationStats struct {
	Pending    int            `json:"pending"`
	Approved   int            `json:"approved"`
	Denied     int            `json:"denied"`
	ByType     map[string]int `json:"byType"`
	ByPriority map[string]int `json:"byPriority"`
	Unassigned int            `json:"unassigned"`
}

type MeResponse struct {
	Identity entities.DiscordIdentity `json:"identity"`
	Roles    []string                 `json:"roles"`
	Access   constants.AccessLevel    `json:"access"`
	IsStaff  bool                     `json:"isStaff"`
	IsAdmin  bool                     `json:"isAdmin"`
}
