package dtos

import (
	"time"

	"gatehouse/internal/constants"
)

type SubmitApplicationReq struct {
	ApplicationType string         `json:"applicationType"`
	Answers         map[string]any `json:"answers"`
}

type ReviewApplicationReq struct {
	Status constants.ApplicationStatus `json:"status"`
	Reason string                      `json:"reason"`
}

type AddNoteReq struct {
	Content string `json:"content"`
}

type SetPriorityReq struct {
	Priority constants.Priority `json:"priority"`
}

type AssignReq struct {
	AssignedTo string `json:"assignedTo"`
}

// BulkAction names what a bulk request does to every selected application.
type BulkAction string

const (
	BulkAssign   BulkAction = "assign"
	BulkPriority BulkAction = "priority"
	BulkArchive  BulkAction = "archive"
)

type BulkActionReq struct {
	IDs        []string           `json:"ids"`
	Action     BulkAction         `json:"action"`
	AssignedTo string             `json:"assignedTo,omitempty"`
	Priority   constants.Priority `json:"priority,omitempty"`
}

type BanReq struct {
	DiscordID string     `json:"discordId"`
	Reason    string     `json:"reason"`
	Expires   *time.Time `json:"expires,omitempty"`
}

// ApplicationFilter narrows the staff listing of active applications.
type ApplicationFilter struct {
	Status     constants.ApplicationStatus
	Type       string
	AssignedTo string
}
