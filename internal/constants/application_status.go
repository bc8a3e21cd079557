package constants

// ApplicationStatus is the review state of an application.
// An empty status on a stored record means pending.
type ApplicationStatus string

const (
	StatusPending  ApplicationStatus = "pending"
	StatusApproved ApplicationStatus = "approved"
	StatusDenied   ApplicationStatus = "denied"
)

func (s ApplicationStatus) String() string { return string(s) }

// IsDecision reports whether s is a terminal review outcome.
func (s ApplicationStatus) IsDecision() bool {
	return s == StatusApproved || s == StatusDenied
}

// Priority is the triage tag on an application.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

var priorityRank = map[Priority]int{
	PriorityUrgent: 0,
	PriorityHigh:   1,
	PriorityNormal: 2,
	PriorityLow:    3,
}

func (p Priority) String() string { return string(p) }

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	_, ok := priorityRank[p]
	return ok
}

// Rank orders priorities for triage, urgent first. Unknown values sort with normal.
func (p Priority) Rank() int {
	if r, ok := priorityRank[p]; ok {
		return r
	}
	return priorityRank[PriorityNormal]
}

// FieldType is the input kind of an application form field.
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldTextarea FieldType = "textarea"
	FieldNumber   FieldType = "number"
	FieldSelect   FieldType = "select"
	FieldCheckbox FieldType = "checkbox"
)

// Valid reports whether f is a supported field type.
func (f FieldType) Valid() bool {
	switch f {
	case FieldText, FieldTextarea, FieldNumber, FieldSelect, FieldCheckbox:
		return true
	}
	return false
}

// DefaultApplicationType is assumed for records that predate application types.
const DefaultApplicationType = "whitelist"
