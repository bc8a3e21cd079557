package entities

import (
	"encoding/json"
	"fmt"
	"strings"

	"gatehouse/internal/constants"
)

type FieldDefinition struct {
	ID       string              `json:"id"`
	Label    string              `json:"label"`
	Type     constants.FieldType `json:"type"`
	Required bool                `json:"required"`
	Options  []string            `json:"options,omitempty"`
}

// ApplicationType configures cooldown, uniqueness and the form of one
// category of application.
type ApplicationType struct {
	ID                   string            `json:"id"`
	Name                 string            `json:"name"`
	Description          string            `json:"description"`
	CooldownDays         int               `json:"cooldownDays"`
	AllowMultiplePending bool              `json:"allowMultiplePending"`
	UniqueApproved       bool              `json:"uniqueApproved"`
	Fields               []FieldDefinition `json:"fields"`
}

// UnmarshalJSON accepts the legacy requireUniqueApproval key.
func (t *ApplicationType) UnmarshalJSON(data []byte) error {
	type plain ApplicationType
	aux := struct {
		*plain
		RequireUniqueApproval *bool `json:"requireUniqueApproval"`
	}{plain: (*plain)(t)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.RequireUniqueApproval != nil && *aux.RequireUniqueApproval {
		t.UniqueApproved = true
	}
	return nil
}

// FallbackApplicationType is the configuration used for unknown type ids.
func FallbackApplicationType(id string) ApplicationType {
	return ApplicationType{
		ID:                   id,
		Name:                 id,
		CooldownDays:         0,
		AllowMultiplePending: false,
		UniqueApproved:       false,
	}
}

// Validate checks a full type definition before it is stored.
func (t *ApplicationType) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return fmt.Errorf("%w: id is required", constants.ErrValidation)
	}
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("%w: name is required", constants.ErrValidation)
	}
	if t.CooldownDays < 0 {
		return fmt.Errorf("%w: cooldownDays must be >= 0", constants.ErrValidation)
	}
	return validateFields(t.Fields)
}

// FieldByID returns the field definition with the given id.
func (t *ApplicationType) FieldByID(id string) (FieldDefinition, bool) {
	for _, f := range t.Fields {
		if f.ID == id {
			return f, true
		}
	}
	return FieldDefinition{}, false
}

func validateFields(fields []FieldDefinition) error {
	seen := make(map[string]struct{}, len(fields))
	for i, f := range fields {
		if f.ID == "" {
			return fmt.Errorf("%w: field %d has no id", constants.ErrValidation, i)
		}
		if _, dup := seen[f.ID]; dup {
			return fmt.Errorf("%w: duplicate field id %q", constants.ErrValidation, f.ID)
		}
		seen[f.ID] = struct{}{}
		if !f.Type.Valid() {
			return fmt.Errorf("%w: field %q has unsupported type %q", constants.ErrValidation, f.ID, f.Type)
		}
		if f.Type == constants.FieldSelect && len(f.Options) == 0 {
			return fmt.Errorf("%w: select field %q needs options", constants.ErrValidation, f.ID)
		}
	}
	return nil
}

// ApplicationTypePatch names the fields an update may override. Nil leaves
// the stored value unchanged.
type ApplicationTypePatch struct {
	Name                 *string            `json:"name,omitempty"`
	Description          *string            `json:"description,omitempty"`
	CooldownDays         *int               `json:"cooldownDays,omitempty"`
	AllowMultiplePending *bool              `json:"allowMultiplePending,omitempty"`
	UniqueApproved       *bool              `json:"uniqueApproved,omitempty"`
	Fields               *[]FieldDefinition `json:"fields,omitempty"`
}

func (p *ApplicationTypePatch) Validate() error {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return fmt.Errorf("%w: name cannot be empty", constants.ErrValidation)
	}
	if p.CooldownDays != nil && *p.CooldownDays < 0 {
		return fmt.Errorf("%w: cooldownDays must be >= 0", constants.ErrValidation)
	}
	if p.Fields != nil {
		return validateFields(*p.Fields)
	}
	return nil
}

// Apply merges the provided fields into t.
func (p *ApplicationTypePatch) Apply(t *ApplicationType) {
	if p.Name != nil {
		t.Name = *p.Name
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.CooldownDays != nil {
		t.CooldownDays = *p.CooldownDays
	}
	if p.AllowMultiplePending != nil {
		t.AllowMultiplePending = *p.AllowMultiplePending
	}
	if p.UniqueApproved != nil {
		t.UniqueApproved = *p.UniqueApproved
	}
	if p.Fields != nil {
		t.Fields = *p.Fields
	}
}
