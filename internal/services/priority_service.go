package services

import (
	"context"

	"gatehouse/internal/common"
	"gatehouse/internal/constants"
	"gatehouse/internal/logging"
	"gatehouse/internal/providers"
)

// PriorityClassifier picks the submission priority from the submitter's
// guild roles. Only normal and high are ever assigned here.
type PriorityClassifier struct {
	roles         providers.RoleResolver
	priorityRoles common.RoleSet
}

func NewPriorityClassifier(roles providers.RoleResolver, priorityRoleIDs []string) *PriorityClassifier {
	return &PriorityClassifier{roles: roles, priorityRoles: common.NewRoleSet(priorityRoleIDs)}
}

// ClassifyRoles returns high when roles hits the priority set.
func ClassifyRoles(roles []string, priorityRoles common.RoleSet) constants.Priority {
	if priorityRoles.Intersects(roles) {
		return constants.PriorityHigh
	}
	return constants.PriorityNormal
}

// Classify looks up the user's roles. A lookup failure yields normal.
func (c *PriorityClassifier) Classify(ctx context.Context, userID string) constants.Priority {
	if c.priorityRoles.Empty() || c.roles == nil {
		return constants.PriorityNormal
	}
	roles, err := c.roles.MemberRoles(ctx, userID)
	if err != nil {
		logging.Warn("Role lookup failed, using normal priority", "user_id", userID, "error", err.Error())
		return constants.PriorityNormal
	}
	return ClassifyRoles(roles, c.priorityRoles)
}
