package auth

import (
	"gatehouse/internal/constants"
	"gatehouse/internal/models/entities"
)

// UserClaims is what handlers know about the caller.
type UserClaims interface {
	UserID() string
	Username() string
	Roles() []string
	Access() constants.AccessLevel
	Identity() entities.DiscordIdentity
	Source() string
}

// SessionClaims are built from a stored session on every request.
type SessionClaims struct {
	SessionID   string
	IdentityVal entities.DiscordIdentity
	RoleIDs     []string
	AccessVal   constants.AccessLevel
}

func (c *SessionClaims) UserID() string                     { return c.IdentityVal.ID }
func (c *SessionClaims) Username() string                   { return c.IdentityVal.Username }
func (c *SessionClaims) Roles() []string                    { return c.RoleIDs }
func (c *SessionClaims) Access() constants.AccessLevel      { return c.AccessVal }
func (c *SessionClaims) Identity() entities.DiscordIdentity { return c.IdentityVal }
func (c *SessionClaims) Source() string                     { return "SESSION" }

// Reviewer returns the caller as the reviewer stamp on a decision.
func Reviewer(c UserClaims) entities.Reviewer {
	return entities.Reviewer{ID: c.UserID(), Username: c.Username()}
}
