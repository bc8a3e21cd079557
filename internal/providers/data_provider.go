package providers

import (
	"context"
	"fmt"

	"gatehouse/internal/constants"
	"gatehouse/internal/models/entities"
)

// RoleResolver returns the guild role ids currently held by a Discord user.
type RoleResolver interface {
	MemberRoles(ctx context.Context, userID string) ([]string, error)
}

// DirectMessenger delivers a decision notice to an applicant.
type DirectMessenger interface {
	SendDecision(ctx context.Context, userID string, msg DecisionMessage) error
}

// Mailer sends a plain text email.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// IdentityFetcher resolves an OAuth access token to the Discord user.
type IdentityFetcher interface {
	FetchIdentity(ctx context.Context, accessToken string) (*entities.DiscordIdentity, error)
}

// DecisionMessage is the content of a decision DM or email.
type DecisionMessage struct {
	ApplicationID string
	TypeName      string
	Status        constants.ApplicationStatus
	Reason        string
	ServerName    string
}

// Provider error codes
const (
	ErrCodeNetwork       = "NETWORK_ERROR"
	ErrCodeUpstream      = "UPSTREAM_ERROR"
	ErrCodeUnauthorized  = "UNAUTHORIZED"
	ErrCodeNotConfigured = "NOT_CONFIGURED"
	ErrCodeBadResponse   = "BAD_RESPONSE"
)

// ProviderError represents a provider-specific error
type ProviderError struct {
	Code    string
	Message string
	Details string
	Err     error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// OAuthExchanger runs the Discord authorization code flow.
type OAuthExchanger interface {
	LoginURL(state string) string
	Exchange(ctx context.Context, code string) (*OAuthToken, error)
}
