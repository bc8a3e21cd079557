package services

import (
	"context"
	"errors"
	"fmt"

	"gatehouse/internal/auth"
	"gatehouse/internal/common"
	"gatehouse/internal/constants"
	"gatehouse/internal/logging"
	"gatehouse/internal/models/dtos"
	"gatehouse/internal/providers"
)

// AuthService runs Discord login and turns sessions into request claims.
type AuthService struct {
	oauth      providers.OAuthExchanger
	identity   providers.IdentityFetcher
	roles      providers.RoleResolver
	sessions   common.SessionStore
	state      *common.StateSigner
	activity   *ActivityService
	staffRoles common.RoleSet
	adminRoles common.RoleSet
}

func NewAuthService(
	oauth providers.OAuthExchanger,
	identity providers.IdentityFetcher,
	roles providers.RoleResolver,
	sessions common.SessionStore,
	state *common.StateSigner,
	activity *ActivityService,
	staffRoleIDs, adminRoleIDs []string,
) *AuthService {
	return &AuthService{
		oauth:      oauth,
		identity:   identity,
		roles:      roles,
		sessions:   sessions,
		state:      state,
		activity:   activity,
		staffRoles: common.NewRoleSet(staffRoleIDs),
		adminRoles: common.NewRoleSet(adminRoleIDs),
	}
}

// AccessFor maps guild roles to a permission tier. Admins are also staff.
func (s *AuthService) AccessFor(roles []string) constants.AccessLevel {
	switch {
	case s.adminRoles.Intersects(roles):
		return constants.AccessAdmin
	case s.staffRoles.Intersects(roles):
		return constants.AccessStaff
	default:
		return constants.AccessMember
	}
}

// LoginURL returns the Discord authorize URL carrying a fresh state token.
func (s *AuthService) LoginURL(returnTo string) (string, error) {
	state, err := s.state.Issue(returnTo)
	if err != nil {
		return "", err
	}
	return s.oauth.LoginURL(state), nil
}

// Callback completes the login and opens a session. It returns the session
// and where to send the browser next.
func (s *AuthService) Callback(ctx context.Context, code, state string) (*common.SessionData, string, error) {
	returnTo, err := s.state.Consume(state)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", constants.ErrUnauthorized, err)
	}
	if code == "" {
		return nil, "", fmt.Errorf("%w: missing code", constants.ErrValidation)
	}

	token, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		var perr *providers.ProviderError
		if errors.As(err, &perr) && perr.Code == providers.ErrCodeUnauthorized {
			return nil, "", fmt.Errorf("%w: %v", constants.ErrUnauthorized, err)
		}
		return nil, "", err
	}

	identity, err := s.identity.FetchIdentity(ctx, token.AccessToken)
	if err != nil {
		return nil, "", err
	}

	var roles []string
	if s.roles != nil {
		if roles, err = s.roles.MemberRoles(ctx, identity.ID); err != nil {
			logging.Warn("Role lookup failed at login", "user_id", identity.ID, "error", err.Error())
			roles = nil
		}
	}

	session, err := s.sessions.CreateSession(ctx, *identity, roles)
	if err != nil {
		return nil, "", err
	}

	s.activity.Record(ctx, ActivityEvent{
		Type:     constants.ActivityLogin,
		UserID:   identity.ID,
		UserName: identity.Username,
		Details:  "access " + s.AccessFor(roles).String(),
	})
	return session, returnTo, nil
}

// Authenticate loads a session and builds the claims for a request.
func (s *AuthService) Authenticate(ctx context.Context, sessionID string) (*auth.SessionClaims, error) {
	if sessionID == "" {
		return nil, constants.ErrUnauthorized
	}
	session, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, constants.ErrSessionNotFound) || errors.Is(err, constants.ErrSessionExpired) {
			return nil, fmt.Errorf("%w: %v", constants.ErrUnauthorized, err)
		}
		return nil, err
	}
	return &auth.SessionClaims{
		SessionID:   session.SessionID,
		IdentityVal: session.Identity,
		RoleIDs:     session.Roles,
		AccessVal:   s.AccessFor(session.Roles),
	}, nil
}

func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return s.sessions.DeleteSession(ctx, sessionID)
}

// Me describes the caller for the UI.
func (s *AuthService) Me(claims auth.UserClaims) *dtos.MeResponse {
	access := claims.Access()
	return &dtos.MeResponse{
		Identity: claims.Identity(),
		Roles:    claims.Roles(),
		Access:   access,
		IsStaff:  access.AtLeast(constants.AccessStaff),
		IsAdmin:  access.AtLeast(constants.AccessAdmin),
	}
}
