package services

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"gatehouse/internal/common"
	"gatehouse/internal/constants"
	"gatehouse/internal/models/entities"
	"gatehouse/internal/providers"
)

type mockOAuth struct {
	exchangeFunc func(ctx context.Context, code string) (*providers.OAuthToken, error)
}

func (m *mockOAuth) LoginURL(state string) string {
	return "https://discord.test/authorize?state=" + url.QueryEscape(state)
}

func (m *mockOAuth) Exchange(ctx context.Context, code string) (*providers.OAuthToken, error) {
	return m.exchangeFunc(ctx, code)
}

type mockIdentity struct {
	fetchFunc func(ctx context.Context, token string) (*entities.DiscordIdentity, error)
}

func (m *mockIdentity) FetchIdentity(ctx context.Context, token string) (*entities.DiscordIdentity, error) {
	return m.fetchFunc(ctx, token)
}

func newTestAuth(t *testing.T, oauth providers.OAuthExchanger, roles providers.RoleResolver) (*AuthService, *common.StateSigner) {
	t.Helper()
	env := newTestEnv(t, time.Now(), envOptions{})
	cache := common.NewCacheService(time.Minute, time.Minute)
	t.Cleanup(cache.Flush)

	signer := common.NewStateSigner([]byte("test-secret"), cache, time.Minute)
	identity := &mockIdentity{fetchFunc: func(ctx context.Context, token string) (*entities.DiscordIdentity, error) {
		return &entities.DiscordIdentity{ID: "55", Username: "staffer"}, nil
	}}
	svc := NewAuthService(oauth, identity, roles, common.NewMemorySessionStore(cache, time.Hour), signer, env.activity,
		[]string{"staff-role"}, []string{"admin-role"})
	return svc, signer
}

func okOAuth() *mockOAuth {
	return &mockOAuth{exchangeFunc: func(ctx context.Context, code string) (*providers.OAuthToken, error) {
		return &providers.OAuthToken{AccessToken: "tok"}, nil
	}}
}

func TestAccessFor(t *testing.T) {
	svc, _ := newTestAuth(t, okOAuth(), nil)

	cases := map[string]struct {
		roles []string
		want  constants.AccessLevel
	}{
		"none":  {nil, constants.AccessMember},
		"staff": {[]string{"staff-role"}, constants.AccessStaff},
		"admin": {[]string{"x", "admin-role"}, constants.AccessAdmin},
	}
	for name, tc := range cases {
		if got := svc.AccessFor(tc.roles); got != tc.want {
			t.Errorf("%s: expected %s, got %s", name, tc.want, got)
		}
	}
}

func TestCallback_CreatesSessionWithRoles(t *testing.T) {
	roles := &mockRoleResolver{memberRolesFunc: func(ctx context.Context, userID string) ([]string, error) {
		return []string{"staff-role"}, nil
	}}
	svc, signer := newTestAuth(t, okOAuth(), roles)
	ctx := context.Background()

	state, err := signer.Issue("/admin")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	session, returnTo, err := svc.Callback(ctx, "code", state)
	if err != nil {
		t.Fatalf("Callback failed: %v", err)
	}
	if returnTo != "/admin" {
		t.Errorf("Expected /admin, got %s", returnTo)
	}

	claims, err := svc.Authenticate(ctx, session.SessionID)
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if claims.Access() != constants.AccessStaff || claims.UserID() != "55" {
		t.Errorf("Expected staff 55, got %s %s", claims.Access(), claims.UserID())
	}

	if _, _, err := svc.Callback(ctx, "code", state); !errors.Is(err, constants.ErrUnauthorized) {
		t.Errorf("Expected reused state to be rejected, got %v", err)
	}
}

func TestCallback_RoleFailureStillLogsIn(t *testing.T) {
	roles := &mockRoleResolver{memberRolesFunc: func(ctx context.Context, userID string) ([]string, error) {
		return nil, errors.New("not in guild")
	}}
	svc, signer := newTestAuth(t, okOAuth(), roles)
	state, _ := signer.Issue("/")

	session, _, err := svc.Callback(context.Background(), "code", state)
	if err != nil {
		t.Fatalf("Callback failed: %v", err)
	}
	if len(session.Roles) != 0 {
		t.Errorf("Expected no roles, got %v", session.Roles)
	}
}

func TestCallback_RejectedCodeIsUnauthorized(t *testing.T) {
	oauth := &mockOAuth{exchangeFunc: func(ctx context.Context, code string) (*providers.OAuthToken, error) {
		return nil, &providers.ProviderError{Code: providers.ErrCodeUnauthorized, Message: "invalid_grant"}
	}}
	svc, signer := newTestAuth(t, oauth, nil)
	state, _ := signer.Issue("/")

	_, _, err := svc.Callback(context.Background(), "bad", state)
	if !errors.Is(err, constants.ErrUnauthorized) {
		t.Errorf("Expected unauthorized, got %v", err)
	}
}

func TestAuthenticate_UnknownSession(t *testing.T) {
	svc, _ := newTestAuth(t, okOAuth(), nil)

	if _, err := svc.Authenticate(context.Background(), "nope"); !errors.Is(err, constants.ErrUnauthorized) {
		t.Errorf("Expected unauthorized, got %v", err)
	}
}

func TestLogout_DeletesSession(t *testing.T) {
	svc, signer := newTestAuth(t, okOAuth(), nil)
	ctx := context.Background()
	state, _ := signer.Issue("/")
	session, _, err := svc.Callback(ctx, "code", state)
	if err != nil {
		t.Fatalf("Callback failed: %v", err)
	}

	if err := svc.Logout(ctx, session.SessionID); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if _, err := svc.Authenticate(ctx, session.SessionID); !errors.Is(err, constants.ErrUnauthorized) {
		t.Errorf("Expected session gone, got %v", err)
	}
}
