package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"gatehouse/internal/auth"
	"gatehouse/internal/common"
)

// SessionCookieName is the cookie holding the session id.
const SessionCookieName = "gatehouse_session"

// Authenticator resolves a session id to request claims.
type Authenticator interface {
	Authenticate(ctx context.Context, sessionID string) (*auth.SessionClaims, error)
}

// SessionIDFromRequest reads the session cookie, falling back to an
// Authorization: Bearer header for API clients.
func SessionIDFromRequest(r *http.Request) string {
	if c, err := r.Cookie(SessionCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}

func AuthMiddleware(authenticator Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			initTime := time.Now()

			sessionID := SessionIDFromRequest(r)
			if sessionID == "" {
				common.RespondError(w, initTime, nil, "Unauthorized. Please log in", http.StatusUnauthorized)
				return
			}

			claims, err := authenticator.Authenticate(r.Context(), sessionID)
			if err != nil {
				common.RespondDomainError(w, initTime, err, "Unauthorized. Invalid session")
				return
			}

			ctx := auth.SetUserClaims(r.Context(), claims)
			ctx = auth.SetSessionID(ctx, sessionID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
