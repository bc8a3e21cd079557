package api

import (
	"net/http"
	"strings"
	"time"

	"gatehouse/internal/auth"
	"gatehouse/internal/common"
	"gatehouse/internal/logging"
	"gatehouse/internal/middleware"
)

// LoginHandler redirects the browser to Discord with a signed state token.
// @Summary Start Discord login
// @Tags Auth
// @Param return_to query string false "Local path to return to after login"
// @Success 302
// @Router /auth/login [get]
func LoginHandler(deps *Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		target, err := deps.Services.Auth.LoginURL(safeReturnTo(r.URL.Query().Get("return_to")))
		if err != nil {
			common.RespondError(w, initTime, err, "Failed to start login")
			return
		}
		http.Redirect(w, r, target, http.StatusFound)
	}
}

// CallbackHandler finishes the OAuth flow, sets the session cookie and sends
// the browser back to the frontend.
func CallbackHandler(deps *Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		q := r.URL.Query()

		if reason := q.Get("error"); reason != "" {
			common.RespondError(w, initTime, nil, "Discord login was cancelled: "+reason, http.StatusUnauthorized)
			return
		}

		session, returnTo, err := deps.Services.Auth.Callback(r.Context(), q.Get("code"), q.Get("state"))
		if err != nil {
			common.RespondDomainError(w, initTime, err, "Login failed")
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     middleware.SessionCookieName,
			Value:    session.SessionID,
			Path:     "/",
			Expires:  session.ExpiresAt,
			HttpOnly: true,
			Secure:   deps.Config.AppEnv == "production",
			SameSite: http.SameSiteLaxMode,
		})

		logging.Info("User logged in", "user_id", session.Identity.ID, "username", session.Identity.Username)
		http.Redirect(w, r, strings.TrimRight(deps.Config.FrontendURL, "/")+safeReturnTo(returnTo), http.StatusFound)
	}
}

func LogoutHandler(deps *Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		sessionID := auth.GetSessionID(r.Context())
		if sessionID == "" {
			sessionID = middleware.SessionIDFromRequest(r)
		}
		if err := deps.Services.Auth.Logout(r.Context(), sessionID); err != nil {
			logging.Warn("Session delete failed", "error", err.Error())
		}

		http.SetCookie(w, &http.Cookie{
			Name:     middleware.SessionCookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
		})
		common.RespondSuccess(w, initTime, "Logged out", nil)
	}
}

// MeHandler returns the caller's identity and access tier.
// @Summary Current user
// @Tags Auth
// @Success 200 {object} dtos.APIResponse{data=dtos.MeResponse}
// @Failure 401 {object} dtos.APIResponse
// @Router /api/v1/me [get]
func MeHandler(deps *Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		claims, err := claimsOrUnauthorized(r)
		if err != nil {
			common.RespondDomainError(w, initTime, err, "Unauthorized")
			return
		}
		common.RespondSuccess(w, initTime, "Fetched current user", deps.Services.Auth.Me(claims))
	}
}
