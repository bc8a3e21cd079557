package middleware

import (
	"net/http"
	"time"

	"gatehouse/internal/auth"
	"gatehouse/internal/common"
	"gatehouse/internal/constants"
)

func IsStaffMiddleware() func(http.Handler) http.Handler {
	return requireAccess(constants.AccessStaff)
}

func requireAccess(min constants.AccessLevel) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := auth.GetUserClaims(r.Context())
			if claims == nil {
				common.RespondError(w, time.Now(), nil, "Unauthorized. Please log in", http.StatusUnauthorized)
				return
			}
			if !claims.Access().AtLeast(min) {
				common.RespondPermissionDenied(w, min.String())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
