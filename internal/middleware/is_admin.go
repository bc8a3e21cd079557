package middleware

import (
	"net/http"

	"gatehouse/internal/constants"
)

func IsAdminMiddleware() func(http.Handler) http.Handler {
	return requireAccess(constants.AccessAdmin)
}
