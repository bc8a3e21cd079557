package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"gatehouse/internal/auth"
	"gatehouse/internal/constants"
)

const maxBodyBytes = 1 << 20

// decodeBody reads a JSON request body into dst, rejecting unknown shapes
// with a validation error.
func decodeBody(r *http.Request, dst any) error {
	body := http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	defer body.Close()

	if err := json.NewDecoder(body).Decode(dst); err != nil {
		if err == io.EOF {
			return fmt.Errorf("%w: request body is empty", constants.ErrValidation)
		}
		return fmt.Errorf("%w: invalid request body", constants.ErrValidation)
	}
	return nil
}

// queryInt reads a positive integer query parameter, returning def when it
// is absent or malformed.
func queryInt(r *http.Request, key string, def int) int {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// safeReturnTo only lets a login bounce back to a local path.
func safeReturnTo(raw string) string {
	if !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.Contains(raw, "\\") {
		return "/"
	}
	return raw
}

func claimsOrUnauthorized(r *http.Request) (auth.UserClaims, error) {
	claims := auth.GetUserClaims(r.Context())
	if claims == nil {
		return nil, constants.ErrUnauthorized
	}
	return claims, nil
}
