package constants

import "errors"

var (
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrNotFound          = errors.New("not found")
	ErrValidation        = errors.New("validation failed")
	ErrConflict          = errors.New("conflict")
	ErrNotEligible       = errors.New("not eligible")
	ErrCollectionMissing = errors.New("collection does not exist")
	ErrEmailDisabled     = errors.New("email delivery is not configured")
	ErrSessionNotFound   = errors.New("session not found")
	ErrSessionExpired    = errors.New("session expired")
)
