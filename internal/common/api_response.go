package common

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"gatehouse/internal/constants"
	"gatehouse/internal/logging"
	"gatehouse/internal/models/dtos"
)

// RespondSuccess sends a standardized JSON success response.
func RespondSuccess(w http.ResponseWriter, initTime time.Time, message string, data any, statusCode ...int) {
	code := http.StatusOK
	if len(statusCode) > 0 {
		code = statusCode[0]
	}

	response := dtos.APIResponse{
		Status:       string(constants.APIStatusOk),
		Message:      message,
		ResponseTime: GetResponseTime(initTime),
		Data:         data,
	}

	writeJSON(w, code, response)
}

// RespondError sends a standardized JSON error response.
func RespondError(w http.ResponseWriter, initTime time.Time, err error, message string, statusCode ...int) {
	code := http.StatusInternalServerError
	if len(statusCode) > 0 {
		code = statusCode[0]
	}

	msg := message
	if err != nil && err.Error() != "" && code < http.StatusInternalServerError {
		msg = err.Error()
	}

	response := dtos.APIResponse{
		Status:       string(constants.APIStatusError),
		Message:      msg,
		ResponseTime: GetResponseTime(initTime),
	}

	writeJSON(w, code, response)
}

// RespondErrorData sends an error response that still carries a payload,
// such as the eligibility decision behind a rejected submission.
func RespondErrorData(w http.ResponseWriter, initTime time.Time, message string, data any, statusCode int) {
	writeJSON(w, statusCode, dtos.APIResponse{
		Status:       string(constants.APIStatusError),
		Message:      message,
		ResponseTime: GetResponseTime(initTime),
		Data:         data,
	})
}

// RespondDomainError maps a service error onto its HTTP status.
func RespondDomainError(w http.ResponseWriter, initTime time.Time, err error, fallback string) {
	code := StatusForError(err)
	if code >= http.StatusInternalServerError {
		logging.Error(fallback, "error", err.Error())
	}
	RespondError(w, initTime, err, fallback, code)
}

// RespondPermissionDenied answers requests that lack the named access tier.
func RespondPermissionDenied(w http.ResponseWriter, required string) {
	RespondError(w, time.Now(), nil, "Permission denied: requires "+required, http.StatusForbidden)
}

// StatusForError picks the HTTP status for the error taxonomy in constants.
func StatusForError(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, constants.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, constants.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, constants.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, constants.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, constants.ErrConflict), errors.Is(err, constants.ErrNotEligible):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeJSON marshals data and writes it to the HTTP response.
func writeJSON(w http.ResponseWriter, code int, body dtos.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Error("JSON encode failed", "error", err.Error())
	}
}
