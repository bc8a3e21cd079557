package api

import (
	"errors"
	"net/http"
	"time"

	"gatehouse/internal/auth"
	"gatehouse/internal/common"
	"gatehouse/internal/models/dtos"
	"gatehouse/internal/models/entities"
	"gatehouse/internal/services"
)

func ListTypesHandler(deps *Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		types, err := deps.Services.Types.List(r.Context())
		if err != nil {
			common.RespondDomainError(w, initTime, err, "Failed to load application types")
			return
		}
		common.RespondSuccess(w, initTime, "Fetched application types", types)
	}
}

// EligibilityHandler tells the caller whether they may apply for a type.
// @Summary Check reapply eligibility
// @Tags Applications
// @Param type query string false "Application type id, defaults to whitelist"
// @Success 200 {object} dtos.APIResponse{data=dtos.EligibilityDecision}
// @Router /api/v1/applications/eligibility [get]
func EligibilityHandler(deps *Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		claims, err := claimsOrUnauthorized(r)
		if err != nil {
			common.RespondDomainError(w, initTime, err, "Unauthorized")
			return
		}

		decision, err := deps.Services.Eligibility.Check(r.Context(), claims.UserID(), r.URL.Query().Get("type"))
		if err != nil {
			common.RespondDomainError(w, initTime, err, "Failed to check eligibility")
			return
		}
		common.RespondSuccess(w, initTime, decision.Message, decision)
	}
}

// SubmitApplicationHandler stores a new application for the caller.
// A rejected eligibility check answers 409 with the decision as data.
// @Summary Submit an application
// @Tags Applications
// @Param body body dtos.SubmitApplicationReq true "Answers"
// @Success 201 {object} dtos.APIResponse{data=dtos.SubmitResult}
// @Failure 409 {object} dtos.APIResponse{data=dtos.EligibilityDecision}
// @Router /api/v1/applications [post]
func SubmitApplicationHandler(deps *Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		claims, err := claimsOrUnauthorized(r)
		if err != nil {
			common.RespondDomainError(w, initTime, err, "Unauthorized")
			return
		}

		var req dtos.SubmitApplicationReq
		if err := decodeBody(r, &req); err != nil {
			common.RespondDomainError(w, initTime, err, "Invalid request")
			return
		}

		result, err := deps.Services.Applications.Submit(r.Context(), claims.Identity(), req)
		if err != nil {
			var notEligible *services.EligibilityError
			if errors.As(err, &notEligible) {
				common.RespondErrorData(w, initTime, notEligible.Decision.Message, notEligible.Decision, http.StatusConflict)
				return
			}
			common.RespondDomainError(w, initTime, err, "Failed to submit application")
			return
		}
		common.RespondSuccess(w, initTime, "Application submitted", result, http.StatusCreated)
	}
}

func MyApplicationsHandler(deps *Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		claims, err := claimsOrUnauthorized(r)
		if err != nil {
			common.RespondDomainError(w, initTime, err, "Unauthorized")
			return
		}

		mine, err := deps.Services.Applications.Mine(r.Context(), claims.UserID())
		if err != nil {
			common.RespondDomainError(w, initTime, err, "Failed to load applications")
			return
		}
		common.RespondSuccess(w, initTime, "Fetched your applications", mine)
	}
}

// reviewer is the acting staff member for audit fields.
func reviewer(r *http.Request) entities.Reviewer {
	claims := auth.GetUserClaims(r.Context())
	if claims == nil {
		return entities.Reviewer{}
	}
	return auth.Reviewer(claims)
}
