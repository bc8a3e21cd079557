package api

import (
	"net/http"
	"time"

	"gatehouse/internal/common"
	"gatehouse/internal/constants"
	"gatehouse/internal/models/entities"

	"github.com/go-chi/chi/v5"
)

func CreateTypeHandler(deps *Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		var t entities.ApplicationType
		if err := decodeBody(r, &t); err != nil {
			common.RespondDomainError(w, initTime, err, "Invalid request")
			return
		}

		created, err := deps.Services.Types.Create(r.Context(), t, reviewer(r))
		if err != nil {
			common.RespondDomainError(w, initTime, err, "Failed to create application type")
			return
		}
		common.RespondSuccess(w, initTime, "Application type created", created, http.StatusCreated)
	}
}

func UpdateTypeHandler(deps *Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		var patch entities.ApplicationTypePatch
		if err := decodeBody(r, &patch); err != nil {
			common.RespondDomainError(w, initTime, err, "Invalid request")
			return
		}

		updated, err := deps.Services.Types.Update(r.Context(), chi.URLParam(r, "id"), patch, reviewer(r))
		if err != nil {
			common.RespondDomainError(w, initTime, err, "Failed to update application type")
			return
		}
		common.RespondSuccess(w, initTime, "Application type updated", updated)
	}
}

func DeleteTypeHandler(deps *Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		if err := deps.Services.Types.Delete(r.Context(), chi.URLParam(r, "id"), reviewer(r)); err != nil {
			common.RespondDomainError(w, initTime, err, constants.MsgTypeNotFound)
			return
		}
		common.RespondSuccess(w, initTime, "Application type deleted", nil)
	}
}
