package api

import (
	"net/http"
	"time"

	"gatehouse/internal/common"
	"gatehouse/internal/models/dtos"
	"gatehouse/internal/services"

	"github.com/go-chi/chi/v5"
)

// ModerationPicker selects which list a route works on. The ban list and
// the blacklist share handlers.
type ModerationPicker func(*Dependencies) *services.ModerationService

func BansPicker(d *Dependencies) *services.ModerationService      { return d.Services.Bans }
func BlacklistPicker(d *Dependencies) *services.ModerationService { return d.Services.Blacklist }

func ListModerationHandler(deps *Dependencies, pick ModerationPicker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		entries, err := pick(deps).List(r.Context())
		if err != nil {
			common.RespondDomainError(w, initTime, err, "Failed to load entries")
			return
		}
		common.RespondSuccess(w, initTime, "Fetched entries", entries)
	}
}

func AddModerationHandler(deps *Dependencies, pick ModerationPicker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		var req dtos.BanReq
		if err := decodeBody(r, &req); err != nil {
			common.RespondDomainError(w, initTime, err, "Invalid request")
			return
		}

		entry, err := pick(deps).Add(r.Context(), req, reviewer(r))
		if err != nil {
			common.RespondDomainError(w, initTime, err, "Failed to add entry")
			return
		}
		common.RespondSuccess(w, initTime, "Entry added", entry, http.StatusCreated)
	}
}

func RemoveModerationHandler(deps *Dependencies, pick ModerationPicker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		if err := pick(deps).Remove(r.Context(), chi.URLParam(r, "discordId"), reviewer(r)); err != nil {
			common.RespondDomainError(w, initTime, err, "Failed to remove entry")
			return
		}
		common.RespondSuccess(w, initTime, "Entry removed", nil)
	}
}
