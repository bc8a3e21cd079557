package api

import (
	"net/http"
	"time"

	"gatehouse/internal/common"
	"gatehouse/internal/constants"
	"gatehouse/internal/models/dtos"

	"github.com/go-chi/chi/v5"
)

func applicationFilter(r *http.Request) dtos.ApplicationFilter {
	q := r.URL.Query()
	return dtos.ApplicationFilter{
		Status:     constants.ApplicationStatus(q.Get("status")),
		Type:       q.Get("type"),
		AssignedTo: q.Get("assignedTo"),
	}
}

// ListApplicationsHandler lists active applications for triage.
// @Summary List active applications
// @Tags Admin
// @Param status query string false "Status filter"
// @Param type query string false "Application type filter"
// @Param assignedTo query string false "Assignee filter"
// @Router /api/v1/admin/applications [get]
func ListApplicationsHandler(deps *Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		apps, err := deps.Services.Applications.ListActive(r.Context(), applicationFilter(r))
		if err != nil {
			common.RespondDomainError(w, initTime, err, "Failed to load applications")
			return
		}
		common.RespondSuccess(w, initTime, "Fetched applications", apps)
	}
}

func ListArchivedHandler(deps *Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		apps, err := deps.Services.Applications.ListArchived(r.Context(), applicationFilter(r))
		if err != nil {
			common.RespondDomainError(w, initTime, err, "Failed to load archived applications")
			return
		}
		common.RespondSuccess(w, initTime, "Fetched archived applications", apps)
	}
}

func GetApplicationHandler(deps *Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		app, loc, err := deps.Services.Applications.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			common.RespondDomainError(w, initTime, err, constants.MsgApplicationNotFound)
			return
		}
		common.RespondSuccess(w, initTime, "Fetched application from "+loc.String(), app)
	}
}

// ReviewApplicationHandler approves or denies a pending application and
// moves it to the archive.
// @Summary Review an application
// @Tags Admin
// @Param id path string true "Application id"
// @Param body body dtos.ReviewApplicationReq true "Decision"
// @Success 200 {object} dtos.APIResponse{data=dtos.ReviewResult}
// @Failure 409 {object} dtos.APIResponse
// @Router /api/v1/admin/applications/{id}/review [post]
func ReviewApplicationHandler(deps *Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		var req dtos.ReviewApplicationReq
		if err := decodeBody(r, &req); err != nil {
			common.RespondDomainError(w, initTime, err, "Invalid request")
			return
		}

		result, err := deps.Services.Review.Review(r.Context(), chi.URLParam(r, "id"), req, reviewer(r))
		if err != nil {
			common.RespondDomainError(w, initTime, err, "Failed to review application")
			return
		}
		common.RespondSuccess(w, initTime, "Application "+string(req.Status), result)
	}
}

func AddNoteHandler(deps *Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		var req dtos.AddNoteReq
		if err := decodeBody(r, &req); err != nil {
			common.RespondDomainError(w, initTime, err, "Invalid request")
			return
		}

		note, err := deps.Services.Applications.AddNote(r.Context(), chi.URLParam(r, "id"), reviewer(r), req.Content)
		if err != nil {
			common.RespondDomainError(w, initTime, err, "Failed to add note")
			return
		}
		common.RespondSuccess(w, initTime, "Note added", note, http.StatusCreated)
	}
}

func SetPriorityHandler(deps *Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		var req dtos.SetPriorityReq
		if err := decodeBody(r, &req); err != nil {
			common.RespondDomainError(w, initTime, err, "Invalid request")
			return
		}

		app, err := deps.Services.Applications.SetPriority(r.Context(), chi.URLParam(r, "id"), req.Priority, reviewer(r))
		if err != nil {
			common.RespondDomainError(w, initTime, err, "Failed to set priority")
			return
		}
		common.RespondSuccess(w, initTime, "Priority updated", app)
	}
}

func AssignHandler(deps *Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		var req dtos.AssignReq
		if err := decodeBody(r, &req); err != nil {
			common.RespondDomainError(w, initTime, err, "Invalid request")
			return
		}

		app, err := deps.Services.Applications.Assign(r.Context(), chi.URLParam(r, "id"), req.AssignedTo, reviewer(r))
		if err != nil {
			common.RespondDomainError(w, initTime, err, "Failed to assign application")
			return
		}
		common.RespondSuccess(w, initTime, "Application assigned", app)
	}
}

func BulkActionHandler(deps *Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		var req dtos.BulkActionReq
		if err := decodeBody(r, &req); err != nil {
			common.RespondDomainError(w, initTime, err, "Invalid request")
			return
		}

		result, err := deps.Services.Applications.Bulk(r.Context(), req, reviewer(r))
		if err != nil {
			common.RespondDomainError(w, initTime, err, "Bulk action failed")
			return
		}
		common.RespondSuccess(w, initTime, "Bulk action applied", result)
	}
}

func StatsHandler(deps *Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		stats, err := deps.Services.Applications.Stats(r.Context())
		if err != nil {
			common.RespondDomainError(w, initTime, err, "Failed to compute stats")
			return
		}
		common.RespondSuccess(w, initTime, "Fetched stats", stats)
	}
}

func ActivityHandler(deps *Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		entries, err := deps.Services.Activity.Recent(r.Context(), queryInt(r, "limit", 100))
		if err != nil {
			common.RespondDomainError(w, initTime, err, "Failed to load activity")
			return
		}
		common.RespondSuccess(w, initTime, "Fetched activity", entries)
	}
}

func ListNotificationsHandler(deps *Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		items, err := deps.Services.Notifications.List(r.Context(), r.URL.Query().Get("unread") == "true")
		if err != nil {
			common.RespondDomainError(w, initTime, err, "Failed to load notifications")
			return
		}
		common.RespondSuccess(w, initTime, "Fetched notifications", items)
	}
}

func MarkNotificationReadHandler(deps *Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		if err := deps.Services.Notifications.MarkRead(r.Context(), chi.URLParam(r, "id")); err != nil {
			common.RespondDomainError(w, initTime, err, "Failed to mark notification read")
			return
		}
		common.RespondSuccess(w, initTime, "Notification marked read", nil)
	}
}

func MarkAllNotificationsReadHandler(deps *Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		n, err := deps.Services.Notifications.MarkAllRead(r.Context())
		if err != nil {
			common.RespondDomainError(w, initTime, err, "Failed to mark notifications read")
			return
		}
		common.RespondSuccess(w, initTime, "Notifications marked read", map[string]int{"updated": n})
	}
}
