package routes

import (
	"gatehouse/internal/api"
	"gatehouse/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterAuthRoutes(r chi.Router, deps *api.Dependencies) {
	r.Route("/auth", func(r chi.Router) {
		r.Get("/login", api.LoginHandler(deps))
		r.Get("/callback", api.CallbackHandler(deps))
		r.Post("/logout", api.LogoutHandler(deps))
	})
}

func RegisterAPIRoutes(r chi.Router, deps *api.Dependencies) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(deps.Services.Auth))

		r.Get("/me", api.MeHandler(deps))

		r.Route("/applications", func(r chi.Router) {
			r.Get("/types", api.ListTypesHandler(deps))
			r.Get("/eligibility", api.EligibilityHandler(deps))
			r.Get("/mine", api.MyApplicationsHandler(deps))
			r.With(deps.SubmitLimiter.Middleware).Post("/", api.SubmitApplicationHandler(deps))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.IsStaffMiddleware())

			r.Route("/applications", func(r chi.Router) {
				r.Get("/", api.ListApplicationsHandler(deps))
				r.Get("/archived", api.ListArchivedHandler(deps))
				r.Get("/stats", api.StatsHandler(deps))
				r.Post("/bulk", api.BulkActionHandler(deps))
				r.Get("/{id}", api.GetApplicationHandler(deps))
				r.Post("/{id}/review", api.ReviewApplicationHandler(deps))
				r.Post("/{id}/notes", api.AddNoteHandler(deps))
				r.Put("/{id}/priority", api.SetPriorityHandler(deps))
				r.Put("/{id}/assign", api.AssignHandler(deps))
			})

			r.Get("/activity", api.ActivityHandler(deps))

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", api.ListNotificationsHandler(deps))
				r.Post("/read-all", api.MarkAllNotificationsReadHandler(deps))
				r.Post("/{id}/read", api.MarkNotificationReadHandler(deps))
			})

			// Admin only
			r.Group(func(r chi.Router) {
				r.Use(middleware.IsAdminMiddleware())

				r.Post("/application-types", api.CreateTypeHandler(deps))
				r.Put("/application-types/{id}", api.UpdateTypeHandler(deps))
				r.Delete("/application-types/{id}", api.DeleteTypeHandler(deps))

				for path, pick := range map[string]api.ModerationPicker{
					"/bans":      api.BansPicker,
					"/blacklist": api.BlacklistPicker,
				} {
					r.Get(path, api.ListModerationHandler(deps, pick))
					r.Post(path, api.AddModerationHandler(deps, pick))
					r.Delete(path+"/{discordId}", api.RemoveModerationHandler(deps, pick))
				}
			})
		})
	})
}
