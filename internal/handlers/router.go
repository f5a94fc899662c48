package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter wires every HTTP route the server exposes.
func NewRouter(progress *ProgressHandler, admin *AdminHandler, mw *Middleware) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(mw.RequestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/progress/{sessionID}", progress.GetProgress)
	r.Post("/progress", progress.PostProgress)
	r.Get("/progress/{sessionID}/attempts", progress.GetAttempts)

	r.With(mw.LimitLogin).Post("/admin/login", admin.Login)
	r.Group(func(r chi.Router) {
		r.Use(mw.RequireAdmin)
		r.Get("/admin/sessions", admin.ListSessions)
		r.Delete("/admin/sessions/{sessionID}", admin.DeleteSession)
		r.Post("/admin/sessions/{sessionID}/report", admin.SendReport)
	})

	return r
}
