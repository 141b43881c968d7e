package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
	"github.com/go-chi/render"

	"github.com/formwise/formwise/app"
	"github.com/formwise/formwise/routes/middlewares"
)

func Wire(a app.App) http.Handler {
	root := chi.NewRouter()
	root.Use(middleware.RequestID, middleware.Logger, middleware.Recoverer)

	root.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]any{"detail": "pong"})
	})
	root.Mount("/api/v1", apiRouter(a))

	return root
}

func apiRouter(a app.App) http.Handler {
	api := chi.NewRouter()

	limiter := middlewares.NewRateLimiter(a.RateLimit, a.RateWindow)
	api.Use(limiter.Limit(a.RateLimitPaths...))

	// Verifier only parses the token; anonymous requests pass through and
	// are rejected later by Authenticated where auth is mandatory.
	api.Use(jwtauth.Verifier(a.JWT))

	api.Post("/auth/register", Register(a))
	api.Post("/auth/login", Login(a))
	api.Get("/config", GetAppConfig(a))

	// public form routes
	api.Get("/forms/{id}", GetForm(a))
	api.Post("/forms/{id}/submit", SubmitForm(a))

	api.Group(func(r chi.Router) {
		r.Use(middlewares.Authenticated)

		r.Get("/users/me", Me(a))

		r.Post("/forms", CreateForm(a))
		r.Get("/forms", ListForms(a))
		r.Patch("/forms/{id}", UpdateForm(a))
		r.Delete("/forms/{id}", DeleteForm(a))
		r.Get("/forms/{id}/responses", ListResponses(a))

		r.Post("/forms/generate", GenerateForm(a))
	})

	return api
}
