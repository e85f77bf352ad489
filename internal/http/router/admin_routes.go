package router

import (
	"github.com/go-chi/chi/v5"

	"github.com/ballotdesk/admind/internal/http/middlewares"
)

// mountAdminRoutes monta el CRUD de usuarios bajo /admin. El alta
// lleva rate limit propio: es la única operación con efectos en tres
// backends.
func mountAdminRoutes(r chi.Router, deps Deps) {
	r.Route("/admin/users", func(ar chi.Router) {
		ar.Use(middlewares.RequireAdmin(deps.Admin))

		ar.Group(func(pr chi.Router) {
			if deps.Limiter != nil {
				pr.Use(middlewares.WithRateLimit(deps.Limiter, "provision"))
			}
			pr.Post("/", deps.Users.Create)
		})

		ar.Get("/", deps.Users.List)
		ar.Get("/{id}", deps.Users.Get)
		ar.Patch("/{id}", deps.Users.Update)
		ar.Delete("/{id}", deps.Users.Delete)
	})
}
