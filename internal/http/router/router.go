package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	adminctl "github.com/ballotdesk/admind/internal/http/controllers/admin"
	httperrors "github.com/ballotdesk/admind/internal/http/errors"
	"github.com/ballotdesk/admind/internal/http/middlewares"
	"github.com/ballotdesk/admind/internal/metrics"
)

// Deps agrupa todo lo que el router necesita para armar el árbol de
// rutas. Los campos opcionales (limiter, readiness) pueden venir nil.
type Deps struct {
	Users *adminctl.UsersController

	Admin   middlewares.AdminConfig
	Limiter middlewares.RateLimiter

	// Ready se consulta en /readyz; nil significa siempre listo.
	Ready func() error
}

// New construye el router HTTP completo: middlewares globales, rutas
// admin y endpoints operativos.
func New(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middlewares.WithRequestID())
	r.Use(middlewares.WithRecover())
	r.Use(middlewares.WithCORS())
	r.Use(metrics.HTTPMiddleware)

	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
	})
	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		httperrors.WriteError(w, httperrors.ErrNotFound)
	})

	mountHealthRoutes(r, deps)
	mountAdminRoutes(r, deps)

	return r
}
