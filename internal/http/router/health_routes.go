package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ballotdesk/admind/internal/http/helpers"
	"github.com/ballotdesk/admind/internal/metrics"
)

func mountHealthRoutes(r chi.Router, deps Deps) {
	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		helpers.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/readyz", func(w http.ResponseWriter, req *http.Request) {
		if deps.Ready != nil {
			if err := deps.Ready(); err != nil {
				helpers.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
					"status": "unavailable",
					"reason": err.Error(),
				})
				return
			}
		}
		helpers.WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})

	r.Method(http.MethodGet, "/metrics", metrics.Handler())
}
