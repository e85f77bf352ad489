package middlewares

import "net/http"

// WithCORS agrega los headers permisivos de CORS a TODAS las respuestas
// (incluidos errores) y resuelve el preflight OPTIONS con 200 antes de
// cualquier lógica de negocio. El set de headers es contrato con el panel.
func WithCORS() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", "*")
			h.Set("Access-Control-Allow-Headers", "authorization, x-client-info, apikey, content-type")
			h.Set("Access-Control-Allow-Methods", "*")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write([]byte("ok"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
