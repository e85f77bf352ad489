package middlewares

import "net/http"

// Middleware es el tipo estándar de middleware http.
type Middleware func(http.Handler) http.Handler
