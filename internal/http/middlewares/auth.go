package middlewares

import (
	"net/http"
	"strings"

	jwtv5 "github.com/golang-jwt/jwt/v5"

	"github.com/ballotdesk/admind/internal/http/errors"
	"github.com/ballotdesk/admind/internal/observability/logger"
)

// AdminConfig configura el gate de las rutas administrativas.
type AdminConfig struct {
	// Enforce si es true exige un bearer token con role admin.
	// Si es false (modo desarrollo), siempre permite.
	Enforce bool
	// JWTSecret secreto HS256 con el que el backend firma sus tokens.
	JWTSecret string
	// Roles con acceso admin (ej: admin, super_admin).
	Roles []string
}

// RequireAdmin valida el bearer token entrante y que el role del usuario
// esté en la lista permitida. El role se busca en este orden:
// user_metadata.role, app_metadata.role, claim "role" de primer nivel.
func RequireAdmin(cfg AdminConfig) Middleware {
	allowed := make(map[string]struct{}, len(cfg.Roles))
	for _, r := range cfg.Roles {
		allowed[strings.ToLower(r)] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.Enforce {
				next.ServeHTTP(w, r)
				return
			}

			raw := bearerToken(r)
			if raw == "" {
				errors.WriteError(w, errors.ErrUnauthorized)
				return
			}

			claims := jwtv5.MapClaims{}
			_, err := jwtv5.ParseWithClaims(raw, claims, func(t *jwtv5.Token) (any, error) {
				if _, ok := t.Method.(*jwtv5.SigningMethodHMAC); !ok {
					return nil, jwtv5.ErrSignatureInvalid
				}
				return []byte(cfg.JWTSecret), nil
			})
			if err != nil {
				logger.From(r.Context()).Debug("admin token rejected", logger.Err(err))
				errors.WriteError(w, errors.ErrUnauthorized)
				return
			}

			if _, ok := allowed[strings.ToLower(roleFromClaims(claims))]; !ok {
				errors.WriteError(w, errors.ErrForbidden)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

func bearerToken(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

func roleFromClaims(claims map[string]any) string {
	for _, key := range []string{"user_metadata", "app_metadata"} {
		if m, ok := claims[key].(map[string]any); ok {
			if role, ok := m["role"].(string); ok && role != "" {
				return role
			}
		}
	}
	if role, ok := claims["role"].(string); ok {
		return role
	}
	return ""
}
