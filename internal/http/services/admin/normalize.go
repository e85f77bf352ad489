package admin

import (
	"fmt"
	"strings"
	"time"

	dto "github.com/ballotdesk/admind/internal/http/dto/admin"
)

// Normalize convierte una fila cruda de perfil (esquema upstream
// heterogéneo) a la vista canónica. Vive fuera del camino crítico del
// provisioning: el orquestador solo escribe el esquema canónico, pero
// las lecturas toleran tablas con nombres de campo alternativos.
//
// Precedencia documentada por campo:
//   - name:        full_name > name > first_name+" "+last_name
//   - email:       email > user_email
//   - avatar_url:  avatar_url > avatar > avatarUrl
//   - access:      access (lista) > [role]
//   - last_active: last_active > lastActive > updated_at > last_login_at
//   - date_added:  created_at > dateAdded > inserted_at
func Normalize(rec map[string]any) dto.User {
	u := dto.User{
		ID:         asString(rec["id"]),
		Email:      firstString(rec, "email", "user_email"),
		AvatarURL:  firstString(rec, "avatar_url", "avatar", "avatarUrl"),
		LastActive: firstString(rec, "last_active", "lastActive", "updated_at", "last_login_at"),
		DateAdded:  firstString(rec, "created_at", "dateAdded", "inserted_at"),
		Access:     []string{},
	}

	u.Name = firstString(rec, "full_name", "name")
	if u.Name == "" {
		first := asString(rec["first_name"])
		last := asString(rec["last_name"])
		if first != "" && last != "" {
			u.Name = first + " " + last
		}
	}

	if list, ok := rec["access"].([]any); ok {
		for _, v := range list {
			if s := asString(v); s != "" {
				u.Access = append(u.Access, s)
			}
		}
	} else if role := asString(rec["role"]); role != "" {
		u.Access = []string{role}
	}

	return u
}

// firstString devuelve el primer valor no vacío entre las keys dadas.
func firstString(rec map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := asString(rec[k]); s != "" {
			return s
		}
	}
	return ""
}

// asString tolera valores que no llegan como string (ids numéricos,
// timestamps del driver de Postgres).
func asString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case time.Time:
		return t.UTC().Format(time.RFC3339)
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}
