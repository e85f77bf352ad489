package repository

import (
	"context"
	"time"
)

// Profile es la fila durable de perfil. El ID es el mismo que el de la
// identidad: es la join key que ata los dos stores.
type Profile struct {
	ID        string
	FullName  string
	Email     string
	Role      string
	Phone     *string
	AvatarURL *string
	CreatedAt time.Time
}

// UpdateProfileInput campos actualizables de un perfil. Punteros nil
// significan "no tocar".
type UpdateProfileInput struct {
	FullName  *string
	Role      *string
	Phone     *string
	AvatarURL *string
}

// ProfileRepository es la capability sobre la relación de perfiles.
//
// Las lecturas devuelven las filas crudas (map) en lugar de structs:
// los esquemas upstream son heterogéneos (full_name vs name vs
// first_name+last_name, etc.) y la normalización se hace una sola vez,
// con precedencia documentada, fuera del orquestador
// (ver admin.Normalize).
type ProfileRepository interface {
	Insert(ctx context.Context, p *Profile) error
	List(ctx context.Context) ([]map[string]any, error)
	Get(ctx context.Context, id string) (map[string]any, error)
	Update(ctx context.Context, id string, in UpdateProfileInput) error
	Delete(ctx context.Context, id string) error
}
