package repository

import (
	"context"
	"time"
)

// Identity es el registro de autenticación que vive en el proveedor de
// identidad externo. El ID lo asigna el proveedor y se trata como opaco.
type Identity struct {
	ID             string
	Email          string
	EmailConfirmed bool
	Metadata       map[string]any
	CreatedAt      time.Time
}

// CreateIdentityInput datos para el alta de una identidad.
type CreateIdentityInput struct {
	Email    string
	Password string
	// EmailConfirm fuerza la identidad como confirmada (alta administrativa,
	// sin flujo de verificación).
	EmailConfirm bool
	// Metadata se guarda como user_metadata en el proveedor (ej: role).
	Metadata map[string]any
}

// IdentityProvider es la capability sobre el servicio de identidad.
// Create y Delete son las dos operaciones que usa el orquestador:
// Delete es además la acción de compensación.
type IdentityProvider interface {
	Create(ctx context.Context, in CreateIdentityInput) (*Identity, error)
	Delete(ctx context.Context, id string) error
}
