package admin

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	dto "github.com/ballotdesk/admind/internal/http/dto/admin"
	httperrors "github.com/ballotdesk/admind/internal/http/errors"
	"github.com/ballotdesk/admind/internal/http/helpers"
	"github.com/ballotdesk/admind/internal/http/middlewares"
	svc "github.com/ballotdesk/admind/internal/http/services/admin"
	"github.com/ballotdesk/admind/internal/observability/logger"
)

// UsersController expone el alta orquestada y el CRUD de perfiles.
type UsersController struct {
	services svc.Services
	timeout  time.Duration
}

// NewUsersController crea el controller. Si los services vienen vacíos
// (backend sin configurar), toda ruta responde 500 con el mensaje de
// configuración: el server arranca igual, el error es por request.
func NewUsersController(services svc.Services, timeout time.Duration) *UsersController {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &UsersController{services: services, timeout: timeout}
}

// Create maneja POST /admin/users: la secuencia completa de
// provisioning con timeout acotado.
func (c *UsersController) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("UsersController.Create"))
	log = withActor(ctx, log)

	if c.services.Provision == nil {
		httperrors.WriteError(w, httperrors.ErrBackendConfig)
		return
	}

	var req dto.CreateUserRequest
	r.Body = http.MaxBytesReader(w, r.Body, 8<<20)
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		// contrato: parse y campos faltantes comparten mensaje
		httperrors.WriteError(w, httperrors.ErrMissingFields)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	result, err := c.services.Provision.Provision(ctx, req)
	if err != nil {
		c.handleProvisionError(w, err, log)
		return
	}

	helpers.WriteJSON(w, http.StatusCreated, dto.CreateUserResponse{Success: true, User: *result})
}

// List maneja GET /admin/users.
func (c *UsersController) List(w http.ResponseWriter, r *http.Request) {
	log := logger.From(r.Context()).With(logger.Layer("controller"), logger.Op("UsersController.List"))

	if c.services.Users == nil {
		httperrors.WriteError(w, httperrors.ErrBackendConfig)
		return
	}

	users, err := c.services.Users.List(r.Context())
	if err != nil {
		c.handleUsersError(w, err, log)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.ListUsersResponse{Users: users})
}

// Get maneja GET /admin/users/{id}.
func (c *UsersController) Get(w http.ResponseWriter, r *http.Request) {
	log := logger.From(r.Context()).With(logger.Layer("controller"), logger.Op("UsersController.Get"))

	if c.services.Users == nil {
		httperrors.WriteError(w, httperrors.ErrBackendConfig)
		return
	}

	user, err := c.services.Users.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		c.handleUsersError(w, err, log)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, user)
}

// Update maneja PATCH /admin/users/{id}.
func (c *UsersController) Update(w http.ResponseWriter, r *http.Request) {
	log := logger.From(r.Context()).With(logger.Layer("controller"), logger.Op("UsersController.Update"))

	if c.services.Users == nil {
		httperrors.WriteError(w, httperrors.ErrBackendConfig)
		return
	}

	var req dto.UpdateUserRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	if err := c.services.Users.Update(r.Context(), chi.URLParam(r, "id"), req); err != nil {
		c.handleUsersError(w, err, log)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Delete maneja DELETE /admin/users/{id}.
func (c *UsersController) Delete(w http.ResponseWriter, r *http.Request) {
	log := withActor(r.Context(), logger.From(r.Context()).With(logger.Layer("controller"), logger.Op("UsersController.Delete")))

	if c.services.Users == nil {
		httperrors.WriteError(w, httperrors.ErrBackendConfig)
		return
	}

	if err := c.services.Users.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		c.handleUsersError(w, err, log)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// handleProvisionError mapea los sentinels del provisioning al contrato
// HTTP. Los textos exactos son contrato con el panel.
func (c *UsersController) handleProvisionError(w http.ResponseWriter, err error, log *zap.Logger) {
	switch {
	case errors.Is(err, svc.ErrProvisionMissingFields):
		httperrors.WriteError(w, httperrors.ErrMissingFields)
	case errors.Is(err, svc.ErrProvisionIdentity):
		httperrors.WriteError(w, httperrors.ErrBadRequest.
			WithMessage("Failed to create user: "+rootCause(err).Error()))
	case errors.Is(err, svc.ErrProvisionAvatar):
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithMessage("Avatar upload failed"))
	case errors.Is(err, svc.ErrProvisionProfile):
		httperrors.WriteError(w, httperrors.ErrBadRequest.
			WithMessage("Failed to insert user record: "+rootCause(err).Error()))
	default:
		log.Error("unexpected provisioning error", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError)
	}
}

func (c *UsersController) handleUsersError(w http.ResponseWriter, err error, log *zap.Logger) {
	switch {
	case errors.Is(err, svc.ErrUserNotFound):
		httperrors.WriteError(w, httperrors.ErrNotFound)
	default:
		log.Error("unexpected users error", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError)
	}
}

// withActor agrega el sub del admin autenticado (si el gate corrió).
func withActor(ctx context.Context, log *zap.Logger) *zap.Logger {
	if claims := middlewares.GetClaims(ctx); claims != nil {
		if sub, ok := claims["sub"].(string); ok && sub != "" {
			return log.With(logger.String("actor", sub))
		}
	}
	return log
}

// rootCause baja hasta la causa más interna (soporta single y multi
// wrap). Para errores del backend devuelve el mensaje del proveedor.
func rootCause(err error) error {
	for {
		switch x := err.(type) {
		case interface{ Unwrap() error }:
			u := x.Unwrap()
			if u == nil {
				return err
			}
			err = u
		case interface{ Unwrap() []error }:
			us := x.Unwrap()
			if len(us) == 0 {
				return err
			}
			err = us[len(us)-1]
		default:
			return err
		}
	}
}
