package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ballotdesk/admind/internal/domain/repository"
	"github.com/ballotdesk/admind/internal/email"
	dto "github.com/ballotdesk/admind/internal/http/dto/admin"
	"github.com/ballotdesk/admind/internal/metrics"
	"github.com/ballotdesk/admind/internal/observability/logger"
	"go.uber.org/zap"
)

// ProvisionService da de alta un usuario completo: identidad en el
// proveedor de auth, avatar opcional en storage y fila de perfil, como
// pseudo-transacción con compensación manual (saga de un solo intento).
//
// La operación NO es idempotente: reintentar con el mismo email después
// de un alta exitosa falla en la creación de identidad (email duplicado),
// y eso es el comportamiento esperado. No hay retries internos: cada
// llamada externa se intenta exactamente una vez.
type ProvisionService interface {
	Provision(ctx context.Context, in dto.CreateUserRequest) (*dto.CreatedUser, error)
}

// AvatarFailurePolicy decide qué pasa si el upload del avatar falla
// después de crear la identidad.
type AvatarFailurePolicy string

const (
	// AvatarAbort aborta todo y compensa borrando la identidad.
	AvatarAbort AvatarFailurePolicy = "abort"
	// AvatarDegrade sigue sin avatar (avatar_url null) y solo loguea.
	AvatarDegrade AvatarFailurePolicy = "degrade"
)

// ProvisionDeps contiene las dependencias del service.
type ProvisionDeps struct {
	Identities repository.IdentityProvider
	Avatars    repository.BlobStore
	Profiles   repository.ProfileRepository

	AvatarPolicy AvatarFailurePolicy

	// Welcome notifica al usuario tras el alta (soft fail, puede ser nil).
	Welcome *email.WelcomeMailer

	// InvalidateUsers invalida el cache de listados (puede ser nil).
	InvalidateUsers func(ctx context.Context)
}

type provisionService struct {
	deps ProvisionDeps
}

// NewProvisionService crea el service de provisioning.
func NewProvisionService(deps ProvisionDeps) ProvisionService {
	if deps.AvatarPolicy == "" {
		deps.AvatarPolicy = AvatarAbort
	}
	return &provisionService{deps: deps}
}

// Errores sentinel del provisioning. El controller los mapea al contrato
// HTTP exacto.
var (
	ErrProvisionMissingFields = errors.New("missing required fields")
	ErrProvisionIdentity      = errors.New("identity creation failed")
	ErrProvisionAvatar        = errors.New("avatar upload failed")
	ErrProvisionProfile       = errors.New("profile insert failed")
)

func (s *provisionService) Provision(ctx context.Context, in dto.CreateUserRequest) (*dto.CreatedUser, error) {
	start := time.Now()
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("admin.provision"),
		logger.Op("Provision"),
	)

	// Normalizar y validar antes de cualquier efecto
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	in.Role = strings.TrimSpace(in.Role)

	if in.FullName == "" || in.Email == "" || in.Role == "" {
		metrics.ObserveProvision("validation_error", time.Since(start))
		return nil, ErrProvisionMissingFields
	}

	log = log.With(logger.Email(in.Email), logger.Role(in.Role))

	// Credencial: la provista, o una temporal generada
	secret := in.Password
	if secret == "" {
		var err error
		if secret, err = tempPassword(); err != nil {
			metrics.ObserveProvision("internal_error", time.Since(start))
			return nil, fmt.Errorf("generate temp password: %w", err)
		}
	}

	// Paso 1: identidad. Si falla no hay nada que compensar.
	identity, err := s.deps.Identities.Create(ctx, repository.CreateIdentityInput{
		Email:        in.Email,
		Password:     secret,
		EmailConfirm: true,
		Metadata:     map[string]any{"role": in.Role},
	})
	if err != nil {
		log.Info("identity creation rejected", logger.Err(err))
		metrics.ObserveProvision("identity_error", time.Since(start))
		return nil, fmt.Errorf("%w: %w", ErrProvisionIdentity, err)
	}
	log = log.With(logger.UserID(identity.ID))

	// Paso 2 (opcional): avatar
	var avatarURL *string
	uploadedPath := ""
	if in.AvatarBase64 != "" {
		path, url, err := s.uploadAvatar(ctx, identity.ID, in)
		switch {
		case err == nil:
			uploadedPath = path
			avatarURL = &url
		case s.deps.AvatarPolicy == AvatarDegrade:
			log.Warn("avatar upload failed, continuing without avatar", logger.Err(err))
		default:
			// abort: compensar la identidad recién creada
			log.Error("avatar upload failed, rolling back identity", logger.Err(err))
			s.compensateIdentity(ctx, identity.ID, log)
			metrics.ObserveProvision("avatar_error", time.Since(start))
			return nil, fmt.Errorf("%w: %w", ErrProvisionAvatar, err)
		}
	}

	// Paso 3: fila de perfil
	var phone *string
	if p := strings.TrimSpace(in.Phone); p != "" {
		phone = &p
	}
	profile := &repository.Profile{
		ID:        identity.ID,
		FullName:  in.FullName,
		Email:     in.Email,
		Role:      in.Role,
		Phone:     phone,
		AvatarURL: avatarURL,
	}
	if err := s.deps.Profiles.Insert(ctx, profile); err != nil {
		// Compensar todo: identidad primero, después el blob. Ambas se
		// intentan aunque la primera falle; las fallas de compensación
		// se loguean y nunca pisan el error primario.
		log.Error("profile insert failed, rolling back", logger.Err(err))
		s.compensateIdentity(ctx, identity.ID, log)
		if uploadedPath != "" {
			s.compensateAvatar(ctx, uploadedPath, log)
		}
		metrics.ObserveProvision("profile_error", time.Since(start))
		return nil, fmt.Errorf("%w: %w", ErrProvisionProfile, err)
	}

	if s.deps.InvalidateUsers != nil {
		s.deps.InvalidateUsers(ctx)
	}

	// Notificación de bienvenida (soft fail)
	if s.deps.Welcome != nil {
		if err := s.deps.Welcome.SendWelcome(in.Email, in.FullName); err != nil {
			log.Warn("welcome email failed (soft)", logger.Err(err))
		}
	}

	log.Info("user provisioned", logger.Duration(time.Since(start)))
	metrics.ObserveProvision("created", time.Since(start))

	return &dto.CreatedUser{
		ID:           identity.ID,
		FullName:     in.FullName,
		Email:        in.Email,
		Role:         in.Role,
		Phone:        phone,
		TempPassword: secret,
		AvatarURL:    avatarURL,
	}, nil
}

// uploadAvatar decodifica, sube y resuelve la URL pública.
// El path es determinístico: avatars/{identityId}.{ext}.
func (s *provisionService) uploadAvatar(ctx context.Context, identityID string, in dto.CreateUserRequest) (path, url string, err error) {
	data, mime, err := decodeAvatar(in.AvatarBase64)
	if err != nil {
		return "", "", fmt.Errorf("decode avatar: %w", err)
	}
	path = "avatars/" + identityID + "." + avatarExt(mime, in.AvatarName)
	if err := s.deps.Avatars.Upload(ctx, path, data, mime); err != nil {
		return "", "", err
	}
	return path, s.deps.Avatars.PublicURL(path), nil
}

func (s *provisionService) compensateIdentity(ctx context.Context, id string, log *zap.Logger) {
	err := s.deps.Identities.Delete(ctx, id)
	metrics.ObserveCompensation("identity", err == nil)
	if err != nil {
		log.Error("identity compensation failed", logger.UserID(id), logger.Err(err))
	}
}

func (s *provisionService) compensateAvatar(ctx context.Context, path string, log *zap.Logger) {
	err := s.deps.Avatars.Remove(ctx, path)
	metrics.ObserveCompensation("avatar", err == nil)
	if err != nil {
		log.Error("avatar compensation failed", logger.String("path", path), logger.Err(err))
	}
}
