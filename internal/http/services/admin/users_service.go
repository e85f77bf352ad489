package admin

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/ballotdesk/admind/internal/cache"
	"github.com/ballotdesk/admind/internal/domain/repository"
	dto "github.com/ballotdesk/admind/internal/http/dto/admin"
	"github.com/ballotdesk/admind/internal/observability/logger"
)

// UsersService expone las lecturas y mutaciones de perfiles para el
// panel. Las lecturas pasan por un cache read-through de TTL corto.
type UsersService interface {
	List(ctx context.Context) ([]dto.User, error)
	Get(ctx context.Context, id string) (*dto.User, error)
	Update(ctx context.Context, id string, in dto.UpdateUserRequest) error
	Delete(ctx context.Context, id string) error

	// InvalidateList invalida el cache de listados. Lo usa también el
	// provisioning después de un alta exitosa.
	InvalidateList(ctx context.Context)
}

// UsersDeps contiene las dependencias del service.
type UsersDeps struct {
	Profiles   repository.ProfileRepository
	Identities repository.IdentityProvider
	Avatars    repository.BlobStore

	// Cache opcional para listados (nil = sin cache).
	Cache cache.Client
	TTL   time.Duration
}

const usersListKey = "users:list"

type usersService struct {
	deps UsersDeps
	sf   singleflight.Group
}

// NewUsersService crea el service de perfiles.
func NewUsersService(deps UsersDeps) UsersService {
	return &usersService{deps: deps}
}

// Errores sentinel.
var ErrUserNotFound = errors.New("user not found")

func (s *usersService) List(ctx context.Context) ([]dto.User, error) {
	if s.deps.Cache != nil {
		if b, err := s.deps.Cache.Get(ctx, usersListKey); err == nil {
			var users []dto.User
			if json.Unmarshal(b, &users) == nil {
				return users, nil
			}
		}
	}

	// singleflight: un solo fetch por key aunque lleguen en ráfaga
	v, err, _ := s.sf.Do(usersListKey, func() (any, error) {
		rows, err := s.deps.Profiles.List(ctx)
		if err != nil {
			return nil, err
		}
		users := make([]dto.User, 0, len(rows))
		for _, rec := range rows {
			users = append(users, Normalize(rec))
		}
		if s.deps.Cache != nil {
			if b, err := json.Marshal(users); err == nil {
				if err := s.deps.Cache.Set(ctx, usersListKey, b, s.deps.TTL); err != nil {
					logger.From(ctx).Debug("users cache set failed", logger.Err(err))
				}
			}
		}
		return users, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]dto.User), nil
}

func (s *usersService) Get(ctx context.Context, id string) (*dto.User, error) {
	rec, err := s.deps.Profiles.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	u := Normalize(rec)
	return &u, nil
}

func (s *usersService) Update(ctx context.Context, id string, in dto.UpdateUserRequest) error {
	err := s.deps.Profiles.Update(ctx, id, repository.UpdateProfileInput{
		FullName:  in.FullName,
		Role:      in.Role,
		Phone:     in.Phone,
		AvatarURL: in.AvatarURL,
	})
	if errors.Is(err, repository.ErrNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return err
	}
	s.InvalidateList(ctx)
	return nil
}

// Delete es el inverso del provisioning: borra perfil, identidad y
// avatar. Identidad y avatar son best-effort una vez borrado el perfil.
func (s *usersService) Delete(ctx context.Context, id string) error {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("admin.users"),
		logger.Op("Delete"),
		logger.UserID(id),
	)

	// El avatar path se deriva de la fila antes de borrarla
	avatarPath := ""
	if rec, err := s.deps.Profiles.Get(ctx, id); err == nil {
		avatarPath = avatarPathFromURL(Normalize(rec).AvatarURL)
	}

	err := s.deps.Profiles.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return err
	}

	if err := s.deps.Identities.Delete(ctx, id); err != nil && !errors.Is(err, repository.ErrNotFound) {
		log.Warn("identity delete failed (orphan identity)", logger.Err(err))
	}
	if avatarPath != "" {
		if err := s.deps.Avatars.Remove(ctx, avatarPath); err != nil {
			log.Warn("avatar delete failed (orphan blob)", logger.Err(err))
		}
	}

	s.InvalidateList(ctx)
	return nil
}

// InvalidateList invalida el cache de listados.
func (s *usersService) InvalidateList(ctx context.Context) {
	if s.deps.Cache != nil {
		_ = s.deps.Cache.Delete(ctx, usersListKey)
	}
}

// avatarPathFromURL recupera el path del objeto a partir de la URL
// pública ({base}/storage/v1/object/public/{bucket}/{path}).
func avatarPathFromURL(url string) string {
	const marker = "/object/public/"
	i := strings.Index(url, marker)
	if i < 0 {
		return ""
	}
	rest := url[i+len(marker):]
	// saltear el bucket
	if j := strings.Index(rest, "/"); j >= 0 {
		return rest[j+1:]
	}
	return ""
}
