// Package admin contiene los services administrativos.
package admin

import (
	"time"

	"github.com/ballotdesk/admind/internal/cache"
	"github.com/ballotdesk/admind/internal/domain/repository"
	"github.com/ballotdesk/admind/internal/email"
)

// Deps contiene las dependencias para crear los services admin.
type Deps struct {
	Identities repository.IdentityProvider
	Avatars    repository.BlobStore
	Profiles   repository.ProfileRepository

	Cache    cache.Client
	UsersTTL time.Duration

	AvatarPolicy AvatarFailurePolicy
	Welcome      *email.WelcomeMailer
}

// Services agrupa todos los services del dominio admin.
type Services struct {
	Provision ProvisionService
	Users     UsersService
}

// NewServices crea el agregador de services admin.
func NewServices(d Deps) Services {
	users := NewUsersService(UsersDeps{
		Profiles:   d.Profiles,
		Identities: d.Identities,
		Avatars:    d.Avatars,
		Cache:      d.Cache,
		TTL:        d.UsersTTL,
	})
	provision := NewProvisionService(ProvisionDeps{
		Identities:      d.Identities,
		Avatars:         d.Avatars,
		Profiles:        d.Profiles,
		AvatarPolicy:    d.AvatarPolicy,
		Welcome:         d.Welcome,
		InvalidateUsers: users.InvalidateList,
	})
	return Services{
		Provision: provision,
		Users:     users,
	}
}
