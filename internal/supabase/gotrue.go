package supabase

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ballotdesk/admind/internal/domain/repository"
)

// AdminIdentities implementa repository.IdentityProvider contra el
// endpoint admin del servicio de identidad. Requiere la service key.
type AdminIdentities struct {
	c *Client
}

// NewAdminIdentities crea el adapter de identidades.
func NewAdminIdentities(c *Client) *AdminIdentities {
	return &AdminIdentities{c: c}
}

type gotrueUser struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	EmailConfirm string         `json:"email_confirmed_at"`
	UserMetadata map[string]any `json:"user_metadata"`
	CreatedAt    time.Time      `json:"created_at"`
}

type adminCreateUserBody struct {
	Email        string         `json:"email"`
	Password     string         `json:"password"`
	EmailConfirm bool           `json:"email_confirm"`
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
}

func (a *AdminIdentities) Create(ctx context.Context, in repository.CreateIdentityInput) (*repository.Identity, error) {
	body := adminCreateUserBody{
		Email:        in.Email,
		Password:     in.Password,
		EmailConfirm: in.EmailConfirm,
		UserMetadata: in.Metadata,
	}

	var out gotrueUser
	if err := a.c.doJSON(ctx, http.MethodPost, "/auth/v1/admin/users", body, &out, nil); err != nil {
		return nil, err
	}
	if out.ID == "" {
		return nil, fmt.Errorf("identity create: empty id in response")
	}

	return &repository.Identity{
		ID:             out.ID,
		Email:          out.Email,
		EmailConfirmed: out.EmailConfirm != "",
		Metadata:       out.UserMetadata,
		CreatedAt:      out.CreatedAt,
	}, nil
}

func (a *AdminIdentities) Delete(ctx context.Context, id string) error {
	path := "/auth/v1/admin/users/" + url.PathEscape(id)
	err := a.c.doJSON(ctx, http.MethodDelete, path, nil, nil, nil)
	if apiErr, ok := err.(*APIError); ok && apiErr.Status == http.StatusNotFound {
		return repository.ErrNotFound
	}
	return err
}
