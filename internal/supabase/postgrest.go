package supabase

import (
	"context"
	"net/http"
	"net/url"

	"github.com/ballotdesk/admind/internal/domain/repository"
)

// Profiles implementa repository.ProfileRepository sobre la API REST de
// la base (filas de la tabla users).
type Profiles struct {
	c     *Client
	table string
}

// NewProfiles crea el adapter de perfiles.
func NewProfiles(c *Client) *Profiles {
	return &Profiles{c: c, table: "users"}
}

func (p *Profiles) tablePath(query string) string {
	path := "/rest/v1/" + p.table
	if query != "" {
		path += "?" + query
	}
	return path
}

func (p *Profiles) Insert(ctx context.Context, prof *repository.Profile) error {
	row := map[string]any{
		"id":         prof.ID,
		"full_name":  prof.FullName,
		"email":      prof.Email,
		"role":       prof.Role,
		"phone":      prof.Phone,
		"avatar_url": prof.AvatarURL,
	}
	headers := map[string]string{"Prefer": "return=minimal"}
	err := p.c.doJSON(ctx, http.MethodPost, p.tablePath(""), row, nil, headers)
	if apiErr, ok := err.(*APIError); ok && apiErr.Status == http.StatusConflict {
		// fila duplicada: se conserva el mensaje del proveedor
		return apiErr
	}
	return err
}

func (p *Profiles) List(ctx context.Context) ([]map[string]any, error) {
	var rows []map[string]any
	query := "select=*&order=created_at.desc"
	if err := p.c.doJSON(ctx, http.MethodGet, p.tablePath(query), nil, &rows, nil); err != nil {
		return nil, err
	}
	return rows, nil
}

func (p *Profiles) Get(ctx context.Context, id string) (map[string]any, error) {
	var rows []map[string]any
	query := "select=*&limit=1&id=eq." + url.QueryEscape(id)
	if err := p.c.doJSON(ctx, http.MethodGet, p.tablePath(query), nil, &rows, nil); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, repository.ErrNotFound
	}
	return rows[0], nil
}

func (p *Profiles) Update(ctx context.Context, id string, in repository.UpdateProfileInput) error {
	patch := map[string]any{}
	if in.FullName != nil {
		patch["full_name"] = *in.FullName
	}
	if in.Role != nil {
		patch["role"] = *in.Role
	}
	if in.Phone != nil {
		patch["phone"] = *in.Phone
	}
	if in.AvatarURL != nil {
		patch["avatar_url"] = *in.AvatarURL
	}
	if len(patch) == 0 {
		return nil
	}
	query := "id=eq." + url.QueryEscape(id)
	headers := map[string]string{"Prefer": "return=minimal"}
	return p.c.doJSON(ctx, http.MethodPatch, p.tablePath(query), patch, nil, headers)
}

func (p *Profiles) Delete(ctx context.Context, id string) error {
	query := "id=eq." + url.QueryEscape(id)
	return p.c.doJSON(ctx, http.MethodDelete, p.tablePath(query), nil, nil, nil)
}
