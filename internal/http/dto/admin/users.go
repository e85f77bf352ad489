// Package admin contiene los DTOs de las rutas administrativas.
package admin

// CreateUserRequest es el body de POST /admin/users. Los nombres de
// campo son contrato con el panel.
type CreateUserRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	// Password opcional: si falta se genera una credencial temporal.
	Password string `json:"password,omitempty"`
	Phone    string `json:"phone,omitempty"`
	// AvatarBase64 imagen embebida: data-URI (data:<mime>;base64,...) o
	// base64 pelado. AvatarName solo se usa si el mime no viene en el URI.
	AvatarBase64 string `json:"avatarBase64,omitempty"`
	AvatarName   string `json:"avatarName,omitempty"`
}

// CreatedUser es el payload de éxito. TempPassword se devuelve UNA sola
// vez y nunca se persiste en claro.
type CreatedUser struct {
	ID           string  `json:"id"`
	FullName     string  `json:"full_name"`
	Email        string  `json:"email"`
	Role         string  `json:"role"`
	Phone        *string `json:"phone,omitempty"`
	TempPassword string  `json:"tempPassword"`
	AvatarURL    *string `json:"avatar_url"`
}

// CreateUserResponse envuelve el resultado exitoso (201).
type CreateUserResponse struct {
	Success bool        `json:"success"`
	User    CreatedUser `json:"user"`
}

// User es la vista normalizada de un perfil para listados. Tolera
// esquemas upstream heterogéneos (ver users.Normalize).
type User struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Email      string   `json:"email"`
	AvatarURL  string   `json:"avatar_url,omitempty"`
	Access     []string `json:"access"`
	LastActive string   `json:"last_active,omitempty"`
	DateAdded  string   `json:"date_added,omitempty"`
}

// ListUsersResponse respuesta de GET /admin/users.
type ListUsersResponse struct {
	Users []User `json:"users"`
}

// UpdateUserRequest body de PATCH /admin/users/{id}.
// Punteros nil significan "no tocar".
type UpdateUserRequest struct {
	FullName  *string `json:"full_name"`
	Role      *string `json:"role"`
	Phone     *string `json:"phone"`
	AvatarURL *string `json:"avatar_url"`
}
