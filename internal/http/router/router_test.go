package router_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/ballotdesk/admind/internal/domain/repository"
	adminctl "github.com/ballotdesk/admind/internal/http/controllers/admin"
	"github.com/ballotdesk/admind/internal/http/middlewares"
	"github.com/ballotdesk/admind/internal/http/router"
	adminsvc "github.com/ballotdesk/admind/internal/http/services/admin"
)

// ---- fakes de los tres backends ----

type stubIdentities struct {
	createErr error
	deleted   []string
}

func (s *stubIdentities) Create(ctx context.Context, in repository.CreateIdentityInput) (*repository.Identity, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	return &repository.Identity{ID: "id-777", Email: in.Email, EmailConfirmed: true}, nil
}

func (s *stubIdentities) Delete(ctx context.Context, id string) error {
	s.deleted = append(s.deleted, id)
	return nil
}

type stubBlobs struct {
	uploadErr error
}

func (s *stubBlobs) Upload(ctx context.Context, path string, data []byte, contentType string) error {
	return s.uploadErr
}

func (s *stubBlobs) PublicURL(path string) string {
	return "https://backend.example/storage/v1/object/public/avatars/" + path
}

func (s *stubBlobs) Remove(ctx context.Context, path string) error { return nil }

type stubProfiles struct {
	insertErr error
	rows      []map[string]any
	getErr    error
}

func (s *stubProfiles) Insert(ctx context.Context, p *repository.Profile) error { return s.insertErr }

func (s *stubProfiles) List(ctx context.Context) ([]map[string]any, error) { return s.rows, nil }

func (s *stubProfiles) Get(ctx context.Context, id string) (map[string]any, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return map[string]any{"id": id, "full_name": "Ana"}, nil
}

func (s *stubProfiles) Update(ctx context.Context, id string, in repository.UpdateProfileInput) error {
	return nil
}

func (s *stubProfiles) Delete(ctx context.Context, id string) error { return nil }

type fixture struct {
	identities *stubIdentities
	blobs      *stubBlobs
	profiles   *stubProfiles
	handler    http.Handler
}

func newFixture(admin middlewares.AdminConfig) *fixture {
	f := &fixture{
		identities: &stubIdentities{},
		blobs:      &stubBlobs{},
		profiles:   &stubProfiles{},
	}
	services := adminsvc.NewServices(adminsvc.Deps{
		Identities: f.identities,
		Avatars:    f.blobs,
		Profiles:   f.profiles,
	})
	f.handler = router.New(router.Deps{
		Users: adminctl.NewUsersController(services, 2*time.Second),
		Admin: admin,
	})
	return f
}

func openFixture() *fixture { return newFixture(middlewares.AdminConfig{Enforce: false}) }

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr *strings.Reader
	if body == "" {
		rdr = strings.NewReader("")
	} else {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var out struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out.Error
}

// ---- alta ----

func TestCreateUser_Success(t *testing.T) {
	f := openFixture()
	avatar := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte{1, 2, 3})

	rec := doJSON(t, f.handler, http.MethodPost, "/admin/users",
		`{"full_name":"Ana Gómez","email":"ana@example.com","role":"editor","phone":"+54 11 5555","avatarBase64":"`+avatar+`"}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	var out struct {
		Success bool `json:"success"`
		User    struct {
			ID           string  `json:"id"`
			FullName     string  `json:"full_name"`
			Email        string  `json:"email"`
			Role         string  `json:"role"`
			Phone        *string `json:"phone"`
			TempPassword string  `json:"tempPassword"`
			AvatarURL    *string `json:"avatar_url"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.True(t, out.Success)
	require.Equal(t, "id-777", out.User.ID)
	require.Equal(t, "ana@example.com", out.User.Email)
	require.Equal(t, "editor", out.User.Role)
	require.Regexp(t, regexp.MustCompile(`^[0-9a-f]{12}$`), out.User.TempPassword)
	require.NotNil(t, out.User.AvatarURL)
	require.Contains(t, *out.User.AvatarURL, "avatars/id-777.png")
}

func TestCreateUser_NoAvatar_NullAvatarURL(t *testing.T) {
	f := openFixture()

	rec := doJSON(t, f.handler, http.MethodPost, "/admin/users",
		`{"full_name":"Ana","email":"ana@example.com","role":"admin"}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	user := out["user"].(map[string]any)
	v, present := user["avatar_url"]
	require.True(t, present, "avatar_url must be serialized even when null")
	require.Nil(t, v)
}

func TestCreateUser_MissingFields(t *testing.T) {
	f := openFixture()

	for _, body := range []string{
		`{"email":"ana@example.com","role":"admin"}`,
		`{"full_name":"Ana","role":"admin"}`,
		`{"full_name":"Ana","email":"ana@example.com"}`,
		`{}`,
		`{no es json`,
	} {
		rec := doJSON(t, f.handler, http.MethodPost, "/admin/users", body)
		require.Equal(t, http.StatusBadRequest, rec.Code, "body: %s", body)
		require.Equal(t, "Missing required fields: full_name, email, role", errorBody(t, rec), "body: %s", body)
	}
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	f := openFixture()
	f.identities.createErr = errors.New("A user with this email address has already been registered")

	rec := doJSON(t, f.handler, http.MethodPost, "/admin/users",
		`{"full_name":"Ana","email":"ana@example.com","role":"admin"}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t,
		"Failed to create user: A user with this email address has already been registered",
		errorBody(t, rec))
}

func TestCreateUser_AvatarFailure(t *testing.T) {
	f := openFixture()
	f.blobs.uploadErr = errors.New("bucket not found")
	avatar := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte{1})

	rec := doJSON(t, f.handler, http.MethodPost, "/admin/users",
		`{"full_name":"Ana","email":"ana@example.com","role":"admin","avatarBase64":"`+avatar+`"}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Avatar upload failed", errorBody(t, rec))
	// la identidad creada se compensó
	require.Equal(t, []string{"id-777"}, f.identities.deleted)
}

func TestCreateUser_ProfileFailure(t *testing.T) {
	f := openFixture()
	f.profiles.insertErr = errors.New("duplicate key value violates unique constraint")

	rec := doJSON(t, f.handler, http.MethodPost, "/admin/users",
		`{"full_name":"Ana","email":"ana@example.com","role":"admin"}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t,
		"Failed to insert user record: duplicate key value violates unique constraint",
		errorBody(t, rec))
	require.Equal(t, []string{"id-777"}, f.identities.deleted)
}

// ---- preflight y métodos ----

func TestPreflight(t *testing.T) {
	f := openFixture()

	req := httptest.NewRequest(http.MethodOptions, "/admin/users", nil)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", rec.Body.String())
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "authorization, x-client-info, apikey, content-type", rec.Header().Get("Access-Control-Allow-Headers"))
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Methods"))
}

func TestMethodNotAllowed(t *testing.T) {
	f := openFixture()

	rec := doJSON(t, f.handler, http.MethodPut, "/admin/users", `{}`)
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	require.Equal(t, "Method not allowed", errorBody(t, rec))
	// CORS también en los errores
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestBackendNotConfigured(t *testing.T) {
	h := router.New(router.Deps{
		Users: adminctl.NewUsersController(adminsvc.Services{}, time.Second),
		Admin: middlewares.AdminConfig{Enforce: false},
	})

	for _, c := range []struct{ method, path, body string }{
		{http.MethodPost, "/admin/users", `{"full_name":"Ana","email":"a@b.c","role":"admin"}`},
		{http.MethodGet, "/admin/users", ""},
		{http.MethodGet, "/admin/users/x", ""},
	} {
		rec := doJSON(t, h, c.method, c.path, c.body)
		require.Equal(t, http.StatusInternalServerError, rec.Code, "%s %s", c.method, c.path)
		require.Equal(t, "backend configuration unavailable", errorBody(t, rec), "%s %s", c.method, c.path)
	}
}

// ---- CRUD ----

func TestListUsers(t *testing.T) {
	f := openFixture()
	f.profiles.rows = []map[string]any{
		{"id": "1", "full_name": "Ana", "email": "ana@example.com", "role": "admin"},
	}

	rec := doJSON(t, f.handler, http.MethodGet, "/admin/users", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var out struct {
		Users []struct {
			ID     string   `json:"id"`
			Name   string   `json:"name"`
			Access []string `json:"access"`
		} `json:"users"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out.Users, 1)
	require.Equal(t, "Ana", out.Users[0].Name)
	require.Equal(t, []string{"admin"}, out.Users[0].Access)
}

func TestGetUser_NotFound(t *testing.T) {
	f := openFixture()
	f.profiles.getErr = repository.ErrNotFound

	rec := doJSON(t, f.handler, http.MethodGet, "/admin/users/nope", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "Not found", errorBody(t, rec))
}

// ---- auth ----

func signToken(t *testing.T, secret, role string) string {
	t.Helper()
	tok := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, jwtv5.MapClaims{
		"sub":           "admin-1",
		"user_metadata": map[string]any{"role": role},
		"exp":           time.Now().Add(time.Hour).Unix(),
	})
	signed, err := tok.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestAdminGate(t *testing.T) {
	const secret = "super-secret-hs256"
	f := newFixture(middlewares.AdminConfig{
		Enforce:   true,
		JWTSecret: secret,
		Roles:     []string{"admin", "super_admin"},
	})

	// sin token
	rec := doJSON(t, f.handler, http.MethodGet, "/admin/users", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// token con role insuficiente
	req := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, secret, "viewer"))
	rec = httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)

	// token válido con role admin
	req = httptest.NewRequest(http.MethodGet, "/admin/users", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, secret, "admin"))
	rec = httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}
