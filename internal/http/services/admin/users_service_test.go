package admin

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ballotdesk/admind/internal/cache"
	"github.com/ballotdesk/admind/internal/domain/repository"
	dto "github.com/ballotdesk/admind/internal/http/dto/admin"
)

func newUsersFixture() (*fakeIdentities, *fakeBlobs, *fakeProfiles, UsersService) {
	ids := &fakeIdentities{}
	blobs := &fakeBlobs{}
	profiles := &fakeProfiles{}
	svc := NewUsersService(UsersDeps{
		Profiles:   profiles,
		Identities: ids,
		Avatars:    blobs,
		Cache:      cache.NewMemory("test:", time.Minute),
		TTL:        time.Minute,
	})
	return ids, blobs, profiles, svc
}

func TestUsersList_CachesSecondRead(t *testing.T) {
	_, _, profiles, svc := newUsersFixture()
	profiles.rows = []map[string]any{
		{"id": "1", "full_name": "Ana", "email": "ana@example.com", "role": "admin"},
		{"id": "2", "name": "Bruno", "user_email": "bruno@example.com"},
	}

	first, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(first) != 2 || first[0].Name != "Ana" || first[1].Name != "Bruno" {
		t.Fatalf("normalized list mismatch: %+v", first)
	}

	second, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if profiles.listCalls != 1 {
		t.Fatalf("second read must come from cache, backend calls = %d", profiles.listCalls)
	}
	if len(second) != 2 {
		t.Fatalf("cached list mismatch: %+v", second)
	}
}

func TestUsersList_InvalidateForcesRefetch(t *testing.T) {
	_, _, profiles, svc := newUsersFixture()
	profiles.rows = []map[string]any{{"id": "1", "full_name": "Ana"}}

	if _, err := svc.List(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	svc.InvalidateList(context.Background())
	if _, err := svc.List(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if profiles.listCalls != 2 {
		t.Fatalf("invalidation must force a refetch, backend calls = %d", profiles.listCalls)
	}
}

func TestUsersGet_NotFound(t *testing.T) {
	_, _, _, svc := newUsersFixture()

	_, err := svc.Get(context.Background(), "nope")
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUsersGet_NormalizesRow(t *testing.T) {
	_, _, profiles, svc := newUsersFixture()
	profiles.getRec = map[string]any{"id": "7", "first_name": "Ana", "last_name": "Gómez", "role": "viewer"}

	u, err := svc.Get(context.Background(), "7")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.Name != "Ana Gómez" || len(u.Access) != 1 || u.Access[0] != "viewer" {
		t.Fatalf("normalization mismatch: %+v", u)
	}
}

func TestUsersUpdate_NotFoundMapsSentinel(t *testing.T) {
	_, _, profiles, svc := newUsersFixture()
	profiles.updateErr = repository.ErrNotFound

	name := "Nuevo Nombre"
	err := svc.Update(context.Background(), "nope", dto.UpdateUserRequest{FullName: &name})
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUsersDelete_ReverseProvisioning(t *testing.T) {
	ids, blobs, profiles, svc := newUsersFixture()
	profiles.getRec = map[string]any{
		"id":         "id-9",
		"full_name":  "Ana",
		"avatar_url": "https://backend.example/storage/v1/object/public/avatars/avatars/id-9.png",
	}

	if err := svc.Delete(context.Background(), "id-9"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(profiles.deleteCalls) != 1 || profiles.deleteCalls[0] != "id-9" {
		t.Fatalf("profile delete missing: %v", profiles.deleteCalls)
	}
	if len(ids.deleteCalls) != 1 || ids.deleteCalls[0] != "id-9" {
		t.Fatalf("identity delete missing: %v", ids.deleteCalls)
	}
	if len(blobs.removed) != 1 || blobs.removed[0] != "avatars/id-9.png" {
		t.Fatalf("avatar delete missing: %v", blobs.removed)
	}
}

func TestUsersDelete_ProfileNotFound(t *testing.T) {
	ids, _, profiles, svc := newUsersFixture()
	profiles.deleteErr = repository.ErrNotFound

	err := svc.Delete(context.Background(), "nope")
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if len(ids.deleteCalls) != 0 {
		t.Fatal("identity must not be touched when the profile does not exist")
	}
}

func TestAvatarPathFromURL(t *testing.T) {
	cases := []struct{ url, want string }{
		{"https://x.example/storage/v1/object/public/avatars/avatars/u1.png", "avatars/u1.png"},
		{"https://x.example/storage/v1/object/public/avatars/u1.png", "u1.png"},
		{"https://cdn.example/otra/cosa.png", ""},
		{"", ""},
	}
	for _, c := range cases {
		if got := avatarPathFromURL(c.url); got != c.want {
			t.Fatalf("avatarPathFromURL(%q) = %q, want %q", c.url, got, c.want)
		}
	}
}
