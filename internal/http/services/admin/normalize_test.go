package admin

import (
	"reflect"
	"testing"
	"time"
)

func TestNormalize_CanonicalRow(t *testing.T) {
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	u := Normalize(map[string]any{
		"id":         "abc",
		"full_name":  "Ana Gómez",
		"email":      "ana@example.com",
		"role":       "editor",
		"avatar_url": "https://cdn.example/a.png",
		"created_at": created,
	})

	if u.ID != "abc" || u.Name != "Ana Gómez" || u.Email != "ana@example.com" {
		t.Fatalf("canonical fields mismatch: %+v", u)
	}
	if u.AvatarURL != "https://cdn.example/a.png" {
		t.Fatalf("avatar mismatch: %q", u.AvatarURL)
	}
	if !reflect.DeepEqual(u.Access, []string{"editor"}) {
		t.Fatalf("access = %v, want [editor]", u.Access)
	}
	if u.DateAdded != "2026-03-01T10:00:00Z" {
		t.Fatalf("created_at not rendered as RFC3339: %q", u.DateAdded)
	}
}

func TestNormalize_NamePrecedence(t *testing.T) {
	// full_name gana siempre
	u := Normalize(map[string]any{"full_name": "A", "name": "B", "first_name": "C", "last_name": "D"})
	if u.Name != "A" {
		t.Fatalf("name = %q, want A", u.Name)
	}
	// name antes que first/last
	u = Normalize(map[string]any{"name": "B", "first_name": "C", "last_name": "D"})
	if u.Name != "B" {
		t.Fatalf("name = %q, want B", u.Name)
	}
	// composición first+last como último recurso
	u = Normalize(map[string]any{"first_name": "C", "last_name": "D"})
	if u.Name != "C D" {
		t.Fatalf("name = %q, want C D", u.Name)
	}
	// first solo no alcanza
	u = Normalize(map[string]any{"first_name": "C"})
	if u.Name != "" {
		t.Fatalf("name = %q, want empty", u.Name)
	}
}

func TestNormalize_AccessList(t *testing.T) {
	u := Normalize(map[string]any{"access": []any{"admin", "billing", ""}})
	if !reflect.DeepEqual(u.Access, []string{"admin", "billing"}) {
		t.Fatalf("access = %v", u.Access)
	}

	// sin access ni role: lista vacía, nunca nil
	u = Normalize(map[string]any{})
	if u.Access == nil || len(u.Access) != 0 {
		t.Fatalf("access = %#v, want empty non-nil slice", u.Access)
	}
}

func TestNormalize_AlternateColumnNames(t *testing.T) {
	u := Normalize(map[string]any{
		"id":            int64(42),
		"user_email":    "x@example.com",
		"avatar":        "https://cdn.example/x.png",
		"lastActive":    "2026-01-15",
		"inserted_at":   "2025-12-01",
	})
	if u.ID != "42" {
		t.Fatalf("numeric id not stringified: %q", u.ID)
	}
	if u.Email != "x@example.com" || u.AvatarURL != "https://cdn.example/x.png" {
		t.Fatalf("alternate columns not picked up: %+v", u)
	}
	if u.LastActive != "2026-01-15" || u.DateAdded != "2025-12-01" {
		t.Fatalf("activity columns mismatch: %+v", u)
	}
}
