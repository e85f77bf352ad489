package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	c, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Server.Addr != ":8080" {
		t.Fatalf("addr = %q", c.Server.Addr)
	}
	if c.Supabase.AvatarBucket != "avatars" {
		t.Fatalf("bucket = %q", c.Supabase.AvatarBucket)
	}
	if c.Storage.Driver != "postgrest" {
		t.Fatalf("driver = %q", c.Storage.Driver)
	}
	if c.Provision.AvatarFailurePolicy != "abort" {
		t.Fatalf("avatar policy = %q", c.Provision.AvatarFailurePolicy)
	}
	if c.ProvisionTimeout() != 15*time.Second {
		t.Fatalf("provision timeout = %v", c.ProvisionTimeout())
	}
	if c.SupabaseConfigured() {
		t.Fatal("no credentials were given, must not report configured")
	}
	if len(c.Admin.Roles) != 2 {
		t.Fatalf("default roles = %v", c.Admin.Roles)
	}
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
server:
  addr: ":9999"
supabase:
  url: "https://proj.example"
  service_role_key: "sk-123"
provision:
  avatar_failure_policy: degrade
  timeout: 5s
cache:
  users_ttl: 45s
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Server.Addr != ":9999" {
		t.Fatalf("addr = %q", c.Server.Addr)
	}
	if !c.SupabaseConfigured() {
		t.Fatal("credentials given, must report configured")
	}
	if c.Provision.AvatarFailurePolicy != "degrade" {
		t.Fatalf("avatar policy = %q", c.Provision.AvatarFailurePolicy)
	}
	if c.ProvisionTimeout() != 5*time.Second {
		t.Fatalf("timeout = %v", c.ProvisionTimeout())
	}
	if c.UsersCacheTTL() != 45*time.Second {
		t.Fatalf("users ttl = %v", c.UsersCacheTTL())
	}
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  addr: \":9999\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("SERVER_ADDR", ":7777")
	t.Setenv("SUPABASE_URL", "https://env.example")
	t.Setenv("SUPABASE_SERVICE_ROLE_KEY", "sk-env")
	t.Setenv("AVATAR_FAILURE_POLICY", "degrade")
	t.Setenv("ADMIN_ENFORCE", "true")

	c, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Server.Addr != ":7777" {
		t.Fatalf("env must win over yaml, addr = %q", c.Server.Addr)
	}
	if c.Supabase.URL != "https://env.example" || !c.SupabaseConfigured() {
		t.Fatalf("supabase env overrides not applied: %+v", c.Supabase)
	}
	if c.Provision.AvatarFailurePolicy != "degrade" {
		t.Fatalf("policy = %q", c.Provision.AvatarFailurePolicy)
	}
	if !c.Admin.Enforce {
		t.Fatal("ADMIN_ENFORCE not applied")
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Run("bad driver", func(t *testing.T) {
		t.Setenv("STORAGE_DRIVER", "cassandra")
		if _, err := Load(""); err == nil {
			t.Fatal("expected validation error")
		}
	})

	t.Run("pg without dsn", func(t *testing.T) {
		t.Setenv("STORAGE_DRIVER", "pg")
		if _, err := Load(""); err == nil {
			t.Fatal("expected validation error")
		}
	})

	t.Run("bad avatar policy", func(t *testing.T) {
		t.Setenv("AVATAR_FAILURE_POLICY", "retry")
		if _, err := Load(""); err == nil {
			t.Fatal("expected validation error")
		}
	})

	t.Run("bad duration in yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		if err := os.WriteFile(path, []byte("provision:\n  timeout: quince\n"), 0o600); err != nil {
			t.Fatal(err)
		}
		if _, err := Load(path); err == nil {
			t.Fatal("expected duration parse error")
		}
	})
}
