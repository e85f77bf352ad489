package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Bloque app (opcional en YAML). Si no está, queda vacío.
	App struct {
		// dev | staging | prod
		Env string `yaml:"app_env"`
	} `yaml:"app"`

	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	// Backend externo (identidad + storage + perfiles).
	Supabase struct {
		URL            string `yaml:"url"`
		ServiceRoleKey string `yaml:"service_role_key"`
		// JWTSecret valida los bearer tokens entrantes en rutas admin.
		JWTSecret string `yaml:"jwt_secret"`
		// AvatarBucket bucket de storage para avatares.
		AvatarBucket string `yaml:"avatar_bucket"`
	} `yaml:"supabase"`

	// Storage elige el adapter de la relación de perfiles.
	Storage struct {
		// Driver: "postgrest" (REST del backend) | "pg" (Postgres directo).
		Driver   string `yaml:"driver"`
		Postgres struct {
			DSN             string `yaml:"dsn"`
			MaxOpenConns    int    `yaml:"max_open_conns"`
			ConnMaxLifetime string `yaml:"conn_max_lifetime"`
		} `yaml:"postgres"`
	} `yaml:"storage"`

	Cache struct {
		Kind  string `yaml:"kind"` // memory | redis
		Redis struct {
			Addr   string `yaml:"addr"`
			DB     int    `yaml:"db"`
			Prefix string `yaml:"prefix"`
		} `yaml:"redis"`
		Memory struct {
			DefaultTTL string `yaml:"default_ttl"`
		} `yaml:"memory"`
		// UsersTTL TTL del cache de lecturas de perfiles.
		UsersTTL string `yaml:"users_ttl"`
	} `yaml:"cache"`

	Rate struct {
		Enabled   bool   `yaml:"enabled"`
		RedisAddr string `yaml:"redis_addr"`
		RedisDB   int    `yaml:"redis_db"`
		Provision struct {
			Limit  int    `yaml:"limit"`
			Window string `yaml:"window"`
		} `yaml:"provision"`
	} `yaml:"rate"`

	Admin struct {
		// Enforce exige JWT con role admin en las rutas /admin.
		// Off por defecto para desarrollo.
		Enforce bool     `yaml:"enforce"`
		Roles   []string `yaml:"roles"`
	} `yaml:"admin"`

	Provision struct {
		// AvatarFailurePolicy: "abort" (rollback de la identidad) |
		// "degrade" (seguir sin avatar).
		AvatarFailurePolicy string `yaml:"avatar_failure_policy"`
		// Timeout total por request de provisioning.
		Timeout string `yaml:"timeout"`
	} `yaml:"provision"`

	SMTP struct {
		Host               string `yaml:"host"`
		Port               int    `yaml:"port"`
		Username           string `yaml:"username"`
		Password           string `yaml:"password"`
		From               string `yaml:"from"`
		TLS                string `yaml:"tls"` // auto | starttls | ssl | none
		InsecureSkipVerify bool   `yaml:"insecure_skip_verify"`
	} `yaml:"smtp"`

	Email struct {
		// WelcomeEnabled manda el mail de bienvenida tras un alta exitosa.
		// Soft-fail: nunca afecta el resultado del provisioning.
		WelcomeEnabled bool   `yaml:"welcome_enabled"`
		WelcomeSubject string `yaml:"welcome_subject"`
	} `yaml:"email"`
}

// Load lee el YAML (si path no está vacío), aplica defaults, overrides
// por env y valida. Con path vacío arranca solo con defaults + env.
func Load(path string) (*Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, err
		}
	}

	// sane defaults
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Supabase.AvatarBucket == "" {
		c.Supabase.AvatarBucket = "avatars"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "postgrest"
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
	}
	if c.Cache.Memory.DefaultTTL == "" {
		c.Cache.Memory.DefaultTTL = "2m"
	}
	if c.Cache.UsersTTL == "" {
		c.Cache.UsersTTL = "30s"
	}
	if c.Rate.Provision.Limit == 0 {
		c.Rate.Provision.Limit = 10
	}
	if c.Rate.Provision.Window == "" {
		c.Rate.Provision.Window = "1m"
	}
	if len(c.Admin.Roles) == 0 {
		c.Admin.Roles = []string{"admin", "super_admin"}
	}
	if c.Provision.AvatarFailurePolicy == "" {
		c.Provision.AvatarFailurePolicy = "abort"
	}
	if c.Provision.Timeout == "" {
		c.Provision.Timeout = "15s"
	}
	if c.SMTP.TLS == "" {
		c.SMTP.TLS = "auto"
	}
	if c.Email.WelcomeSubject == "" {
		c.Email.WelcomeSubject = "Your account is ready"
	}

	// validate string durations
	for _, d := range []string{
		c.Cache.Memory.DefaultTTL,
		c.Cache.UsersTTL,
		c.Rate.Provision.Window,
		c.Provision.Timeout,
	} {
		if _, err := time.ParseDuration(d); err != nil {
			return nil, err
		}
	}
	if c.Storage.Postgres.ConnMaxLifetime != "" {
		if _, err := time.ParseDuration(c.Storage.Postgres.ConnMaxLifetime); err != nil {
			return nil, err
		}
	}

	c.applyEnvOverrides()

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return &c, nil
}

// Validate chequea consistencia. La ausencia de credenciales del backend
// NO es error acá: los controllers responden 500 por request en ese caso.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "postgrest", "pg":
	default:
		return errors.New("config: storage.driver must be postgrest or pg")
	}
	if c.Storage.Driver == "pg" && strings.TrimSpace(c.Storage.Postgres.DSN) == "" {
		return errors.New("config: storage.postgres.dsn required with driver pg")
	}
	switch c.Provision.AvatarFailurePolicy {
	case "abort", "degrade":
	default:
		return errors.New("config: provision.avatar_failure_policy must be abort or degrade")
	}
	if c.Rate.Enabled && strings.TrimSpace(c.Rate.RedisAddr) == "" && strings.TrimSpace(c.Cache.Redis.Addr) == "" {
		return errors.New("config: rate.enabled requires a redis addr")
	}
	return nil
}

// applyEnvOverrides: pisa el YAML con variables de entorno.
func (c *Config) applyEnvOverrides() {
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = v
	}
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.Log.Level = v
	}
	if v, ok := getEnvStr("SUPABASE_URL"); ok {
		c.Supabase.URL = v
	}
	if v, ok := getEnvStr("SUPABASE_SERVICE_ROLE_KEY"); ok {
		c.Supabase.ServiceRoleKey = v
	}
	if v, ok := getEnvStr("SUPABASE_JWT_SECRET"); ok {
		c.Supabase.JWTSecret = v
	}
	if v, ok := getEnvStr("SUPABASE_AVATAR_BUCKET"); ok {
		c.Supabase.AvatarBucket = v
	}
	if v, ok := getEnvStr("STORAGE_DRIVER"); ok {
		c.Storage.Driver = v
	}
	if v, ok := getEnvStr("DATABASE_DSN"); ok {
		c.Storage.Postgres.DSN = v
	}
	if v, ok := getEnvStr("CACHE_KIND"); ok {
		c.Cache.Kind = v
	}
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Cache.Redis.Addr = v
		if c.Rate.RedisAddr == "" {
			c.Rate.RedisAddr = v
		}
	}
	if v, ok := getEnvBool("RATE_ENABLED"); ok {
		c.Rate.Enabled = v
	}
	if v, ok := getEnvBool("ADMIN_ENFORCE"); ok {
		c.Admin.Enforce = v
	}
	if v, ok := getEnvStr("AVATAR_FAILURE_POLICY"); ok {
		c.Provision.AvatarFailurePolicy = v
	}
	if v, ok := getEnvStr("SMTP_HOST"); ok {
		c.SMTP.Host = v
	}
	if v, ok := getEnvInt("SMTP_PORT"); ok {
		c.SMTP.Port = v
	}
	if v, ok := getEnvStr("SMTP_USERNAME"); ok {
		c.SMTP.Username = v
	}
	if v, ok := getEnvStr("SMTP_PASSWORD"); ok {
		c.SMTP.Password = v
	}
	if v, ok := getEnvStr("SMTP_FROM"); ok {
		c.SMTP.From = v
	}
	if v, ok := getEnvBool("EMAIL_WELCOME_ENABLED"); ok {
		c.Email.WelcomeEnabled = v
	}
}

// SupabaseConfigured indica si se pueden construir los clients del backend.
func (c *Config) SupabaseConfigured() bool {
	return strings.TrimSpace(c.Supabase.URL) != "" && strings.TrimSpace(c.Supabase.ServiceRoleKey) != ""
}

// ProvisionTimeout devuelve el timeout parseado (ya validado en Load).
func (c *Config) ProvisionTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Provision.Timeout)
	return d
}

// UsersCacheTTL devuelve el TTL parseado del cache de perfiles.
func (c *Config) UsersCacheTTL() time.Duration {
	d, _ := time.ParseDuration(c.Cache.UsersTTL)
	return d
}

// ---- Helpers env ----

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}

func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}

func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}
