// Package server arma el handler HTTP con todas sus dependencias.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	rdb "github.com/redis/go-redis/v9"

	"github.com/ballotdesk/admind/internal/cache"
	"github.com/ballotdesk/admind/internal/config"
	"github.com/ballotdesk/admind/internal/domain/repository"
	"github.com/ballotdesk/admind/internal/email"
	adminctl "github.com/ballotdesk/admind/internal/http/controllers/admin"
	"github.com/ballotdesk/admind/internal/http/middlewares"
	"github.com/ballotdesk/admind/internal/http/router"
	adminsvc "github.com/ballotdesk/admind/internal/http/services/admin"
	"github.com/ballotdesk/admind/internal/observability/logger"
	"github.com/ballotdesk/admind/internal/rate"
	"github.com/ballotdesk/admind/internal/store/pg"
	"github.com/ballotdesk/admind/internal/supabase"
)

// BuildHandler construye el handler HTTP completo a partir de la
// configuración. Devuelve además un cleanup que cierra pools y
// conexiones.
//
// Si el backend de identidad no está configurado el server arranca
// igual: los controllers responden el error de configuración por
// request en vez de tirar el proceso.
func BuildHandler(ctx context.Context, cfg *config.Config) (http.Handler, func() error, error) {
	log := logger.With(logger.Layer("server"), logger.Op("BuildHandler"))

	var cleanups []func() error
	cleanup := func() error {
		var first error
		for i := len(cleanups) - 1; i >= 0; i-- {
			if err := cleanups[i](); err != nil && first == nil {
				first = err
			}
		}
		return first
	}

	var services adminsvc.Services
	var ready func() error

	if cfg.SupabaseConfigured() {
		sb, err := supabase.New(supabase.Config{
			BaseURL:    cfg.Supabase.URL,
			ServiceKey: cfg.Supabase.ServiceRoleKey,
			Timeout:    cfg.ProvisionTimeout(),
		})
		if err != nil {
			return nil, nil, fmt.Errorf("supabase client: %w", err)
		}

		identities := supabase.NewAdminIdentities(sb)
		avatars := supabase.NewStorage(sb, cfg.Supabase.AvatarBucket)

		var profiles repository.ProfileRepository
		switch cfg.Storage.Driver {
		case "pg":
			lifetime, _ := time.ParseDuration(cfg.Storage.Postgres.ConnMaxLifetime)
			repo, err := pg.New(ctx, pg.Config{
				DSN:             cfg.Storage.Postgres.DSN,
				MaxOpenConns:    cfg.Storage.Postgres.MaxOpenConns,
				ConnMaxLifetime: lifetime,
			})
			if err != nil {
				return nil, nil, fmt.Errorf("postgres pool: %w", err)
			}
			if err := repo.EnsureSchema(ctx); err != nil {
				repo.Close()
				return nil, nil, fmt.Errorf("apply migrations: %w", err)
			}
			cleanups = append(cleanups, func() error { repo.Close(); return nil })
			profiles = repo
			ready = func() error {
				pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				return repo.Ping(pingCtx)
			}
		default:
			profiles = supabase.NewProfiles(sb)
		}

		cacheClient := cache.New(cache.Config{
			Kind:       cfg.Cache.Kind,
			Addr:       cfg.Cache.Redis.Addr,
			DB:         cfg.Cache.Redis.DB,
			Prefix:     cfg.Cache.Redis.Prefix,
			DefaultTTL: cfg.UsersCacheTTL(),
		})
		cleanups = append(cleanups, cacheClient.Close)

		var welcome *email.WelcomeMailer
		if cfg.Email.WelcomeEnabled && cfg.SMTP.Host != "" {
			sender := email.NewSMTPSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.From, cfg.SMTP.Username, cfg.SMTP.Password)
			sender.TLSMode = cfg.SMTP.TLS
			sender.InsecureSkipVerify = cfg.SMTP.InsecureSkipVerify
			welcome = &email.WelcomeMailer{Sender: sender, Subject: cfg.Email.WelcomeSubject}
		}

		services = adminsvc.NewServices(adminsvc.Deps{
			Identities:   identities,
			Avatars:      avatars,
			Profiles:     profiles,
			Cache:        cacheClient,
			UsersTTL:     cfg.UsersCacheTTL(),
			AvatarPolicy: adminsvc.AvatarFailurePolicy(cfg.Provision.AvatarFailurePolicy),
			Welcome:      welcome,
		})
	} else {
		log.Warn("supabase credentials missing, admin routes will reject requests")
	}

	var limiter middlewares.RateLimiter
	if cfg.Rate.Enabled && cfg.Rate.RedisAddr != "" {
		window, _ := time.ParseDuration(cfg.Rate.Provision.Window)
		client := rdb.NewClient(&rdb.Options{Addr: cfg.Rate.RedisAddr, DB: cfg.Rate.RedisDB})
		cleanups = append(cleanups, client.Close)
		limiter = limiterAdapter{rate.NewRedisLimiter(client, "rl:admind:", cfg.Rate.Provision.Limit, window)}
	}

	handler := router.New(router.Deps{
		Users: adminctl.NewUsersController(services, cfg.ProvisionTimeout()),
		Admin: middlewares.AdminConfig{
			Enforce:   cfg.Admin.Enforce,
			JWTSecret: cfg.Supabase.JWTSecret,
			Roles:     cfg.Admin.Roles,
		},
		Limiter: limiter,
		Ready:   ready,
	})

	return handler, cleanup, nil
}

// limiterAdapter traduce el resultado del limiter de redis al contrato
// que espera el middleware.
type limiterAdapter struct {
	l rate.Limiter
}

func (a limiterAdapter) Allow(ctx context.Context, key string) (middlewares.RateLimitResult, error) {
	res, err := a.l.Allow(ctx, key)
	return middlewares.RateLimitResult{
		Allowed:    res.Allowed,
		Remaining:  res.Remaining,
		RetryAfter: res.RetryAfter,
	}, err
}
