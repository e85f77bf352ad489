// Package pg implementa ProfileRepository contra el Postgres que vive
// detrás del backend, para despliegues con acceso directo a la base.
package pg

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ballotdesk/admind/internal/domain/repository"
	migrations "github.com/ballotdesk/admind/migrations/postgres"
)

// ProfileRepo implementa repository.ProfileRepository con pgx.
type ProfileRepo struct {
	pool *pgxpool.Pool
}

// Config de conexión.
type Config struct {
	DSN             string
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

// New abre el pool y verifica conectividad.
func New(ctx context.Context, cfg Config) (*ProfileRepo, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, err
	}
	if cfg.MaxOpenConns > 0 {
		pcfg.MaxConns = int32(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		pcfg.MaxConnLifetime = cfg.ConnMaxLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &ProfileRepo{pool: pool}, nil
}

// Close libera el pool.
func (r *ProfileRepo) Close() { r.pool.Close() }

// Ping verifica conectividad, usado por el readiness check.
func (r *ProfileRepo) Ping(ctx context.Context) error { return r.pool.Ping(ctx) }

// EnsureSchema aplica las migraciones embebidas en orden lexicográfico.
// Todas son idempotentes (IF NOT EXISTS), así que correrlas en cada
// arranque es seguro.
func (r *ProfileRepo) EnsureSchema(ctx context.Context) error {
	entries, err := migrations.FS.ReadDir(".")
	if err != nil {
		return err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	for _, name := range names {
		sql, err := migrations.FS.ReadFile(name)
		if err != nil {
			return err
		}
		if _, err := r.pool.Exec(ctx, string(sql)); err != nil {
			return fmt.Errorf("migration %s: %w", name, err)
		}
	}
	return nil
}

func (r *ProfileRepo) Insert(ctx context.Context, p *repository.Profile) error {
	const query = `
		INSERT INTO users (id, full_name, email, role, phone, avatar_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
	`
	_, err := r.pool.Exec(ctx, query, p.ID, p.FullName, p.Email, p.Role, p.Phone, p.AvatarURL)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		// se conserva el mensaje del motor para el controller
		return &conflictError{msg: pgErr.Message}
	}
	return err
}

type conflictError struct{ msg string }

func (e *conflictError) Error() string { return e.msg }

func (e *conflictError) Is(target error) bool { return target == repository.ErrConflict }

func (r *ProfileRepo) List(ctx context.Context) ([]map[string]any, error) {
	const query = `SELECT * FROM users ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToMap)
}

func (r *ProfileRepo) Get(ctx context.Context, id string) (map[string]any, error) {
	const query = `SELECT * FROM users WHERE id = $1`
	rows, err := r.pool.Query(ctx, query, id)
	if err != nil {
		return nil, err
	}
	rec, err := pgx.CollectOneRow(rows, pgx.RowToMap)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	return rec, err
}

func (r *ProfileRepo) Update(ctx context.Context, id string, in repository.UpdateProfileInput) error {
	const query = `
		UPDATE users SET
			full_name  = COALESCE($2, full_name),
			role       = COALESCE($3, role),
			phone      = COALESCE($4, phone),
			avatar_url = COALESCE($5, avatar_url)
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query, id, in.FullName, in.Role, in.Phone, in.AvatarURL)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *ProfileRepo) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM users WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}
