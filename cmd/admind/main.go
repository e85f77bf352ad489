package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ballotdesk/admind/internal/config"
	dto "github.com/ballotdesk/admind/internal/http/dto/admin"
	"github.com/ballotdesk/admind/internal/http/server"
	adminsvc "github.com/ballotdesk/admind/internal/http/services/admin"
	"github.com/ballotdesk/admind/internal/observability/logger"
	"github.com/ballotdesk/admind/internal/supabase"
)

var version = "dev"

func main() {
	root := &cobra.Command{
		Use:           "admind",
		Short:         "Backend administrativo: alta orquestada de usuarios y gestión de perfiles",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("config", "", "ruta del archivo de configuración YAML")

	root.AddCommand(newServeCmd(), newProvisionCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	// .env es opcional, las env vars del sistema siempre aplican
	_ = godotenv.Load()

	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = os.Getenv("ADMIND_CONFIG")
	}
	return config.Load(path)
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Levanta el servidor HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			logger.Init(logger.Config{
				Env:         cfg.App.Env,
				Level:       cfg.Log.Level,
				ServiceName: "admind",
				Version:     version,
			})
			defer func() { _ = logger.Sync() }()
			log := logger.L()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			handler, cleanup, err := server.BuildHandler(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() {
				if err := cleanup(); err != nil {
					log.Warn("cleanup error", logger.Err(err))
				}
			}()

			srv := &http.Server{
				Addr:         cfg.Server.Addr,
				Handler:      handler,
				ReadTimeout:  10 * time.Second,
				WriteTimeout: 30 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				log.Info("server listening", logger.String("addr", cfg.Server.Addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			log.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
}

// newProvisionCmd da de alta un usuario desde la terminal, sin pasar
// por el server HTTP. Útil para el bootstrap del primer admin.
func newProvisionCmd() *cobra.Command {
	var (
		email    string
		fullName string
		role     string
		phone    string
		password string
		avatar   string
	)

	cmd := &cobra.Command{
		Use:   "provision",
		Short: "Da de alta un usuario (identidad + perfil) desde la terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if !cfg.SupabaseConfigured() {
				return errors.New("faltan credenciales del backend (SUPABASE_URL / SUPABASE_SERVICE_ROLE_KEY)")
			}

			logger.Init(logger.Config{
				Env:         cfg.App.Env,
				Level:       "warn",
				ServiceName: "admind",
				Version:     version,
			})
			defer func() { _ = logger.Sync() }()

			sb, err := supabase.New(supabase.Config{
				BaseURL:    cfg.Supabase.URL,
				ServiceKey: cfg.Supabase.ServiceRoleKey,
				Timeout:    cfg.ProvisionTimeout(),
			})
			if err != nil {
				return err
			}

			services := adminsvc.NewServices(adminsvc.Deps{
				Identities:   supabase.NewAdminIdentities(sb),
				Avatars:      supabase.NewStorage(sb, cfg.Supabase.AvatarBucket),
				Profiles:     supabase.NewProfiles(sb),
				AvatarPolicy: adminsvc.AvatarFailurePolicy(cfg.Provision.AvatarFailurePolicy),
			})

			req := dto.CreateUserRequest{
				FullName: fullName,
				Email:    email,
				Role:     role,
				Phone:    phone,
				Password: password,
			}
			if avatar != "" {
				raw, err := os.ReadFile(avatar)
				if err != nil {
					return fmt.Errorf("leyendo avatar: %w", err)
				}
				mime := http.DetectContentType(raw)
				req.AvatarBase64 = "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(raw)
				req.AvatarName = avatar
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.ProvisionTimeout())
			defer cancel()

			user, err := services.Provision.Provision(ctx, req)
			if err != nil {
				return err
			}

			out, _ := json.MarshalIndent(user, "", "  ")
			fmt.Println(string(out))
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email del usuario (requerido)")
	cmd.Flags().StringVar(&fullName, "full-name", "", "nombre completo (requerido)")
	cmd.Flags().StringVar(&role, "role", "", "rol asignado (requerido)")
	cmd.Flags().StringVar(&phone, "phone", "", "teléfono (opcional)")
	cmd.Flags().StringVar(&password, "password", "", "password inicial; si falta se genera una temporal")
	cmd.Flags().StringVar(&avatar, "avatar", "", "ruta de una imagen para subir como avatar")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("full-name")
	_ = cmd.MarkFlagRequired("role")

	return cmd
}
