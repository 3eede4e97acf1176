package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"vet-med-tracker/internal/adapters/auth/idp"
	"vet-med-tracker/internal/adapters/auth/jwtauth"
	pg "vet-med-tracker/internal/adapters/storage/postgres"
	"vet-med-tracker/internal/config"
	"vet-med-tracker/internal/platform/logger"
	"vet-med-tracker/internal/platform/metrics"
	"vet-med-tracker/internal/ports/auth"
	"vet-med-tracker/internal/router"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "vetmed-api",
		Short: "API de medicación de mascotas del hogar",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(tokenCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Levanta el servidor HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func runServer() error {
	cfg, err := config.LoadServer()
	if err != nil {
		return err
	}
	log := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.LogLevel),
		Format: logger.ParseFormat(cfg.LogFormat),
		App:    cfg.AppName,
	})
	if err := cfg.Validate(); err != nil {
		log.Error("invalid config", map[string]any{"err": err})
		return err
	}

	verifier, err := buildVerifier(cfg)
	if err != nil {
		return err
	}

	// Sin DB_DSN se usa almacenamiento en memoria (dev).
	var db *sql.DB
	if cfg.DBDSN != "" {
		db, err = pg.Open(cfg.DBDSN)
		if err != nil {
			log.Error("failed to connect to database", map[string]any{"err": err})
			return err
		}
		defer func() { _ = db.Close() }()
		log.Info("connected to database", nil)
	} else {
		log.Warn("DB_DSN not set, using in-memory storage", nil)
	}

	r := router.NewRouter(router.Options{
		AuthVerifier:      verifier,
		DB:                db,
		Log:               log,
		Metrics:           metrics.NewServer(),
		TrustClientStatus: cfg.TrustClientStatus,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", map[string]any{"addr": srv.Addr, "auth_mode": cfg.ResolvedAuthMode()})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Error("server error", map[string]any{"err": err})
			return err
		}
		return nil
	case <-quit:
	}

	log.Info("shutting down server", nil)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server shutdown failed", map[string]any{"err": err})
		return err
	}
	log.Info("server stopped", nil)
	return nil
}

// buildVerifier devuelve nil en modo dev (X-Debug-User-ID).
func buildVerifier(cfg *config.Server) (auth.AuthVerifier, error) {
	switch cfg.ResolvedAuthMode() {
	case config.AuthModeJWT:
		return jwtauth.NewVerifier(cfg.JWTSecret, cfg.JWTIssuer), nil
	case config.AuthModeIDP:
		client, err := idp.NewClient(idp.Config{BaseURL: cfg.IDPBaseURL, APIKey: cfg.IDPAPIKey})
		if err != nil {
			return nil, fmt.Errorf("identity provider client: %w", err)
		}
		return idp.NewVerifier(client), nil
	default:
		return nil, nil
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Migraciones de Postgres",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Aplica migraciones pendientes",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			applied, err := pg.NewMigrator(db).Up(cmd.Context())
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			for _, v := range applied {
				fmt.Fprintf(cmd.OutOrStdout(), "applied %s\n", v)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s).\n", len(applied))
			return nil
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Muestra el estado de las migraciones",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			statuses, err := pg.NewMigrator(db).Status(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-30s %-10s %s\n", "VERSION", "STATUS", "APPLIED AT")
			for _, s := range statuses {
				state, at := "pending", ""
				if s.Applied {
					state = "applied"
				}
				if s.AppliedAt != nil {
					at = s.AppliedAt.Format(time.RFC3339)
				}
				fmt.Fprintf(out, "%-30s %-10s %s\n", s.Version, state, at)
			}
			return nil
		},
	}

	cmd.AddCommand(upCmd, statusCmd)
	return cmd
}

func openDB() (*sql.DB, error) {
	cfg, err := config.LoadServer()
	if err != nil {
		return nil, err
	}
	if cfg.DBDSN == "" {
		return nil, errors.New("DB_DSN is required")
	}
	return pg.Open(cfg.DBDSN)
}

// tokenCmd emite tokens HS256 para clientes (medsync) cuando AUTH_MODE=jwt.
func tokenCmd() *cobra.Command {
	var (
		userID    string
		household string
		ttl       time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Emite un token firmado con JWT_SECRET",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadServer()
			if err != nil {
				return err
			}
			if cfg.JWTSecret == "" {
				return errors.New("JWT_SECRET is required")
			}
			if userID == "" {
				return errors.New("--user is required")
			}

			tok, err := jwtauth.Issue(cfg.JWTSecret, cfg.JWTIssuer, userID, household, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "ID del usuario")
	cmd.Flags().StringVar(&household, "household", "", "ID del hogar (default: el del usuario)")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Vigencia del token")
	return cmd
}
