// cmd/main.go is the application entry point.
// It wires together all layers and exposes them as CLI subcommands.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Shivanand-hulikatti/lesson-schedule/internal/config"
	"github.com/Shivanand-hulikatti/lesson-schedule/internal/database"
	"github.com/Shivanand-hulikatti/lesson-schedule/internal/handler"
	"github.com/Shivanand-hulikatti/lesson-schedule/internal/logging"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string
	root := &cobra.Command{
		Use:          "lesson-schedule",
		Short:        "Dance lesson schedule and lesson-commit service",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to the YAML config file")

	load := func() (*config.Config, error) {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		logging.Setup(os.Stderr, cfg.Log.Level, cfg.Log.Format)
		return cfg, nil
	}

	root.AddCommand(newServeCmd(load), newMigrateCmd(load), newDueCmd(load))
	return root
}

func newServeCmd(load func() (*config.Config, error)) *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", true, "apply the schema before serving (postgres only)")
	return cmd
}

func newMigrateCmd(load func() (*config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the PostgreSQL schema and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			pool, err := database.NewPool(cmd.Context(), cfg.Database)
			if err != nil {
				return fmt.Errorf("database: %w", err)
			}
			defer pool.Close()
			if err := database.Migrate(cmd.Context(), pool); err != nil {
				return err
			}
			logging.Info("schema applied")
			return nil
		},
	}
}

func newDueCmd(load func() (*config.Config, error)) *cobra.Command {
	var countOnly bool
	cmd := &cobra.Command{
		Use:   "due",
		Short: "Print the lessons waiting to be committed",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if countOnly {
				n, err := a.services.Commits.Count(cmd.Context())
				if err != nil {
					return err
				}
				return enc.Encode(map[string]int{"count": n})
			}
			due, err := a.services.Commits.Queue(cmd.Context())
			if err != nil {
				return err
			}
			return enc.Encode(due)
		},
	}
	cmd.Flags().BoolVar(&countOnly, "count", false, "print only the number of due lessons")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config, migrate bool) error {
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if migrate && a.pool != nil {
		if err := database.Migrate(ctx, a.pool); err != nil {
			return err
		}
		logging.Info("schema applied")
	}

	srv := &http.Server{
		Addr: cfg.Server.Listen,
		Handler: handler.NewRouter(a.services, handler.RouterOptions{
			CORSOrigin: cfg.Server.CORSOrigin,
			Metrics:    a.metrics,
		}),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Run in background goroutine so we can listen for shutdown signal.
	errc := make(chan error, 1)
	go func() {
		logging.Info("server listening", "addr", cfg.Server.Listen, "storage", cfg.Storage, "zone", cfg.Timezone)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	// Block until SIGINT or SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-quit:
	}

	logging.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	logging.Info("server stopped")
	return nil
}
