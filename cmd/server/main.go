package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"healthtrack/internal/config"
	"healthtrack/internal/ledger"
	"healthtrack/internal/platform/db"
	"healthtrack/internal/platform/fsstore"
	"healthtrack/internal/platform/logging"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "healthtrack",
		Short:        "Health metrics consultation server",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(ledgerCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setup() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	return cfg, logging.New(cfg.LogLevel, cfg.IsDev(), os.Stdout), nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			if cfg.StorageDriver != config.DriverPostgres {
				return fmt.Errorf("migrations require STORAGE_DRIVER=%s", config.DriverPostgres)
			}
			if err := db.MigrateUp(cfg.DatabaseURL); err != nil {
				return err
			}
			log.Info().Msg("migrations applied")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back all migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			if cfg.StorageDriver != config.DriverPostgres {
				return fmt.Errorf("migrations require STORAGE_DRIVER=%s", config.DriverPostgres)
			}
			if err := db.MigrateDown(cfg.DatabaseURL); err != nil {
				return err
			}
			log.Info().Msg("migrations rolled back")
			return nil
		},
	})
	return cmd
}

func ledgerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect completed consultations",
	}

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Write the ledger to an XLSX workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, _ := cmd.Flags().GetString("out")
			username, _ := cmd.Flags().GetString("username")

			cfg, log, err := setup()
			if err != nil {
				return err
			}
			st, err := openStores(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer st.Close()

			var entries []*ledger.Entry
			if username != "" {
				entries, err = st.ledger.ListByUsername(cmd.Context(), username)
			} else {
				entries, err = st.ledger.List(cmd.Context())
			}
			if err != nil {
				return err
			}

			var buf bytes.Buffer
			if err := ledger.Export(&buf, entries); err != nil {
				return err
			}
			if err := fsstore.WriteFile(out, buf.Bytes()); err != nil {
				return err
			}
			log.Info().Str("file", out).Int("entries", len(entries)).Msg("ledger exported")
			return nil
		},
	}
	exportCmd.Flags().String("out", "consultations.xlsx", "Output file")
	exportCmd.Flags().String("username", "", "Only export this patient's consultations")
	cmd.AddCommand(exportCmd)
	return cmd
}

func runServer(ctx context.Context) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("failed to open storage")
		return err
	}
	defer st.Close()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newRouter(cfg, st, log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("storage", cfg.StorageDriver).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		log.Error().Err(err).Msg("server error")
		return err
	case <-quit:
	}

	log.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	log.Info().Msg("server stopped")
	return nil
}
