package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/sagarc03/mediagate"
	"github.com/sagarc03/mediagate/config"
	mghttp "github.com/sagarc03/mediagate/http"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the mediagate HTTP server.

Streaming responses have no write timeout; only header reads and idle
keep-alive connections are bounded.`,
	RunE: runServe,
}

var serveMigrate bool

func init() {
	serveCmd.Flags().Int("port", 5708, "HTTP server port")
	serveCmd.Flags().String("api-prefix", mghttp.DefaultAPIPrefix, "path prefix the API is mounted under")
	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", false, "create missing tables before serving (also: database.auto_migrate)")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b, err := openBackend(ctx, cfg, serveMigrate || cfg.Database.AutoMigrate)
	if err != nil {
		return err
	}
	defer b.Close()

	uploadAuth, uploadsEnabled, err := cfg.Auth.UploadVerifier()
	if err != nil {
		return fmt.Errorf("load upload credentials: %w", err)
	}
	if !uploadsEnabled {
		slog.Warn("no upload secret configured, uploads will be rejected")
	}

	records, err := mediagate.NewRecordService(b.db.GetRecords(), nil)
	if err != nil {
		return fmt.Errorf("create record service: %w", err)
	}

	handlerConfig := mghttp.HandlerConfig{
		APIPrefix:     cfg.Server.APIPrefix,
		UploadAuth:    uploadAuth,
		CacheMaxAge:   cfg.Server.CacheMaxAge,
		MediaRanges:   cfg.Server.MediaRanges,
		MaxUploadSize: cfg.Server.MaxUploadSize,
		SpoolDir:      cfg.Server.SpoolDir,
		CORS:          cfg.CORS,
		Logger:        slog.Default(),
	}
	handler := mghttp.NewHandler(&handlerConfig, b.service, records)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: time.Duration(cfg.Server.ReadHeaderTimeout) * time.Second,
		IdleTimeout:       time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("starting server", "addr", addr, "api_prefix", handlerConfig.APIPrefix, "storage", cfg.Storage.Type)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		slog.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}
