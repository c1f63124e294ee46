package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/classtrack/attendance-service/internal/app"
	"github.com/classtrack/attendance-service/internal/config"
)

func main() {
	root := &cobra.Command{
		Use:   "attendance-service",
		Short: "QR-code lecture attendance backend",
	}
	root.AddCommand(newServeCommand(), newSeedCommand())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger() *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)
	return logger
}

func setup(ctx context.Context) (*app.App, *slog.Logger, error) {
	logger := newLogger()
	if err := config.LoadEnvFile(".env"); err != nil {
		return nil, logger, err
	}
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, logger, err
	}
	application, err := app.Build(ctx, cfg, logger)
	if err != nil {
		return nil, logger, err
	}
	return application, logger, nil
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			application, logger, err := setup(ctx)
			if err != nil {
				logger.Error("startup failed", "error", err.Error())
				return err
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("http server listening", "addr", application.Config.HTTPAddr)
				if err := application.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			select {
			case err := <-errCh:
				logger.Error("http server failed", "error", err.Error())
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := application.Shutdown(shutdownCtx); err != nil {
				logger.Error("shutdown incomplete", "error", err.Error())
				return err
			}
			logger.Info("server stopped")
			return nil
		},
	}
}

func newSeedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the bootstrap admin user if absent",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			application, logger, err := setup(ctx)
			if err != nil {
				logger.Error("startup failed", "error", err.Error())
				return err
			}
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = application.Observability.Shutdown(shutdownCtx)
			}()
			return application.SeedAdmin(ctx)
		},
	}
}
