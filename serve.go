package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the catalog HTTP API",
		Long:  "Run the catalog HTTP API and, when RABBITMQ_URL is set, the order event consumer",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	app, err := newApplication(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Warn("error while closing dependencies", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if app.mq != nil && cfg.OrdersQueue != "" {
		if err := app.mq.ConsumeOrders(ctx, app.orders.HandleMessage); err != nil {
			return fmt.Errorf("failed to start order consumer: %w", err)
		}
	}

	server := app.httpApp()
	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("addr", cfg.AppPort))
		if err := server.Listen(cfg.AppPort); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down server")
		if err := server.ShutdownWithTimeout(cfg.ShutdownTimeout); err != nil {
			return fmt.Errorf("shutdown catalog: %w", err)
		}
		logger.Info("server gracefully stopped")
		return nil
	case err := <-errCh:
		return fmt.Errorf("catalog server error: %w", err)
	}
}

