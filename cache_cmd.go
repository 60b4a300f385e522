package main

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"catalog/internal/services"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func cacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the catalog cache",
	}
	cmd.AddCommand(cacheFlushCmd())
	return cmd
}

func cacheFlushCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "flush",
		Short: "Drop every cached listing and the trending window",
		Long:  "Delete all products_list* keys and the trending_products key from the configured cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			app := &application{cfg: cfg, logger: logger, registry: prometheus.NewRegistry()}
			c, err := app.openCache()
			if err != nil {
				return err
			}
			defer c.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			// Flushing touches only the cache, so no store is attached.
			svc := services.NewProductService(nil, c, nil, nil, logger, services.ProductServiceConfig{})
			if err := svc.InvalidateAll(ctx); err != nil {
				return fmt.Errorf("flush cache: %w", err)
			}
			logger.Info("cache flushed", zap.String("redis_url", redactURL(cfg.RedisURL)))
			fmt.Fprintln(cmd.OutOrStdout(), "cache flushed")
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "Flush timeout")
	return cmd
}

func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<invalid>"
	}
	return u.Redacted()
}
