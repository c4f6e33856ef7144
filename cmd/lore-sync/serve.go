package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ersonp/lore-sync/internal/application/handlers"
	"github.com/ersonp/lore-sync/internal/infrastructure/httpapi"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the status and change log API",
		Long: `Serve sync status, change history and reversals over HTTP,
plus /healthz and Prometheus /metrics.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")

	return cmd
}

func runServe(cmd *cobra.Command, addr string) error {
	ctx := cmd.Context()

	return withDeps(ctx, func(d *deps) error {
		if addr == "" {
			addr = d.cfg.API.Addr
		}

		server := httpapi.NewServer(
			handlers.NewStatusHandler(d.statuses),
			handlers.NewChangeLogHandler(d.changes),
			httpapi.WithGatherer(d.registry),
			httpapi.WithHealthCheck(d.repo.Ping),
			httpapi.WithLogger(d.logger.Named("api")),
		)

		d.logger.Info("serving API", zap.String("addr", addr))
		if err := server.ListenAndServe(ctx, addr); err != nil {
			return fmt.Errorf("serving API: %w", err)
		}
		return nil
	})
}
