// Chatstats - Group Chat Analytics Rollup Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatstats

package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tomtom215/chatstats/internal/api"
	"github.com/tomtom215/chatstats/internal/logging"
	"github.com/tomtom215/chatstats/internal/middleware"
	"github.com/tomtom215/chatstats/internal/supervisor"
	"github.com/tomtom215/chatstats/internal/supervisor/services"
)

func newServeCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run rollups on a schedule and serve metrics",
		Long: "Runs the rollup scheduler every rollup.interval under a supervisor tree\n" +
			"and serves /metrics, health checks and a read-only API on server.port.",
		Args: cobra.NoArgs,
		RunE: runE(func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := openApp(ctx, c.cfg, true)
			if err != nil {
				return err
			}
			defer a.Close()

			tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
			if err != nil {
				return err
			}

			rollup := services.NewRollupService(a.runner, c.cfg.Rollup.Interval, c.cfg.Rollup.RunOnStartup)
			tree.AddRollupService(rollup)
			if a.retry != nil {
				tree.AddRollupService(a.retry)
			}

			handler := api.NewHandler(a.db, a.source, rollup)
			server := services.NewHTTPServer(&c.cfg.Server, api.NewRouter(handler, middleware.NewChiMiddleware(&c.cfg.Server)))
			tree.AddAPIService(services.NewHTTPServerService(server, supervisor.DefaultTreeConfig().ShutdownTimeout))

			logging.Info().
				Str("addr", server.Addr).
				Dur("interval", c.cfg.Rollup.Interval).
				Msg("Starting chatstats supervisor tree")

			err = tree.Serve(ctx)
			if report, reportErr := tree.UnstoppedServiceReport(); reportErr == nil && len(report) > 0 {
				logging.Warn().Int("count", len(report)).Msg("Services did not stop within the shutdown timeout")
			}
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			logging.Info().Msg("Shutdown complete")
			return nil
		}),
	}
}
