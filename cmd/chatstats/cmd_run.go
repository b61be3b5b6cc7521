// Chatstats - Group Chat Analytics Rollup Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatstats

package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

func newRunCmd(c *cli) *cobra.Command {
	var noEvents bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Catch every statistic up to now, then exit",
		Long: "Processes every bucket between each statistic's last completed bucket\n" +
			"(or rollup.initial_lookback for new statistics) and now. Exits non-zero\n" +
			"on the first failing bucket.",
		Args: cobra.NoArgs,
		RunE: runE(func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runOnce(ctx, c, !noEvents, time.Now())
		}),
	}
	cmd.Flags().BoolVar(&noEvents, "no-events", false, "do not publish bucket events even if enabled")
	return cmd
}

func runOnce(ctx context.Context, c *cli, withEvents bool, now time.Time) error {
	a, err := openApp(ctx, c.cfg, withEvents)
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := a.runner.RunUntil(ctx, now)
	logReport("Rollup run finished", report)
	return err
}
