// Chatstats - Group Chat Analytics Rollup Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatstats

package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

func newBackfillCmd(c *cli) *cobra.Command {
	var (
		from, to  string
		selectors []string
		noEvents  bool
	)
	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Process an explicit span for selected statistics",
		Long: "Processes every bucket in [--from, --to] for the selected statistics and\n" +
			"everything they depend on. Buckets already written are skipped, so a\n" +
			"backfill can be repeated safely. Fill state is never moved backwards.",
		Example: "  chatstats backfill --from 2024-01-01 --to 2024-02-01 --stat messages_sent\n" +
			"  chatstats backfill --from 2024-01-01 --stat active_users:installation:gauge",
		Args: cobra.NoArgs,
		RunE: runE(func(cmd *cobra.Command, args []string) error {
			first, err := parseTime(from)
			if err != nil {
				return err
			}
			last := time.Now().UTC()
			if to != "" {
				if last, err = parseTime(to); err != nil {
					return err
				}
			}
			if first.After(last) {
				return fmt.Errorf("--from %s is after --to %s", first.Format(time.RFC3339), last.Format(time.RFC3339))
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := openApp(ctx, c.cfg, !noEvents)
			if err != nil {
				return err
			}
			defer a.Close()

			report, err := a.runner.Backfill(ctx, selectors, first, last)
			logReport("Backfill finished", report)
			return err
		}),
	}
	cmd.Flags().StringVar(&from, "from", "", "first bucket end to include (required)")
	cmd.Flags().StringVar(&to, "to", "", "last bucket end to include (default now)")
	cmd.Flags().StringSliceVar(&selectors, "stat", nil, "statistic name or name:level:granularity key (repeatable; default all)")
	cmd.Flags().BoolVar(&noEvents, "no-events", false, "do not publish bucket events even if enabled")
	_ = cmd.MarkFlagRequired("from")
	return cmd
}
