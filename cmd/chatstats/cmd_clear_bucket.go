// Chatstats - Group Chat Analytics Rollup Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatstats

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomtom215/chatstats/internal/database"
	"github.com/tomtom215/chatstats/internal/interval"
	"github.com/tomtom215/chatstats/internal/logging"
	"github.com/tomtom215/chatstats/internal/models"
	"github.com/tomtom215/chatstats/internal/stats"
)

func newClearBucketCmd(c *cli) *cobra.Command {
	var (
		level, statistic, granularity, end string
		resetFill                          bool
	)
	cmd := &cobra.Command{
		Use:   "clear-bucket",
		Short: "Delete every row of one bucket so it can be recomputed",
		Long: "Deletes all rows of (level, statistic, granularity, end). The next run or\n" +
			"backfill covering that bucket writes it again. Use this to repair a bucket\n" +
			"left partially written by an interrupted insert.",
		Example: "  chatstats clear-bucket --level realm --stat messages_sent --granularity hour --end 2024-01-02T11:00:00Z",
		Args:    cobra.NoArgs,
		RunE: runE(func(cmd *cobra.Command, args []string) error {
			lvl, err := models.ParseEntityLevel(level)
			if err != nil {
				return err
			}
			g, err := interval.ParseGranularity(granularity)
			if err != nil {
				return err
			}
			at, err := parseTime(end)
			if err != nil {
				return err
			}
			step, err := interval.StepFor(g)
			if err != nil {
				return err
			}
			floored, err := interval.FloorToBoundary(at, step)
			if err != nil {
				return err
			}
			if !floored.Equal(at) {
				return fmt.Errorf("--end %s is not on a %s boundary", at.Format(time.RFC3339), step)
			}

			db, err := database.New(&c.cfg.Database)
			if err != nil {
				return fmt.Errorf("failed to initialize database: %w", err)
			}
			defer closeDB(db)

			ctx := cmd.Context()
			n, err := db.DeleteBucket(ctx, lvl, statistic, at, g)
			if err != nil {
				return err
			}
			key := stats.MakeKey(statistic, lvl, g)
			if resetFill {
				if err := db.DeleteFillState(ctx, key); err != nil {
					return err
				}
			}
			logging.Info().
				Str("statistic", key).
				Time("end", at).
				Int64("rows", n).
				Bool("fill_state_reset", resetFill).
				Msg("Bucket cleared")
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d rows from %s at %s\n", n, key, at.Format(time.RFC3339))
			return nil
		}),
	}
	cmd.Flags().StringVar(&level, "level", "", "entity level: user, realm or installation (required)")
	cmd.Flags().StringVar(&statistic, "stat", "", "statistic name (required)")
	cmd.Flags().StringVar(&granularity, "granularity", "", "hour, day or gauge (required)")
	cmd.Flags().StringVar(&end, "end", "", "bucket end time (required)")
	cmd.Flags().BoolVar(&resetFill, "reset-fill-state", false, "also forget the statistic's fill state")
	for _, name := range []string{"level", "stat", "granularity", "end"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func closeDB(db *database.DB) {
	if err := db.Close(); err != nil {
		logging.Error().Err(err).Msg("Error closing database")
	}
}
