// Chatstats - Group Chat Analytics Rollup Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatstats

package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomtom215/chatstats/internal/database"
)

func newStatusCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show stored row counts and fill state",
		Args:  cobra.NoArgs,
		RunE: runE(func(cmd *cobra.Command, args []string) error {
			db, err := database.New(&c.cfg.Database)
			if err != nil {
				return fmt.Errorf("failed to initialize database: %w", err)
			}
			defer closeDB(db)

			ctx := cmd.Context()
			counts, err := db.Summarize(ctx)
			if err != nil {
				return err
			}
			fills, err := db.ListFillStates(ctx)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "LEVEL\tSTATISTIC\tGRANULARITY\tROWS\tFIRST END\tLAST END")
			for _, s := range counts {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
					s.Level, s.Statistic, s.Granularity, s.Rows,
					s.FirstEnd.Format(time.RFC3339), s.LastEnd.Format(time.RFC3339))
			}
			fmt.Fprintln(tw)
			fmt.Fprintln(tw, "STATISTIC KEY\tEND\tSTATUS\tUPDATED")
			for _, f := range fills {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
					f.StatisticKey, f.EndTime.Format(time.RFC3339), f.Status, f.UpdatedAt.Format(time.RFC3339))
			}
			return tw.Flush()
		}),
	}
}
