// Chatstats - Group Chat Analytics Rollup Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatstats

package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/tomtom215/chatstats/internal/database"
	"github.com/tomtom215/chatstats/internal/logging"
	"github.com/tomtom215/chatstats/internal/models"
)

func newExportCmd(c *cli) *cobra.Command {
	var (
		level, statistic, from, to, output string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write stored counts as newline-delimited JSON",
		Example: "  chatstats export --level realm --stat messages_sent --from 2024-01-01 > realm.jsonl\n" +
			"  chatstats export --level installation --output installation.jsonl",
		Args: cobra.NoArgs,
		RunE: runE(func(cmd *cobra.Command, args []string) error {
			lvl, err := models.ParseEntityLevel(level)
			if err != nil {
				return err
			}
			filter := database.ExportFilter{Statistic: statistic}
			if filter.From, err = optionalTime(from); err != nil {
				return err
			}
			if filter.To, err = optionalTime(to); err != nil {
				return err
			}

			db, err := database.New(&c.cfg.Database)
			if err != nil {
				return fmt.Errorf("failed to initialize database: %w", err)
			}
			defer closeDB(db)

			var w io.Writer = cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", output, err)
				}
				defer func() {
					if cerr := f.Close(); cerr != nil {
						logging.Error().Err(cerr).Str("path", output).Msg("Error closing export file")
					}
				}()
				w = f
			}
			buf := bufio.NewWriter(w)

			n, err := db.ExportCounts(cmd.Context(), buf, lvl, filter)
			if err != nil {
				return err
			}
			if err := buf.Flush(); err != nil {
				return fmt.Errorf("failed to write export: %w", err)
			}
			logging.Info().
				Str("level", string(lvl)).
				Str("statistic", statistic).
				Int("rows", n).
				Msg("Export complete")
			return nil
		}),
	}
	cmd.Flags().StringVar(&level, "level", string(models.LevelInstallation), "entity level: user, realm or installation")
	cmd.Flags().StringVar(&statistic, "stat", "", "statistic name (default all)")
	cmd.Flags().StringVar(&from, "from", "", "earliest bucket end to include")
	cmd.Flags().StringVar(&to, "to", "", "latest bucket end to include")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}
