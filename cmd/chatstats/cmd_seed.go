// Chatstats - Group Chat Analytics Rollup Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatstats

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tomtom215/chatstats/internal/database"
)

func newSeedCmd(c *cli) *cobra.Command {
	opts := database.DefaultSeedOptions()
	var (
		now   string
		force bool
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill the chat tables with demo data",
		Long: "Writes demo realms, users and messages into the chat source tables. Refuses\n" +
			"to run against tables that already hold data unless --force is given.",
		Args: cobra.NoArgs,
		RunE: runE(func(cmd *cobra.Command, args []string) error {
			if now != "" {
				t, err := parseTime(now)
				if err != nil {
					return err
				}
				opts.Now = t
			}

			db, err := database.New(&c.cfg.Database)
			if err != nil {
				return fmt.Errorf("failed to initialize database: %w", err)
			}
			defer closeDB(db)

			ctx := cmd.Context()
			has, err := db.HasChatData(ctx)
			if err != nil {
				return err
			}
			if has && !force {
				return fmt.Errorf("chat tables already hold data, use --force to seed anyway")
			}

			res, err := db.SeedMockData(ctx, opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d realms, %d users, %d messages\n", res.Realms, res.Users, res.Messages)
			return nil
		}),
	}
	f := cmd.Flags()
	f.IntVar(&opts.Realms, "realms", opts.Realms, "number of realms")
	f.IntVar(&opts.UsersPerRealm, "users-per-realm", opts.UsersPerRealm, "users per realm, including one bot")
	f.IntVar(&opts.MessagesPerHour, "messages-per-hour", opts.MessagesPerHour, "messages per hour across the installation")
	f.IntVar(&opts.Days, "days", opts.Days, "days of message history")
	f.Uint64Var(&opts.Seed, "seed", opts.Seed, "random seed")
	f.StringVar(&now, "now", "", "end of the generated history (default now)")
	f.BoolVar(&force, "force", false, "seed even if chat tables already hold data")
	return cmd
}
