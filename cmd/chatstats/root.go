// Chatstats - Group Chat Analytics Rollup Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatstats

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tomtom215/chatstats/internal/config"
	"github.com/tomtom215/chatstats/internal/logging"
)

// cli holds global flags and the loaded configuration.
type cli struct {
	configPath string
	logLevel   string
	logFormat  string
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:   "chatstats",
		Short: "Group chat analytics rollup engine",
		Long: "chatstats computes per-user, per-realm and installation-wide chat statistics\n" +
			"at hour, day and gauge granularity and stores each bucket exactly once.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Logging is not configured yet, so report straight to stderr.
			if err := c.load(); err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "error:", err)
				return err
			}
			return nil
		},
	}
	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)

	flags := root.PersistentFlags()
	flags.StringVar(&c.configPath, "config", "", "path to a YAML config file (overrides "+config.ConfigPathEnvVar+")")
	flags.StringVar(&c.logLevel, "log-level", "", "log level override (trace, debug, info, warn, error)")
	flags.StringVar(&c.logFormat, "log-format", "", "log format override (json, console)")

	root.AddCommand(
		newRunCmd(c),
		newServeCmd(c),
		newBackfillCmd(c),
		newClearBucketCmd(c),
		newExportCmd(c),
		newSeedCmd(c),
		newStatusCmd(c),
	)
	return root
}

// load reads configuration and initializes logging.
func (c *cli) load() error {
	if c.configPath != "" {
		if _, err := os.Stat(c.configPath); err != nil {
			return fmt.Errorf("config file: %w", err)
		}
		if err := os.Setenv(config.ConfigPathEnvVar, c.configPath); err != nil {
			return err
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if c.logLevel != "" {
		cfg.Logging.Level = c.logLevel
	}
	if c.logFormat != "" {
		cfg.Logging.Format = c.logFormat
	}

	if err := logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	}); err != nil {
		return err
	}
	c.cfg = cfg
	return nil
}

// runE wraps a command body so failures are logged before cobra exits.
func runE(fn func(cmd *cobra.Command, args []string) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := fn(cmd, args); err != nil {
			logging.Error().Err(err).Str("command", cmd.Name()).Msg("Command failed")
			return err
		}
		return nil
	}
}
