// Chatstats - Group Chat Analytics Rollup Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatstats

// Package main is the chatstats command line.
//
// chatstats computes named chat statistics (messages sent, active users, new
// users) per user, realm and installation, at hour, day and gauge
// granularity, and stores every bucket exactly once.
//
// # Commands
//
//	chatstats run            catch every statistic up to now, then exit
//	chatstats serve          run on a schedule under a supervisor, with /metrics
//	chatstats backfill       process an explicit span for selected statistics
//	chatstats clear-bucket   delete the rows of one bucket (repair a partial write)
//	chatstats export         write stored rows as JSON lines
//	chatstats seed           fill the chat tables with demo data
//	chatstats status         show stored row counts and fill state
//
// # Configuration
//
// Configuration is layered with Koanf v2 (highest priority wins):
//   - Environment variables (DB_PATH, ROLLUP_EXISTENCE_MODE, NATS_URL, ...)
//   - Config file (--config, CONFIG_PATH, ./config.yaml or /etc/chatstats/config.yaml)
//   - Built-in defaults
//
// A .env file in the working directory is read first.
//
// # Exit status
//
// A run stops at the first failing bucket and exits non-zero. Buckets that
// were written stay written; the next run resumes from the failed bucket.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
