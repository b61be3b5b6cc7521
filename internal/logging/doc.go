// Chatstats - Group Chat Analytics Rollup Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatstats

// Package logging provides centralized zerolog-based structured logging for chatstats.
//
// # Overview
//
// The package provides:
//   - A global zerolog logger configured once from main
//   - JSON output for production, console output for development
//   - Context-aware logging with run correlation IDs
//   - An slog.Handler bridge for libraries that require *slog.Logger (sutureslog)
//
// # Quick Start
//
//	if err := logging.Init(logging.Config{Level: "info", Format: "json"}); err != nil {
//	    return err
//	}
//
//	logging.Info().Str("statistic", name).Msg("Bucket written")
//	logging.Error().Err(err).Msg("Run aborted")
//
//	// Every rollup run gets a correlation ID
//	ctx = logging.ContextWithNewCorrelationID(ctx)
//	logging.Ctx(ctx).Info().Msg("Run started")
//
// # Best Practices
//
// Always terminate log chains with .Msg() or .Send():
//
//	logging.Info().Str("key", "value").Msg("message")  // Correct
//	logging.Info().Str("key", "value")                 // WRONG - log not emitted
//
// Use structured fields instead of string formatting.
package logging
