// Chatstats - Group Chat Analytics Rollup Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatstats

// Package services adapts chatstats components to suture.Service.
//
// RollupService drives stats.Runner.RunUntil on a ticker. HTTPServerService
// turns http.Server's blocking ListenAndServe into a context-aware Serve with
// graceful shutdown. Both implement fmt.Stringer so suture logs them by name.
package services
