// Chatstats - Group Chat Analytics Rollup Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatstats

/*
Package supervisor runs serve mode under a suture v4 supervisor tree.

	RootSupervisor ("chatstats")
	├── RollupSupervisor ("rollup-layer")
	│   └── RollupService (periodic RunUntil)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService (/metrics, health, read API)

The layers restart independently: a scheduler that keeps crashing backs off
without taking the metrics endpoint with it.

Supervisor events are logged through sutureslog into the zerolog-backed slog
handler from internal/logging:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddRollupService(services.NewRollupService(runner, time.Hour, true))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	err = tree.Serve(ctx)

Service wrappers live in the services subpackage.
*/
package supervisor
