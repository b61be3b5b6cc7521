// Chatstats - Group Chat Analytics Rollup Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatstats

// Package wal provides a durable write-ahead log for bucket events using
// BadgerDB.
//
// When enabled, every bucket event is persisted before it is published to
// NATS and confirmed (deleted) once the publish succeeds. A failed publish
// leaves the entry pending, so a NATS outage never loses the notification
// that a bucket was written:
//
//	Event → WAL Write → NATS Publish → WAL Confirm
//	                          ↓ (on failure)
//	                    Entry kept for retry
//
// # Components
//
//   - BadgerWAL: the log itself. Entries are stored under "pending:<id>"
//   - RetryLoop: a suture service that republishes pending entries with
//     exponential backoff and drops entries past EntryTTL or MaxRetries
//
// # Usage
//
//	w, err := wal.Open(&cfg.Events.WAL)
//	if err != nil {
//	    return err
//	}
//	defer w.Close()
//
//	notifier.UseJournal(w)
//	tree.AddRollupService(wal.NewRetryLoop(w, notifier))
//
// Run RetryPending once at startup to flush entries left by a previous
// process.
//
// # Configuration
//
//	WAL_ENABLED=true          # requires EVENTS_ENABLED=true
//	WAL_PATH=/data/wal        # ":memory:" keeps entries in memory only
//	WAL_SYNC_WRITES=true      # fsync every write
//	WAL_RETRY_INTERVAL=30s    # retry loop interval
//	WAL_RETRY_BACKOFF=5s      # initial backoff, doubled per attempt up to 5m
//	WAL_MAX_RETRIES=100       # attempts before an entry is dropped
//	WAL_ENTRY_TTL=168h        # age at which an entry is dropped
//
// # Thread Safety
//
// All BadgerWAL methods are safe for concurrent use.
package wal
