// Chatstats - Group Chat Analytics Rollup Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatstats

/*
Package events publishes a notification for every bucket the processor writes.

Notifier implements stats.Notifier on top of any Watermill message.Publisher.
In production the publisher is a watermill-nats/v2 publisher (core NATS
subjects, no JetStream); tests use Watermill's in-process gochannel pub/sub.

Payloads are models.BucketEvent encoded as JSON with goccy/go-json. The
message UUID is the event id, so consumers can deduplicate redeliveries.

Publishing is best effort: the processor logs a failed notification and keeps
the bucket. A circuit breaker stops a dead broker from adding a publish
timeout to every bucket of a run.
*/
package events
