// Chatstats - Group Chat Analytics Rollup Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatstats

/*
Package metrics provides Prometheus instrumentation for the rollup engine.

All collectors are registered on the default registry via promauto and are
exposed at /metrics when chatstats runs in serve mode:

	curl http://localhost:9464/metrics

# Available Metrics

Bucket processing:
  - chatstats_buckets_processed_total{statistic,level,granularity,outcome}
  - chatstats_rows_written_total{level}
  - chatstats_rows_filtered_total{statistic,level}
  - chatstats_value_function_duration_seconds{statistic,level,granularity}

Runs:
  - chatstats_run_duration_seconds
  - chatstats_run_errors_total
  - chatstats_run_last_success_timestamp_seconds
  - chatstats_fill_lag_seconds{statistic}

Storage and collaborators:
  - chatstats_db_query_duration_seconds{operation,table}
  - chatstats_db_query_errors_total{operation,table,error_type}
  - chatstats_collector_breaker_state{name}
  - chatstats_events_published_total{result}

# Usage

	start := time.Now()
	err := doQuery()
	metrics.RecordDBQuery("insert", "realm_counts", time.Since(start), err)
*/
package metrics
