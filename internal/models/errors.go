// Chatstats - Group Chat Analytics Rollup Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatstats

package models

import "errors"

// ErrDuplicateBucketWrite is returned by a count store when a batch insert
// violates the (entity_id, statistic, end_time, granularity) uniqueness
// constraint, i.e. another run already wrote the bucket.
var ErrDuplicateBucketWrite = errors.New("duplicate bucket write")
