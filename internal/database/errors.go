// Chatstats - Group Chat Analytics Rollup Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatstats

package database

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/tomtom215/chatstats/internal/logging"
	"github.com/tomtom215/chatstats/internal/models"
)

// ErrInvalidLevel is returned for an entity level without a counts table.
var ErrInvalidLevel = errors.New("invalid entity level")

// closeWithLog closes a resource and logs any error
// Use this for cleanup operations where errors should be acknowledged but not fail the operation
func closeWithLog(closer io.Closer, resourceType string) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logging.Warn().Str("type", resourceType).Err(err).Msg("Failed to close resource")
	}
}

// closeQuietly closes a resource and explicitly ignores any error
// Use this for cleanup operations in error paths where Close() errors are not actionable
func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close() // Explicitly ignore error - cleanup is best-effort
	}
}

// isUniqueConstraintError reports whether err is a uniqueness violation.
// DuckDB reports `Duplicate key ... violates unique constraint`; SQLite
// reports "UNIQUE constraint failed".
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	errMsg := strings.ToLower(err.Error())
	return strings.Contains(errMsg, "unique constraint") || strings.Contains(errMsg, "duplicate key")
}

// mapInsertError converts uniqueness violations to models.ErrDuplicateBucketWrite.
func mapInsertError(err error) error {
	if isUniqueConstraintError(err) {
		return fmt.Errorf("%w: %v", models.ErrDuplicateBucketWrite, err)
	}
	return err
}

// tableFor returns the counts table for level.
func tableFor(level models.EntityLevel) (string, error) {
	if !level.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidLevel, level)
	}
	return level.Table(), nil
}
