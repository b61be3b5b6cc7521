// Chatstats - Group Chat Analytics Rollup Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatstats

// Package validation provides struct validation using go-playground/validator v10.
//
// The package provides a thread-safe singleton validator with the chatstats
// custom tags registered, and translates validator errors into short
// human-readable messages.
//
// # Custom Tags
//
//   - granularity: hour, day or gauge
//   - entity_level: user, realm (tenant) or installation
//
// # Quick Start
//
//	type BackfillRequest struct {
//	    Statistics []string  `validate:"dive,required"`
//	    From       time.Time `validate:"required"`
//	    To         time.Time `validate:"required,gtefield=From"`
//	}
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    return verr
//	}
//
// Field names in messages come from the koanf tag when present, so config
// errors read as "rollup.interval is required" rather than Go field names.
package validation
