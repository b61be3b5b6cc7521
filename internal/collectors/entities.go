// Chatstats - Group Chat Analytics Rollup Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatstats

package collectors

import (
	"context"
	"fmt"
	"strings"

	"github.com/tomtom215/chatstats/internal/models"
	"github.com/tomtom215/chatstats/internal/stats"
)

// parentLookupBatch bounds the IN list of a single UserRealms query.
const parentLookupBatch = 500

// ValidEntities returns the ids whose rows may be persisted at level: active
// users of non-deactivated realms, non-deactivated realms, or the
// installation singleton.
func (s *Source) ValidEntities(ctx context.Context, level models.EntityLevel) (stats.ValidSet, error) {
	var (
		ids []string
		err error
	)
	switch level {
	case models.LevelUser:
		ids, err = s.queryStrings(ctx, "valid_users", "users", `
			SELECT u.id
			FROM users u
			JOIN realms r ON r.id = u.realm_id
			WHERE u.is_active AND NOT r.deactivated`)
	case models.LevelRealm:
		ids, err = s.queryStrings(ctx, "valid_realms", "realms",
			`SELECT id FROM realms WHERE NOT deactivated`)
	case models.LevelInstallation:
		return stats.NewValidSet(models.InstallationEntityID), nil
	default:
		return nil, fmt.Errorf("valid entities: unsupported level %q", level)
	}
	if err != nil {
		return nil, err
	}
	return stats.NewValidSet(ids...), nil
}

// UserRealms resolves user ids to the realm that owns them. Unknown users
// are left out of the result.
func (s *Source) UserRealms(ctx context.Context, userIDs []string) (map[string]string, error) {
	parents := make(map[string]string, len(userIDs))
	for start := 0; start < len(userIDs); start += parentLookupBatch {
		end := min(start+parentLookupBatch, len(userIDs))
		batch := userIDs[start:end]

		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(batch)), ", ")
		args := make([]interface{}, len(batch))
		for i, id := range batch {
			args[i] = id
		}

		pairs, err := execute(ctx, s, func(ctx context.Context) ([][2]string, error) {
			rows, err := s.db.QueryContext(ctx,
				"SELECT id, realm_id FROM users WHERE id IN ("+placeholders+")", args...)
			if err != nil {
				return nil, fmt.Errorf("user realms: %w", err)
			}
			defer rows.Close()

			var out [][2]string
			for rows.Next() {
				var pair [2]string
				if err := rows.Scan(&pair[0], &pair[1]); err != nil {
					return nil, fmt.Errorf("user realms: scan: %w", err)
				}
				out = append(out, pair)
			}
			return out, rows.Err()
		})
		if err != nil {
			return nil, err
		}
		for _, p := range pairs {
			parents[p[0]] = p[1]
		}
	}
	return parents, nil
}

var _ stats.EntitySource = (*Source)(nil)
