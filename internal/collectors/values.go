// Chatstats - Group Chat Analytics Rollup Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatstats

package collectors

import (
	"context"

	"github.com/tomtom215/chatstats/internal/interval"
	"github.com/tomtom215/chatstats/internal/models"
)

// ActiveUsersByRealm counts active non-bot users created before the bucket
// end, per realm. Realms that existed at End but have no such users report 0.
func (s *Source) ActiveUsersByRealm(ctx context.Context, bucket interval.TimeInterval) ([]models.EntityValue, error) {
	end := bucket.End.Unix()
	return s.queryValues(ctx, "active_users_by_realm", "users", `
		SELECT r.id, COUNT(u.id)
		FROM realms r
		LEFT JOIN users u
			ON u.realm_id = r.id
			AND u.is_active
			AND NOT u.is_bot
			AND u.created_at < ?
		WHERE r.created_at < ?
		GROUP BY r.id`, end, end)
}

// MessagesSentByUser counts messages sent in [Start, End) per sender.
func (s *Source) MessagesSentByUser(ctx context.Context, bucket interval.TimeInterval) ([]models.EntityValue, error) {
	return s.queryValues(ctx, "messages_sent_by_user", "messages", `
		SELECT sender_id, COUNT(*)
		FROM messages
		WHERE sent_at >= ? AND sent_at < ?
		GROUP BY sender_id`, bucket.Start.Unix(), bucket.End.Unix())
}

// NewUsersByRealm counts non-bot users created in [Start, End) per realm.
func (s *Source) NewUsersByRealm(ctx context.Context, bucket interval.TimeInterval) ([]models.EntityValue, error) {
	return s.queryValues(ctx, "new_users_by_realm", "users", `
		SELECT realm_id, COUNT(*)
		FROM users
		WHERE NOT is_bot AND created_at >= ? AND created_at < ?
		GROUP BY realm_id`, bucket.Start.Unix(), bucket.End.Unix())
}
