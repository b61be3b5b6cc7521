// Chatstats - Group Chat Analytics Rollup Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatstats

// Package catalog registers the built-in chat statistics.
package catalog

import (
	"context"
	"fmt"

	"github.com/tomtom215/chatstats/internal/interval"
	"github.com/tomtom215/chatstats/internal/models"
	"github.com/tomtom215/chatstats/internal/stats"
)

// Statistic names.
const (
	MessagesSent = "messages_sent"
	ActiveUsers  = "active_users"
	NewUsers     = "new_users"
)

// Source supplies the raw value functions and the user to realm mapping.
// *collectors.Source implements it.
type Source interface {
	ActiveUsersByRealm(ctx context.Context, bucket interval.TimeInterval) ([]models.EntityValue, error)
	MessagesSentByUser(ctx context.Context, bucket interval.TimeInterval) ([]models.EntityValue, error)
	NewUsersByRealm(ctx context.Context, bucket interval.TimeInterval) ([]models.EntityValue, error)
	UserRealms(ctx context.Context, userIDs []string) (map[string]string, error)
}

// Definitions returns the built-in statistics in dependency order.
func Definitions(reader stats.RowReader, src Source) []*stats.Statistic {
	return []*stats.Statistic{
		// messages_sent: per user per hour, rolled up to realms, then the
		// installation, then summed into days at every level.
		{
			Name:        MessagesSent,
			Level:       models.LevelUser,
			Granularity: interval.Hour,
			Value:       src.MessagesSentByUser,
		},
		stats.NewEntityRollupStatistic(reader, MessagesSent, models.LevelUser, models.LevelRealm, interval.Hour, src.UserRealms),
		stats.NewEntityRollupStatistic(reader, MessagesSent, models.LevelRealm, models.LevelInstallation, interval.Hour, stats.InstallationParents),
		stats.NewDayRollupStatistic(reader, MessagesSent, models.LevelUser),
		stats.NewDayRollupStatistic(reader, MessagesSent, models.LevelRealm),
		stats.NewDayRollupStatistic(reader, MessagesSent, models.LevelInstallation),

		// active_users: a realm gauge and its installation total.
		{
			Name:        ActiveUsers,
			Level:       models.LevelRealm,
			Granularity: interval.Gauge,
			Value:       src.ActiveUsersByRealm,
		},
		stats.NewEntityRollupStatistic(reader, ActiveUsers, models.LevelRealm, models.LevelInstallation, interval.Gauge, stats.InstallationParents),

		// new_users: computed directly at day granularity.
		{
			Name:        NewUsers,
			Level:       models.LevelRealm,
			Granularity: interval.Day,
			Value:       src.NewUsersByRealm,
		},
		stats.NewEntityRollupStatistic(reader, NewUsers, models.LevelRealm, models.LevelInstallation, interval.Day, stats.InstallationParents),
	}
}

// Register adds every built-in statistic to reg.
func Register(reg *stats.Registry, reader stats.RowReader, src Source) error {
	for _, s := range Definitions(reader, src) {
		if err := reg.Register(s); err != nil {
			return fmt.Errorf("register %s: %w", s.Key(), err)
		}
	}
	return nil
}
