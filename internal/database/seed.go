// Chatstats - Group Chat Analytics Rollup Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatstats

package database

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/chatstats/internal/logging"
	"github.com/tomtom215/chatstats/internal/models"
)

// SeedOptions controls the size of the demo data set.
type SeedOptions struct {
	Realms          int
	UsersPerRealm   int
	MessagesPerHour int
	Days            int
	Now             time.Time
	Seed            uint64
}

// DefaultSeedOptions returns a small demo data set ending now.
func DefaultSeedOptions() SeedOptions {
	return SeedOptions{
		Realms:          4,
		UsersPerRealm:   12,
		MessagesPerHour: 20,
		Days:            3,
		Now:             time.Now().UTC(),
		Seed:            42,
	}
}

// SeedResult reports what SeedMockData wrote.
type SeedResult struct {
	Realms   int
	Users    int
	Messages int
}

var realmNames = []string{
	"engineering", "design", "support", "marketing", "research", "operations", "sales", "community",
}

// SeedMockData fills the chat source tables with demo data: realms (the last
// one deactivated when there are more than two), users including one bot per
// realm, and messages spread over the last opts.Days days.
func (db *DB) SeedMockData(ctx context.Context, opts SeedOptions) (SeedResult, error) {
	if opts.Realms <= 0 || opts.UsersPerRealm <= 0 || opts.Days <= 0 {
		return SeedResult{}, fmt.Errorf("seed options must be positive: %+v", opts)
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now().UTC()
	}

	logging.Info().
		Int("realms", opts.Realms).
		Int("users_per_realm", opts.UsersPerRealm).
		Int("days", opts.Days).
		Msg("Seeding database with mock chat data...")

	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))
	hours := opts.Days * 24
	start := opts.Now.Add(-time.Duration(hours) * time.Hour)

	realms := make([]models.Realm, opts.Realms)
	for i := range realms {
		name := realmNames[i%len(realmNames)]
		if i >= len(realmNames) {
			name = fmt.Sprintf("%s-%d", name, i/len(realmNames))
		}
		realms[i] = models.Realm{
			ID:          fmt.Sprintf("realm-%02d", i+1),
			Name:        name,
			Deactivated: opts.Realms > 2 && i == opts.Realms-1,
			CreatedAt:   start.Add(-30 * 24 * time.Hour),
		}
	}

	var users []models.ChatUser
	for _, r := range realms {
		for j := 0; j < opts.UsersPerRealm; j++ {
			// Sign-ups spread across the seeded window, some before it.
			joined := start.Add(time.Duration(rng.IntN(hours))*time.Hour - time.Duration(rng.IntN(2))*24*time.Hour)
			users = append(users, models.ChatUser{
				ID:        fmt.Sprintf("%s-user-%03d", r.ID, j+1),
				RealmID:   r.ID,
				IsBot:     j == 0,
				IsActive:  rng.IntN(10) > 0,
				CreatedAt: joined,
			})
		}
	}

	var messages []models.ChatMessage
	for h := 0; h < hours; h++ {
		hourStart := start.Add(time.Duration(h) * time.Hour)
		n := opts.MessagesPerHour/2 + rng.IntN(opts.MessagesPerHour+1)
		for k := 0; k < n; k++ {
			u := users[rng.IntN(len(users))]
			messages = append(messages, models.ChatMessage{
				ID:       uuid.NewString(),
				SenderID: u.ID,
				RealmID:  u.RealmID,
				SentAt:   hourStart.Add(time.Duration(rng.IntN(3600)) * time.Second),
			})
		}
	}

	if err := db.InsertRealms(ctx, realms); err != nil {
		return SeedResult{}, fmt.Errorf("failed to seed realms: %w", err)
	}
	if err := db.InsertUsers(ctx, users); err != nil {
		return SeedResult{}, fmt.Errorf("failed to seed users: %w", err)
	}
	if err := db.InsertMessages(ctx, messages); err != nil {
		return SeedResult{}, fmt.Errorf("failed to seed messages: %w", err)
	}

	res := SeedResult{Realms: len(realms), Users: len(users), Messages: len(messages)}
	logging.Info().
		Int("realms", res.Realms).
		Int("users", res.Users).
		Int("messages", res.Messages).
		Msg("Mock chat data seeded")
	return res, nil
}
