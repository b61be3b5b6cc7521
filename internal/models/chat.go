// Chatstats - Group Chat Analytics Rollup Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatstats

package models

import "time"

// Realm is a chat organization (tenant) as read from the primary tables
type Realm struct {
	ID          string
	Name        string
	Deactivated bool
	CreatedAt   time.Time
}

// ChatUser is a realm member as read from the primary tables
type ChatUser struct {
	ID        string
	RealmID   string
	IsBot     bool
	IsActive  bool
	CreatedAt time.Time
}

// ChatMessage is a sent message as read from the primary tables
type ChatMessage struct {
	ID       string
	SenderID string
	RealmID  string
	SentAt   time.Time
}
