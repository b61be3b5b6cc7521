// Chatstats - Group Chat Analytics Rollup Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatstats

package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tomtom215/chatstats/internal/logging"
	"github.com/tomtom215/chatstats/internal/models"
)

// InsertRealms writes realms in one transaction.
func (db *DB) InsertRealms(ctx context.Context, realms []models.Realm) error {
	return db.inTx(ctx, func(tx *sql.Tx) error {
		for _, r := range realms {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO realms (id, name, deactivated, created_at) VALUES (?, ?, ?, ?)`,
				r.ID, r.Name, r.Deactivated, r.CreatedAt.Unix(),
			); err != nil {
				return fmt.Errorf("failed to insert realm %s: %w", r.ID, err)
			}
		}
		return nil
	})
}

// InsertUsers writes users in one transaction.
func (db *DB) InsertUsers(ctx context.Context, users []models.ChatUser) error {
	return db.inTx(ctx, func(tx *sql.Tx) error {
		for _, u := range users {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO users (id, realm_id, is_bot, is_active, created_at) VALUES (?, ?, ?, ?, ?)`,
				u.ID, u.RealmID, u.IsBot, u.IsActive, u.CreatedAt.Unix(),
			); err != nil {
				return fmt.Errorf("failed to insert user %s: %w", u.ID, err)
			}
		}
		return nil
	})
}

// InsertMessages writes messages in one transaction.
func (db *DB) InsertMessages(ctx context.Context, messages []models.ChatMessage) error {
	return db.inTx(ctx, func(tx *sql.Tx) error {
		for _, m := range messages {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO messages (id, sender_id, realm_id, sent_at) VALUES (?, ?, ?, ?)`,
				m.ID, m.SenderID, m.RealmID, m.SentAt.Unix(),
			); err != nil {
				return fmt.Errorf("failed to insert message %s: %w", m.ID, err)
			}
		}
		return nil
	})
}

// SetRealmDeactivated flips a realm's deactivated flag.
func (db *DB) SetRealmDeactivated(ctx context.Context, realmID string, deactivated bool) error {
	res, err := db.conn.ExecContext(ctx, `UPDATE realms SET deactivated = ? WHERE id = ?`, deactivated, realmID)
	if err != nil {
		return fmt.Errorf("failed to update realm %s: %w", realmID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("realm %s not found", realmID)
	}
	return nil
}

// HasChatData reports whether any realm exists.
func (db *DB) HasChatData(ctx context.Context) (bool, error) {
	var n int64
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM realms`).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to count realms: %w", err)
	}
	return n > 0, nil
}

// inTx runs fn in a transaction, committing on success and rolling back on error.
func (db *DB) inTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	// Ensure transaction is finalized
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logging.Error().
					Err(rbErr).
					AnErr("original_error", err).
					Msg("Transaction rollback failed")
			}
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
