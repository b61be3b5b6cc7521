// Chatstats - Group Chat Analytics Rollup Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatstats

package wal

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/chatstats/internal/config"
	"github.com/tomtom215/chatstats/internal/logging"
	"github.com/tomtom215/chatstats/internal/metrics"
)

// MemoryPath opens the WAL in memory. Entries survive NATS outages but not
// restarts.
const MemoryPath = ":memory:"

const prefixPending = "pending:"

// Errors
var (
	// ErrWALClosed is returned when the WAL is closed.
	ErrWALClosed = errors.New("WAL is closed")

	// ErrNilEvent is returned when a nil event is passed to Write.
	ErrNilEvent = errors.New("event cannot be nil")

	// ErrEmptyEntryID is returned when an empty entry ID is provided.
	ErrEmptyEntryID = errors.New("entry ID cannot be empty")

	// ErrEntryNotFound is returned when an entry doesn't exist.
	ErrEntryNotFound = errors.New("entry not found")
)

// Entry is one logged event.
type Entry struct {
	ID            string          `json:"id"`
	Payload       json.RawMessage `json:"payload"`
	CreatedAt     time.Time       `json:"created_at"`
	Attempts      int             `json:"attempts"`
	LastAttemptAt time.Time       `json:"last_attempt_at,omitempty"`
	LastError     string          `json:"last_error,omitempty"`
}

// UnmarshalPayload deserializes the payload into v.
func (e *Entry) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// Stats contains WAL counters for monitoring.
type Stats struct {
	PendingCount  int64
	TotalWrites   int64
	TotalConfirms int64
	TotalRetries  int64
	DBSizeBytes   int64
}

// BadgerWAL is the BadgerDB-backed write-ahead log.
type BadgerWAL struct {
	db     *badger.DB
	config config.WALConfig

	totalWrites   atomic.Int64
	totalConfirms atomic.Int64
	totalRetries  atomic.Int64

	mu     sync.RWMutex
	closed bool
}

// Open opens (or creates) the WAL at cfg.Path.
func Open(cfg *config.WALConfig) (*BadgerWAL, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("WAL path is required")
	}

	var opts badger.Options
	if cfg.Path == MemoryPath {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(cfg.Path).WithSyncWrites(cfg.SyncWrites)
	}
	// Reduce logging verbosity
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}

	w := &BadgerWAL{db: db, config: *cfg}
	logging.Info().
		Str("path", cfg.Path).
		Bool("sync_writes", cfg.SyncWrites).
		Msg("WAL opened")
	return w, nil
}

// Config returns the WAL configuration.
func (w *BadgerWAL) Config() config.WALConfig {
	return w.config
}

func (w *BadgerWAL) checkOpen() error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return ErrWALClosed
	}
	return nil
}

// Write persists event as JSON and returns the entry ID to confirm later.
func (w *BadgerWAL) Write(ctx context.Context, event interface{}) (string, error) {
	if err := w.checkOpen(); err != nil {
		return "", err
	}
	if event == nil {
		return "", ErrNilEvent
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return "", fmt.Errorf("marshal event: %w", err)
	}

	entry := &Entry{
		ID:        uuid.New().String(),
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return "", fmt.Errorf("marshal entry: %w", err)
	}

	err = w.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(prefixPending+entry.ID), data)
		if w.config.EntryTTL > 0 {
			e = e.WithTTL(w.config.EntryTTL)
		}
		return txn.SetEntry(e)
	})
	if err != nil {
		return "", fmt.Errorf("write to BadgerDB: %w", err)
	}

	w.totalWrites.Add(1)
	metrics.RecordWALWrite()
	return entry.ID, nil
}

// Confirm removes a successfully published entry.
func (w *BadgerWAL) Confirm(ctx context.Context, entryID string) error {
	if err := w.checkOpen(); err != nil {
		return err
	}
	if entryID == "" {
		return ErrEmptyEntryID
	}
	if err := w.delete(entryID); err != nil {
		return err
	}
	w.totalConfirms.Add(1)
	return nil
}

// DeleteEntry removes an entry without publishing it.
func (w *BadgerWAL) DeleteEntry(ctx context.Context, entryID string) error {
	if err := w.checkOpen(); err != nil {
		return err
	}
	return w.delete(entryID)
}

func (w *BadgerWAL) delete(entryID string) error {
	key := []byte(prefixPending + entryID)
	return w.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); errors.Is(err, badger.ErrKeyNotFound) {
			return ErrEntryNotFound
		} else if err != nil {
			return fmt.Errorf("get entry: %w", err)
		}
		return txn.Delete(key)
	})
}

// GetPending returns every unconfirmed entry from one snapshot, oldest ID
// order not guaranteed.
func (w *BadgerWAL) GetPending(ctx context.Context) ([]*Entry, error) {
	if err := w.checkOpen(); err != nil {
		return nil, err
	}

	var entries []*Entry
	err := w.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(prefixPending)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()

			var entry Entry
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			}); err != nil {
				logging.Warn().Err(err).Str("key", string(item.Key())).Msg("WAL failed to unmarshal entry")
				continue
			}
			entries = append(entries, &entry)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("iterate pending entries: %w", err)
	}
	return entries, nil
}

// UpdateAttempt records a failed publish attempt. The entry keeps its
// original TTL.
func (w *BadgerWAL) UpdateAttempt(ctx context.Context, entryID, lastError string) error {
	if err := w.checkOpen(); err != nil {
		return err
	}

	key := []byte(prefixPending + entryID)
	err := w.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrEntryNotFound
		}
		if err != nil {
			return fmt.Errorf("get entry: %w", err)
		}

		var entry Entry
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entry)
		}); err != nil {
			return fmt.Errorf("unmarshal entry: %w", err)
		}

		entry.Attempts++
		entry.LastAttemptAt = time.Now().UTC()
		entry.LastError = lastError

		data, err := json.Marshal(&entry)
		if err != nil {
			return fmt.Errorf("marshal entry: %w", err)
		}
		e := badger.NewEntry(key, data)
		if exp := item.ExpiresAt(); exp > 0 {
			if remaining := time.Until(time.Unix(int64(exp), 0)); remaining > 0 {
				e = e.WithTTL(remaining)
			}
		}
		return txn.SetEntry(e)
	})
	if err != nil {
		return err
	}

	w.totalRetries.Add(1)
	return nil
}

// Stats counts pending entries and updates the pending gauge.
func (w *BadgerWAL) Stats() Stats {
	if w.checkOpen() != nil {
		return Stats{}
	}

	var pending int64
	if err := w.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(prefixPending)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			pending++
		}
		return nil
	}); err != nil {
		logging.Warn().Err(err).Msg("WAL Stats failed to count entries")
	}

	lsm, vlog := w.db.Size()
	metrics.SetWALPending(pending)

	return Stats{
		PendingCount:  pending,
		TotalWrites:   w.totalWrites.Load(),
		TotalConfirms: w.totalConfirms.Load(),
		TotalRetries:  w.totalRetries.Load(),
		DBSizeBytes:   lsm + vlog,
	}
}

// RunGC reclaims value log space. A no-op in memory.
func (w *BadgerWAL) RunGC() error {
	if err := w.checkOpen(); err != nil {
		return err
	}
	if w.config.Path == MemoryPath {
		return nil
	}
	for {
		err := w.db.RunValueLogGC(0.5)
		if errors.Is(err, badger.ErrNoRewrite) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("run GC: %w", err)
		}
	}
}

// Close closes the underlying database. Safe to call more than once.
func (w *BadgerWAL) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true

	if err := w.db.Close(); err != nil {
		return fmt.Errorf("close BadgerDB: %w", err)
	}
	logging.Info().Msg("WAL closed")
	return nil
}
