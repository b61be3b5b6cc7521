// Chatstats - Group Chat Analytics Rollup Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatstats

package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/chatstats/internal/logging"
	"github.com/tomtom215/chatstats/internal/metrics"
	"github.com/tomtom215/chatstats/internal/models"
	"github.com/tomtom215/chatstats/internal/wal"
)

// Metadata keys set on every bucket message.
const (
	MetadataStatistic   = "statistic"
	MetadataLevel       = "level"
	MetadataGranularity = "granularity"
	MetadataCorrelation = "correlation_id"
)

// Journal durably records events before they are published.
type Journal interface {
	Write(ctx context.Context, event interface{}) (string, error)
	Confirm(ctx context.Context, entryID string) error
}

// Notifier publishes BucketEvents to a topic.
type Notifier struct {
	publisher message.Publisher
	topic     string
	breaker   *gobreaker.CircuitBreaker[interface{}]
	journal   Journal
	mu        sync.RWMutex
	closed    bool
}

// NewNotifier wraps publisher. The notifier owns publisher and closes it.
func NewNotifier(publisher message.Publisher, topic string) *Notifier {
	return &Notifier{
		publisher: publisher,
		topic:     topic,
		breaker: gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
			Name:        "events-" + topic,
			MaxRequests: 1,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logging.Warn().
					Str("breaker", name).
					Str("from", from.String()).
					Str("to", to.String()).
					Msg("Event publisher circuit breaker state changed")
			},
		}),
	}
}

// UseJournal makes every BucketWritten call record the event in j first and
// confirm it after a successful publish. Unconfirmed events are republished
// through PublishEntry.
func (n *Notifier) UseJournal(j Journal) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.journal = j
}

// Topic returns the topic events are published to.
func (n *Notifier) Topic() string {
	return n.topic
}

// BucketWritten publishes event. With a journal, a failed publish is kept
// for the retry loop and the returned error says so.
func (n *Notifier) BucketWritten(ctx context.Context, event models.BucketEvent) (err error) {
	defer func() {
		metrics.RecordEventPublish(err)
	}()

	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.closed {
		return fmt.Errorf("notifier is closed")
	}

	var entryID string
	if n.journal != nil {
		if entryID, err = n.journal.Write(ctx, event); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("event_id", event.EventID).Msg("Failed to journal bucket event, publishing without WAL")
			entryID = ""
		}
	}

	if err = n.publish(ctx, event); err != nil {
		if entryID != "" {
			return fmt.Errorf("bucket event %s kept in WAL for retry: %w", event.EventID, err)
		}
		return err
	}

	if entryID != "" {
		if cerr := n.journal.Confirm(ctx, entryID); cerr != nil {
			logging.Ctx(ctx).Warn().Err(cerr).Str("entry_id", entryID).Msg("Failed to confirm WAL entry")
		}
	}
	return nil
}

// PublishEntry republishes a journaled event. It implements wal.Publisher.
func (n *Notifier) PublishEntry(ctx context.Context, entry *wal.Entry) error {
	var event models.BucketEvent
	if err := entry.UnmarshalPayload(&event); err != nil {
		return fmt.Errorf("unmarshal WAL entry %s: %w", entry.ID, err)
	}

	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.closed {
		return fmt.Errorf("notifier is closed")
	}
	return n.publish(ctx, event)
}

func (n *Notifier) publish(ctx context.Context, event models.BucketEvent) error {
	msg, err := encode(event)
	if err != nil {
		return err
	}
	if id := logging.CorrelationIDFromContext(ctx); id != "" {
		msg.Metadata.Set(MetadataCorrelation, id)
	}
	msg.SetContext(ctx)

	_, err = n.breaker.Execute(func() (interface{}, error) {
		return nil, n.publisher.Publish(n.topic, msg)
	})
	if err != nil {
		return fmt.Errorf("publish bucket event %s: %w", event.EventID, err)
	}
	return nil
}

// Close shuts the underlying publisher down. Safe to call more than once.
func (n *Notifier) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return nil
	}
	n.closed = true
	return n.publisher.Close()
}

func encode(event models.BucketEvent) (*message.Message, error) {
	if event.EventID == "" {
		return nil, fmt.Errorf("bucket event has no id")
	}
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal bucket event: %w", err)
	}
	msg := message.NewMessage(event.EventID, data)
	msg.Metadata.Set(MetadataStatistic, event.Statistic)
	msg.Metadata.Set(MetadataLevel, string(event.Level))
	msg.Metadata.Set(MetadataGranularity, string(event.Granularity))
	return msg, nil
}

// Decode parses a bucket message payload.
func Decode(msg *message.Message) (models.BucketEvent, error) {
	var event models.BucketEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		return models.BucketEvent{}, fmt.Errorf("unmarshal bucket event %s: %w", msg.UUID, err)
	}
	return event, nil
}

var _ wal.Publisher = (*Notifier)(nil)
