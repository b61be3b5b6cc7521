// Chatstats - Group Chat Analytics Rollup Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatstats

package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomtom215/chatstats/internal/config"
	"github.com/tomtom215/chatstats/internal/interval"
	"github.com/tomtom215/chatstats/internal/logging"
	"github.com/tomtom215/chatstats/internal/models"
	"github.com/tomtom215/chatstats/internal/wal"
)

func testEvent() models.BucketEvent {
	return models.BucketEvent{
		EventID:     "6f1c1f7e-2f43-4c7d-9a59-0c7b1a0b0d11",
		Statistic:   "active_users",
		Level:       models.LevelRealm,
		Granularity: interval.Gauge,
		EndTime:     time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		Rows:        1,
		Total:       10,
		WrittenAt:   time.Date(2024, 1, 2, 0, 5, 0, 0, time.UTC),
	}
}

func TestNotifier_PublishesBucketEvent(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 1}, watermill.NopLogger{})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	messages, err := pubSub.Subscribe(ctx, "chatstats.buckets")
	require.NoError(t, err)

	n := NewNotifier(pubSub, "chatstats.buckets")
	defer func() { assert.NoError(t, n.Close()) }()
	assert.Equal(t, "chatstats.buckets", n.Topic())

	runCtx := logging.ContextWithCorrelationID(ctx, "abc12345")
	require.NoError(t, n.BucketWritten(runCtx, testEvent()))

	select {
	case msg := <-messages:
		msg.Ack()
		assert.Equal(t, testEvent().EventID, msg.UUID)
		assert.Equal(t, "active_users", msg.Metadata.Get(MetadataStatistic))
		assert.Equal(t, "realm", msg.Metadata.Get(MetadataLevel))
		assert.Equal(t, "gauge", msg.Metadata.Get(MetadataGranularity))
		assert.Equal(t, "abc12345", msg.Metadata.Get(MetadataCorrelation))

		got, err := Decode(msg)
		require.NoError(t, err)
		assert.Equal(t, testEvent(), got)
	case <-ctx.Done():
		t.Fatal("timed out waiting for bucket event")
	}
}

func TestNotifier_RejectsEventWithoutID(t *testing.T) {
	n := NewNotifier(gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{}), "t")
	ev := testEvent()
	ev.EventID = ""
	assert.Error(t, n.BucketWritten(context.Background(), ev))
}

func TestNotifier_ClosedReturnsError(t *testing.T) {
	n := NewNotifier(gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{}), "t")
	require.NoError(t, n.Close())
	require.NoError(t, n.Close())
	assert.Error(t, n.BucketWritten(context.Background(), testEvent()))
}

// failingPublisher always fails.
type failingPublisher struct {
	calls int
}

func (f *failingPublisher) Publish(string, ...*message.Message) error {
	f.calls++
	return errors.New("broker unavailable")
}

func (f *failingPublisher) Close() error { return nil }

func TestNotifier_BreakerOpensOnRepeatedFailures(t *testing.T) {
	pub := &failingPublisher{}
	n := NewNotifier(pub, "t")

	for i := 0; i < 5; i++ {
		assert.Error(t, n.BucketWritten(context.Background(), testEvent()))
	}
	err := n.BucketWritten(context.Background(), testEvent())
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 5, pub.calls)
}

func TestDecode_InvalidPayload(t *testing.T) {
	_, err := Decode(message.NewMessage("x", []byte("{")))
	assert.Error(t, err)
}

func TestOpen_Disabled(t *testing.T) {
	n, err := Open(&config.EventsConfig{Enabled: false})
	require.NoError(t, err)
	assert.Nil(t, n)
}

// flakyPublisher fails while fail is set.
type flakyPublisher struct {
	fail      bool
	published []string
}

func (f *flakyPublisher) Publish(_ string, msgs ...*message.Message) error {
	if f.fail {
		return errors.New("nats: no servers available")
	}
	for _, m := range msgs {
		f.published = append(f.published, m.UUID)
	}
	return nil
}

func (f *flakyPublisher) Close() error { return nil }

func TestNotifier_JournalKeepsFailedEventsForRetry(t *testing.T) {
	journal, err := wal.Open(&config.WALConfig{
		Enabled:       true,
		Path:          wal.MemoryPath,
		RetryInterval: time.Second,
		RetryBackoff:  time.Millisecond,
		MaxRetries:    5,
		EntryTTL:      time.Hour,
	})
	require.NoError(t, err)
	defer journal.Close()

	pub := &flakyPublisher{}
	n := NewNotifier(pub, "chatstats.buckets")
	n.UseJournal(journal)
	ctx := context.Background()

	// A successful publish confirms its entry straight away.
	require.NoError(t, n.BucketWritten(ctx, testEvent()))
	assert.Equal(t, int64(0), journal.Stats().PendingCount)

	pub.fail = true
	failed := testEvent()
	failed.EventID = "0b8e3c59-4c1e-4d55-8d5f-3f1f54f0d2aa"
	err = n.BucketWritten(ctx, failed)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kept in WAL")
	assert.Equal(t, int64(1), journal.Stats().PendingCount)

	pub.fail = false
	res, err := wal.NewRetryLoop(journal, n).RetryPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Succeeded)
	assert.Equal(t, int64(0), journal.Stats().PendingCount)
	assert.Equal(t, []string{testEvent().EventID, failed.EventID}, pub.published)
}
