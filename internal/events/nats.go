// Chatstats - Group Chat Analytics Rollup Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatstats

package events

import (
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"

	"github.com/tomtom215/chatstats/internal/config"
	"github.com/tomtom215/chatstats/internal/logging"
)

// reconnectBuffer is how much outgoing data nats.go buffers while reconnecting.
const reconnectBuffer = 8 * 1024 * 1024

// NewNATSPublisher connects a Watermill publisher to cfg.URL. The connection
// is retried in the background, so an unreachable server does not fail startup.
func NewNATSPublisher(cfg *config.EventsConfig, logger watermill.LoggerAdapter) (message.Publisher, error) {
	if logger == nil {
		logger = watermill.NewSlogLogger(logging.NewSlogLogger())
	}

	reconnectWait := cfg.ReconnectWait
	if reconnectWait <= 0 {
		reconnectWait = 2 * time.Second
	}

	natsOpts := []natsgo.Option{
		natsgo.Name("chatstats"),
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(cfg.MaxReconnects),
		natsgo.ReconnectWait(reconnectWait),
		natsgo.ReconnectBufSize(reconnectBuffer),
		natsgo.DisconnectErrHandler(func(nc *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("NATS reconnected", watermill.LogFields{
				"url": nc.ConnectedUrl(),
			})
		}),
	}

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         cfg.URL,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			Disabled: true,
		},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill nats publisher: %w", err)
	}
	return pub, nil
}

// Open returns a Notifier publishing to NATS, or nil when events are disabled.
func Open(cfg *config.EventsConfig) (*Notifier, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	pub, err := NewNATSPublisher(cfg, nil)
	if err != nil {
		return nil, err
	}
	logging.Info().
		Str("url", cfg.URL).
		Str("topic", cfg.Topic).
		Msg("Bucket events enabled")
	return NewNotifier(pub, cfg.Topic), nil
}
