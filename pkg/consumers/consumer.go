// Package consumers provides the JetStream pull-consumer harness shared by
// the enrichment services.
package consumers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog"
)

// MessageProcessor handles one stream message.
type MessageProcessor interface {
	Process(ctx context.Context, msg jetstream.Msg) error
}

const (
	defaultAckWait         = 30 * time.Second
	defaultMaxDeliver      = 3
	defaultMaxAckPending   = 1000
	defaultMaxPullMessages = 10
	defaultPullExpiry      = 30 * time.Second
	defaultMaxRetries      = 3
	fetchBackoff           = time.Second
)

// Consumer wraps a durable JetStream pull consumer. One consumer serves one
// partition of the inbound stream; messages within it are processed strictly
// in order.
type Consumer struct {
	streamName   string
	consumerName string
	consumer     jetstream.Consumer
	log          zerolog.Logger
}

// NewConsumer gets or creates the durable pull consumer on the stream.
func NewConsumer(ctx context.Context, js jetstream.JetStream, streamName, consumerName, subject string, log zerolog.Logger) (*Consumer, error) {
	consumer, err := js.Consumer(ctx, streamName, consumerName)
	if err != nil {
		cfg := jetstream.ConsumerConfig{
			Durable:       consumerName,
			AckPolicy:     jetstream.AckExplicitPolicy,
			AckWait:       defaultAckWait,
			MaxDeliver:    defaultMaxDeliver,
			MaxAckPending: defaultMaxAckPending,
		}

		if subject != "" {
			cfg.FilterSubject = subject
		}

		consumer, err = js.CreateConsumer(ctx, streamName, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create consumer %s on stream %s: %w", consumerName, streamName, err)
		}
	}

	return &Consumer{
		streamName:   streamName,
		consumerName: consumerName,
		consumer:     consumer,
		log:          log,
	}, nil
}

// ProcessMessages fetches and processes messages until the context is
// canceled.
func (c *Consumer) ProcessMessages(ctx context.Context, processor MessageProcessor) {
	c.log.Info().
		Str("stream", c.streamName).
		Str("consumer", c.consumerName).
		Msg("Starting pull consumer")

	for {
		select {
		case <-ctx.Done():
			c.log.Info().Msg("Stopping message processing")

			return
		default:
			msgs, err := c.consumer.Fetch(defaultMaxPullMessages, jetstream.FetchMaxWait(defaultPullExpiry))
			if err != nil {
				if !errors.Is(err, context.Canceled) {
					c.log.Warn().Err(err).Msg("Failed to fetch messages")
				}

				time.Sleep(fetchBackoff)

				continue
			}

			for msg := range msgs.Messages() {
				c.handleMessage(ctx, msg, processor)
			}

			if fetchErr := msgs.Error(); fetchErr != nil {
				c.log.Warn().Err(fetchErr).Msg("Fetch error")
			}
		}
	}
}

func (c *Consumer) handleMessage(ctx context.Context, msg jetstream.Msg, processor MessageProcessor) {
	metadata, _ := msg.Metadata()

	if err := processor.Process(ctx, msg); err != nil {
		c.log.Warn().Err(err).Str("subject", msg.Subject()).Msg("Failed to process message")

		if metadata != nil && metadata.NumDelivered >= defaultMaxRetries {
			c.log.Warn().Msg("Max retries reached, acknowledging message")
			_ = msg.Ack()

			return
		}

		_ = msg.Nak()

		return
	}

	_ = msg.Ack()
}
