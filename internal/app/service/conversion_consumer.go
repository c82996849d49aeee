package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/yuwei031/SubForge/internal/app/model"
	apprepository "github.com/yuwei031/SubForge/internal/app/repository"
	"go.uber.org/zap"
)

// ConversionConsumer consumes pipeline audit events from NATS JetStream and
// persists them for the activity view.
type ConversionConsumer struct {
	js     nats.JetStreamContext
	logger *zap.Logger
	repo   apprepository.ConversionEventRepository
}

// NewConversionConsumer creates a new conversion event consumer
func NewConversionConsumer(js nats.JetStreamContext, logger *zap.Logger, repo apprepository.ConversionEventRepository) *ConversionConsumer {
	return &ConversionConsumer{js: js, logger: logger, repo: repo}
}

// Start begins consuming conversion events
func (c *ConversionConsumer) Start() error {
	// Create stream if not exists
	_, err := c.js.StreamInfo(model.ConversionStreamName)
	if err != nil {
		_, err = c.js.AddStream(&nats.StreamConfig{
			Name:     model.ConversionStreamName,
			Subjects: []string{model.ConversionStreamSubject},
			MaxBytes: model.ConversionStreamMaxBytes,
		})
		if err != nil {
			return fmt.Errorf("failed to create stream: %w", err)
		}
	}

	// Create consumer if not exists
	_, err = c.js.ConsumerInfo(model.ConversionStreamName, model.ConversionConsumerName)
	if err != nil {
		_, err = c.js.AddConsumer(model.ConversionStreamName, &nats.ConsumerConfig{
			Durable:   model.ConversionConsumerName,
			AckPolicy: nats.AckExplicitPolicy,
		})
		if err != nil {
			return fmt.Errorf("failed to create consumer: %w", err)
		}
	}

	// Subscribe to consume messages
	sub, err := c.js.PullSubscribe(model.ConversionStreamSubject, model.ConversionConsumerName)
	if err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	go c.consume(sub)
	return nil
}

func (c *ConversionConsumer) consume(sub *nats.Subscription) {
	ctx := context.Background()
	for {
		msgs, err := sub.Fetch(10, nats.MaxWait(5*time.Second))
		if err != nil && err != nats.ErrTimeout {
			c.logger.Error("failed to fetch messages", zap.Error(err))
			continue
		}

		for _, msg := range msgs {
			var event model.ConversionEvent
			if err := json.Unmarshal(msg.Data, &event); err != nil {
				c.logger.Error("failed to unmarshal conversion event", zap.Error(err))
				msg.Nak()
				continue
			}

			if err := c.repo.Create(ctx, &event); err != nil {
				c.logger.Error("failed to store conversion event",
					zap.String("id", event.ID),
					zap.String("config_id", event.ConfigID),
					zap.Error(err))
				msg.Nak()
				continue
			}

			c.logger.Debug("conversion event stored",
				zap.String("id", event.ID),
				zap.String("config_id", event.ConfigID),
				zap.String("action", event.Action),
				zap.String("outcome", event.Outcome),
			)

			msg.Ack()
		}
	}
}
