package service

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/yuwei031/SubForge/internal/app/model"
)

// ConversionPublisher publishes pipeline audit events to NATS JetStream
type ConversionPublisher struct {
	js nats.JetStreamContext
}

// NewConversionPublisher creates a new conversion event publisher
func NewConversionPublisher(js nats.JetStreamContext) *ConversionPublisher {
	return &ConversionPublisher{js: js}
}

// Publish publishes a conversion event to the stream
func (p *ConversionPublisher) Publish(configID, action, backend, outcome string) error {
	event := model.ConversionEvent{
		ID:        uuid.New().String(),
		ConfigID:  configID,
		Action:    action,
		Backend:   backend,
		Outcome:   outcome,
		Timestamp: time.Now(),
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	_, err = p.js.Publish(model.ConversionStreamSubject, data)
	return err
}
