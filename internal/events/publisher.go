package events

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Event is what the notification backends consume off the stream.
type Event struct {
	Type          string
	AppointmentID uuid.UUID
	Payload       map[string]any
}

// Publisher hands domain events to the cross-backend notification pipeline.
// Publishing is fire-and-forget: a failed publish must never fail a booking.
type Publisher interface {
	Publish(ctx context.Context, ev Event)
}

type streamPublisher struct {
	client *redis.Client
	stream string
	logger *zap.Logger
}

// NewStreamPublisher publishes events onto a Redis stream via XADD.
func NewStreamPublisher(client *redis.Client, stream string, logger *zap.Logger) Publisher {
	return &streamPublisher{
		client: client,
		stream: stream,
		logger: logger,
	}
}

func (p *streamPublisher) Publish(ctx context.Context, ev Event) {
	payload, err := json.Marshal(ev.Payload)
	if err != nil {
		p.logger.Warn("marshal event payload",
			zap.String("event_type", ev.Type),
			zap.Error(err))
		payload = nil
	}

	err = p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]any{
			"type":           ev.Type,
			"appointment_id": ev.AppointmentID.String(),
			"payload":        string(payload),
		},
	}).Err()
	if err != nil {
		p.logger.Warn("publish event to stream",
			zap.String("event_type", ev.Type),
			zap.String("appointment_id", ev.AppointmentID.String()),
			zap.Error(err))
	}
}

// NoopPublisher drops events. Used in tests and when Redis is disabled.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) {}
