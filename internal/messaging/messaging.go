package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/egannguyen/printshop-backend/internal/entity"
)

// TopicOrderEvents carries every order lifecycle event.
const TopicOrderEvents = "orders.events"

// Publisher defines an interface for publishing events to a message broker.
type Publisher interface {
	PublishEvent(ctx context.Context, topic string, key string, event any) error
}

// Subscriber defines an interface for subscribing to a message topic.
type Subscriber interface {
	Consume(ctx context.Context, topic string, groupID string, handler func(ctx context.Context, payload []byte) error)
}

// Envelope is the wire form of an order event.
type Envelope struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	OrderID    int64           `json:"order_id"`
	OccurredAt time.Time       `json:"occurred_at"`
	Data       json.RawMessage `json:"data"`
}

// NewEnvelope wraps event with a fresh id.
func NewEnvelope(event entity.Event) (*Envelope, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", event.EventType(), err)
	}
	return &Envelope{
		ID:         uuid.NewString(),
		Type:       event.EventType(),
		OrderID:    event.AggregateID(),
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}, nil
}

// DecodeEnvelope parses a consumed message.
func DecodeEnvelope(payload []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, fmt.Errorf("failed to unmarshal envelope: %w", err)
	}
	if env.Type == "" {
		return nil, fmt.Errorf("envelope %q has no type", env.ID)
	}
	return &env, nil
}

// NoopPublisher drops every event. It is used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishEvent(context.Context, string, string, any) error { return nil }
