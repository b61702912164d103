package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	kafkaGo "github.com/segmentio/kafka-go"

	"github.com/egannguyen/printshop-backend/internal/messaging"
)

// Writer tuning. Writes are asynchronous: a publish only queues the message
// and delivery failures are reported through the log.
const (
	BatchTimeout = 10 * time.Millisecond
	WriteTimeout = 5 * time.Second
	MaxAttempts  = 3
)

// Broker publishes to and consumes from Kafka. Writers are created lazily,
// one per topic, and reused.
type Broker struct {
	brokers []string

	mu      sync.Mutex
	writers map[string]*kafkaGo.Writer
}

var (
	_ messaging.Publisher  = (*Broker)(nil)
	_ messaging.Subscriber = (*Broker)(nil)
)

// NewKafkaBroker creates a new Kafka publisher and subscriber.
func NewKafkaBroker(brokers []string) *Broker {
	return &Broker{
		brokers: brokers,
		writers: make(map[string]*kafkaGo.Writer),
	}
}

func (k *Broker) writer(topic string) *kafkaGo.Writer {
	k.mu.Lock()
	defer k.mu.Unlock()

	if w, ok := k.writers[topic]; ok {
		return w
	}
	w := &kafkaGo.Writer{
		Addr:                   kafkaGo.TCP(k.brokers...),
		Topic:                  topic,
		Balancer:               &kafkaGo.Hash{},
		AllowAutoTopicCreation: true,
		Async:                  true,
		BatchTimeout:           BatchTimeout,
		WriteTimeout:           WriteTimeout,
		MaxAttempts:            MaxAttempts,
		Completion:             logDelivery(topic),
	}
	k.writers[topic] = w
	return w
}

func logDelivery(topic string) func([]kafkaGo.Message, error) {
	return func(messages []kafkaGo.Message, err error) {
		if err != nil {
			slog.Error("Failed to deliver events", "topic", topic, "count", len(messages), "err", err)
		}
	}
}

// PublishEvent queues event as JSON keyed by key, so all events of one order
// land on the same partition.
func (k *Broker) PublishEvent(ctx context.Context, topic string, key string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	return k.writer(topic).WriteMessages(ctx, kafkaGo.Message{
		Key:   []byte(key),
		Value: payload,
	})
}

// Consume reads messages in a loop and calls handler for each one. It blocks
// until ctx is cancelled. Handler errors are logged and the message is
// committed anyway.
func (k *Broker) Consume(ctx context.Context, topic string, groupID string, handler func(ctx context.Context, payload []byte) error) {
	reader := kafkaGo.NewReader(kafkaGo.ReaderConfig{
		Brokers: k.brokers,
		Topic:   topic,
		GroupID: groupID,
	})
	defer reader.Close()

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				slog.Info("Consumer shutting down", "topic", topic)
				return
			}
			slog.Error("Error reading message", "topic", topic, "err", err)
			continue
		}

		if err := handler(ctx, msg.Value); err != nil {
			slog.Error("Error handling message", "topic", topic, "offset", msg.Offset, "err", err)
		}
	}
}

// Close flushes and closes every writer.
func (k *Broker) Close() error {
	k.mu.Lock()
	defer k.mu.Unlock()

	var firstErr error
	for topic, w := range k.writers {
		if err := w.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close writer for %s: %w", topic, err)
		}
		delete(k.writers, topic)
	}
	return firstErr
}
