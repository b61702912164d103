package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/egannguyen/printshop-backend/internal/entity"
	"github.com/egannguyen/printshop-backend/internal/messaging"
)

// NotificationService consumes order events and notifies staff. Delivery is
// a structured log line for now.
type NotificationService struct {
	mu     sync.Mutex
	counts map[string]int
}

func NewNotificationService() *NotificationService {
	return &NotificationService{counts: make(map[string]int)}
}

// HandleEvent decodes one consumed message and announces it.
func (s *NotificationService) HandleEvent(ctx context.Context, payload []byte) error {
	env, err := messaging.DecodeEnvelope(payload)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.counts[env.Type]++
	s.mu.Unlock()

	switch env.Type {
	case entity.OrderCreated{}.EventType():
		var e entity.OrderCreated
		if err := json.Unmarshal(env.Data, &e); err != nil {
			return err
		}
		slog.InfoContext(ctx, "New order received",
			"order_id", e.OrderID,
			"customer", e.CustomerName,
			"services", e.TotalServices,
		)
	case entity.OrderStatusChanged{}.EventType():
		var e entity.OrderStatusChanged
		if err := json.Unmarshal(env.Data, &e); err != nil {
			return err
		}
		slog.InfoContext(ctx, "Order status changed", "order_id", e.OrderID, "status", e.Status)
	default:
		slog.InfoContext(ctx, "Order event", "type", env.Type, "order_id", env.OrderID, "event_id", env.ID)
	}
	return nil
}

// Counts returns how many events of each type were handled.
func (s *NotificationService) Counts() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]int, len(s.counts))
	for k, v := range s.counts {
		out[k] = v
	}
	return out
}
