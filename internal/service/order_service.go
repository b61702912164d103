package service

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/egannguyen/printshop-backend/internal/entity"
	"github.com/egannguyen/printshop-backend/internal/messaging"
	"github.com/egannguyen/printshop-backend/internal/repository"
	"github.com/egannguyen/printshop-backend/internal/telemetry"
)

// OrderService orchestrates order-related business logic.
type OrderService struct {
	orders        repository.OrderRepository
	composer      *OrderComposer
	eventStore    repository.EventStore
	publisher     messaging.Publisher
	metrics       *telemetry.OrderMetrics
	defaultStatus entity.Status
}

// NewOrderService wires the order use cases. A nil publisher drops events
// and nil metrics record nothing.
func NewOrderService(
	orders repository.OrderRepository,
	composer *OrderComposer,
	eventStore repository.EventStore,
	publisher messaging.Publisher,
	metrics *telemetry.OrderMetrics,
	defaultStatus entity.Status,
) *OrderService {
	if publisher == nil {
		publisher = messaging.NoopPublisher{}
	}
	if defaultStatus == "" {
		defaultStatus = entity.StatusNew
	}
	return &OrderService{
		orders:        orders,
		composer:      composer,
		eventStore:    eventStore,
		publisher:     publisher,
		metrics:       metrics,
		defaultStatus: defaultStatus,
	}
}

// CreateOrder validates raw and stores the order with its line items.
func (s *OrderService) CreateOrder(ctx context.Context, raw entity.RawSubmission) (*entity.CreateResult, error) {
	composed, err := s.composer.Compose(ctx, raw)
	if err != nil {
		return nil, err
	}

	order := composed.Order
	if order.Status == "" {
		order.Status = s.defaultStatus
	}

	id, err := s.orders.Create(ctx, order, composed.Items)
	if err != nil {
		return nil, storageErr("create order", err)
	}

	slog.Info("Order saved to database", "order_id", id, "items", len(composed.Items))

	result := &entity.CreateResult{
		OrderID:       id,
		Status:        order.Status,
		TotalServices: len(composed.Items),
		Message:       "Order accepted",
	}
	kind := "line_items"
	if composed.Service != nil {
		result.ServiceName = composed.Service.Name
		result.TotalServices = 1
		kind = "single_service"
	}
	s.metrics.OrderCreated(ctx, kind)

	s.emit(ctx, entity.OrderCreated{
		OrderID:       id,
		CustomerName:  order.CustomerName,
		Status:        order.Status,
		TotalServices: result.TotalServices,
		ServiceID:     order.ServiceID,
		CreatedAt:     time.Now().UTC(),
	})
	return result, nil
}

// ListOrders returns all orders, newest first.
func (s *OrderService) ListOrders(ctx context.Context) ([]entity.OrderSummary, error) {
	orders, err := s.orders.FindAll(ctx)
	if err != nil {
		return nil, storageErr("list orders", err)
	}
	if orders == nil {
		orders = []entity.OrderSummary{}
	}
	return orders, nil
}

// GetOrder returns the order with its backup payload and line items.
func (s *OrderService) GetOrder(ctx context.Context, id int64) (*entity.OrderDetail, error) {
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, storageErr("get order", err)
	}
	return order, nil
}

// UpdateOrder replaces the order with a fresh submission. Line items are
// swapped as a whole; the status is kept unless raw carries one.
func (s *OrderService) UpdateOrder(ctx context.Context, id int64, raw entity.RawSubmission) (*entity.OrderDetail, error) {
	composed, err := s.composer.Compose(ctx, raw)
	if err != nil {
		return nil, err
	}

	if err := s.orders.Replace(ctx, id, composed.Order, composed.Items); err != nil {
		return nil, storageErr("update order", err)
	}

	slog.Info("Order updated", "order_id", id, "items", len(composed.Items))

	total := len(composed.Items)
	if composed.Service != nil {
		total = 1
	}
	s.emit(ctx, entity.OrderUpdated{OrderID: id, TotalServices: total, UpdatedAt: time.Now().UTC()})

	return s.GetOrder(ctx, id)
}

// UpdateStatus sets the status to any non-empty value.
func (s *OrderService) UpdateStatus(ctx context.Context, id int64, status string) error {
	status = strings.TrimSpace(status)
	if status == "" {
		return entity.NewMissingField(FieldStatus)
	}

	if err := s.orders.UpdateStatus(ctx, id, entity.Status(status)); err != nil {
		return storageErr("update order status", err)
	}

	slog.Info("Order status changed", "order_id", id, "status", status)
	s.metrics.StatusChanged(ctx, status)
	s.emit(ctx, entity.OrderStatusChanged{OrderID: id, Status: entity.Status(status), ChangedAt: time.Now().UTC()})
	return nil
}

// DeleteOrder removes the order and its line items.
func (s *OrderService) DeleteOrder(ctx context.Context, id int64) error {
	if err := s.orders.Delete(ctx, id); err != nil {
		return storageErr("delete order", err)
	}

	slog.Info("Order deleted", "order_id", id)
	s.metrics.OrderDeleted(ctx)
	s.emit(ctx, entity.OrderDeleted{OrderID: id, DeletedAt: time.Now().UTC()})
	return nil
}

// OrderHistory returns the recorded lifecycle events of an order, including
// those of an order that has since been deleted.
func (s *OrderService) OrderHistory(ctx context.Context, id int64) ([]entity.EventRecord, error) {
	if s.eventStore == nil {
		return nil, entity.ErrNotFound
	}
	records, err := s.eventStore.LoadByOrder(ctx, id)
	if err != nil {
		return nil, storageErr("load order history", err)
	}
	if len(records) == 0 {
		return nil, entity.ErrNotFound
	}
	return records, nil
}

// emit records and publishes event after its write has committed. Failures
// are logged only: the write stands and nothing is retried.
func (s *OrderService) emit(ctx context.Context, event entity.Event) {
	ctx, span := telemetry.Tracer().Start(ctx, "order.event "+event.EventType(),
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("messaging.destination", messaging.TopicOrderEvents),
			attribute.Int64("order.id", event.AggregateID()),
		),
	)
	defer span.End()

	if s.eventStore != nil {
		if err := s.eventStore.Append(ctx, event); err != nil {
			slog.Error("Failed to record order event", "type", event.EventType(), "order_id", event.AggregateID(), "err", err)
		}
	}

	env, err := messaging.NewEnvelope(event)
	if err != nil {
		slog.Error("Failed to build event envelope", "type", event.EventType(), "err", err)
		return
	}
	key := strconv.FormatInt(event.AggregateID(), 10)
	if err := s.publisher.PublishEvent(ctx, messaging.TopicOrderEvents, key, env); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "publish failed")
		slog.Error("Failed to publish order event", "type", event.EventType(), "order_id", event.AggregateID(), "err", err)
	}
}
