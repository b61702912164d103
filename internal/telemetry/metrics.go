package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Order counter names.
const (
	MetricOrdersCreated       = "printshop.orders.created"
	MetricOrdersStatusChanged = "printshop.orders.status_changed"
	MetricOrdersDeleted       = "printshop.orders.deleted"
)

// OrderMetrics counts order lifecycle changes. A nil *OrderMetrics records
// nothing.
type OrderMetrics struct {
	created       metric.Int64Counter
	statusChanged metric.Int64Counter
	deleted       metric.Int64Counter
}

// NewOrderMetrics creates the order counters on the module meter of mp. A nil
// mp uses the global provider.
func NewOrderMetrics(mp metric.MeterProvider) (*OrderMetrics, error) {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(InstrumentationName)

	created, err := meter.Int64Counter(MetricOrdersCreated,
		metric.WithDescription("Orders accepted"), metric.WithUnit("{order}"))
	if err != nil {
		return nil, fmt.Errorf("failed to create counter %s: %w", MetricOrdersCreated, err)
	}
	statusChanged, err := meter.Int64Counter(MetricOrdersStatusChanged,
		metric.WithDescription("Order status changes"), metric.WithUnit("{change}"))
	if err != nil {
		return nil, fmt.Errorf("failed to create counter %s: %w", MetricOrdersStatusChanged, err)
	}
	deleted, err := meter.Int64Counter(MetricOrdersDeleted,
		metric.WithDescription("Orders deleted"), metric.WithUnit("{order}"))
	if err != nil {
		return nil, fmt.Errorf("failed to create counter %s: %w", MetricOrdersDeleted, err)
	}

	return &OrderMetrics{created: created, statusChanged: statusChanged, deleted: deleted}, nil
}

// OrderCreated counts one accepted order of the given kind, e.g. "line_items".
func (m *OrderMetrics) OrderCreated(ctx context.Context, kind string) {
	if m == nil {
		return
	}
	m.created.Add(ctx, 1, metric.WithAttributes(attribute.String("order.kind", kind)))
}

// StatusChanged counts one transition to status.
func (m *OrderMetrics) StatusChanged(ctx context.Context, status string) {
	if m == nil {
		return
	}
	m.statusChanged.Add(ctx, 1, metric.WithAttributes(attribute.String("order.status", status)))
}

// OrderDeleted counts one deleted order.
func (m *OrderMetrics) OrderDeleted(ctx context.Context) {
	if m == nil {
		return
	}
	m.deleted.Add(ctx, 1)
}
