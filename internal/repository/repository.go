package repository

import (
	"context"

	"github.com/egannguyen/printshop-backend/internal/entity"
)

// ServiceRepository handles persistence for catalog Services.
type ServiceRepository interface {
	FindAll(ctx context.Context) ([]entity.Service, error)
	FindByID(ctx context.Context, id int64) (*entity.Service, error)
	Create(ctx context.Context, svc entity.NewService) (*entity.Service, error)
	// Delete removes the service. Orders referencing it are left untouched.
	Delete(ctx context.Context, id int64) error
	// Seed inserts the default catalog once per database. It reports whether
	// anything was inserted.
	Seed(ctx context.Context, services []entity.NewService) (bool, error)
}

// OrderRepository handles persistence for Orders and their line items.
type OrderRepository interface {
	Create(ctx context.Context, order entity.Order, items []entity.OrderLineItem) (int64, error)
	FindAll(ctx context.Context) ([]entity.OrderSummary, error)
	FindByID(ctx context.Context, id int64) (*entity.OrderDetail, error)
	// Replace overwrites the header and swaps all line items in one transaction.
	Replace(ctx context.Context, id int64, order entity.Order, items []entity.OrderLineItem) error
	UpdateStatus(ctx context.Context, id int64, status entity.Status) error
	Delete(ctx context.Context, id int64) error
}

// ReportRepository serves the read-side aggregates.
type ReportRepository interface {
	CountOrders(ctx context.Context) (int, error)
	CountServices(ctx context.Context) (int, error)
	StatusCounts(ctx context.Context) (map[string]int, error)
	TopServices(ctx context.Context, limit int) ([]entity.ServiceCount, error)
	Ping(ctx context.Context) error
}

// EventStore keeps the lifecycle history of orders.
type EventStore interface {
	Append(ctx context.Context, event entity.Event) error
	LoadByOrder(ctx context.Context, orderID int64) ([]entity.EventRecord, error)
}
