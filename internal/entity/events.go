package entity

import (
	"encoding/json"
	"time"
)

// Event is an order lifecycle event published after a committed write.
type Event interface {
	EventType() string
	AggregateID() int64
}

// OrderCreated is emitted when an order is stored.
type OrderCreated struct {
	OrderID       int64     `json:"order_id"`
	CustomerName  string    `json:"customer_name"`
	Status        Status    `json:"status"`
	TotalServices int       `json:"total_services"`
	ServiceID     *int64    `json:"service_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func (e OrderCreated) EventType() string  { return "OrderCreated" }
func (e OrderCreated) AggregateID() int64 { return e.OrderID }

// OrderUpdated is emitted when an order is replaced by a new submission.
type OrderUpdated struct {
	OrderID       int64     `json:"order_id"`
	TotalServices int       `json:"total_services"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (e OrderUpdated) EventType() string  { return "OrderUpdated" }
func (e OrderUpdated) AggregateID() int64 { return e.OrderID }

// OrderStatusChanged is emitted when only the status of an order changes.
type OrderStatusChanged struct {
	OrderID   int64     `json:"order_id"`
	Status    Status    `json:"status"`
	ChangedAt time.Time `json:"changed_at"`
}

func (e OrderStatusChanged) EventType() string  { return "OrderStatusChanged" }
func (e OrderStatusChanged) AggregateID() int64 { return e.OrderID }

// OrderDeleted is emitted when an order and its line items are removed.
type OrderDeleted struct {
	OrderID   int64     `json:"order_id"`
	DeletedAt time.Time `json:"deleted_at"`
}

func (e OrderDeleted) EventType() string  { return "OrderDeleted" }
func (e OrderDeleted) AggregateID() int64 { return e.OrderID }

// EventRecord is an event as kept in the order history table.
type EventRecord struct {
	ID        string          `json:"id"`
	OrderID   int64           `json:"order_id"`
	EventType string          `json:"event_type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}
