package entity

// RawSubmission is an order payload as decoded from the request body.
type RawSubmission map[string]any

// Submission is a resolved order payload: either a LineItemOrder or a
// SingleServiceOrder.
type Submission interface {
	header() *Order
}

// LineItemOrder carries a numbered list of service snapshots. An order
// without any services (a bare contact form) is a LineItemOrder with no
// items.
type LineItemOrder struct {
	Order Order
	Items []OrderLineItem
}

func (s *LineItemOrder) header() *Order { return &s.Order }

// SingleServiceOrder references one catalog service by id.
type SingleServiceOrder struct {
	Order     Order
	ServiceID int64
}

func (s *SingleServiceOrder) header() *Order { return &s.Order }

// Header returns the order header of any submission variant.
func Header(s Submission) *Order {
	return s.header()
}

// ComposedOrder is a validated submission ready to be persisted.
type ComposedOrder struct {
	Order   Order
	Items   []OrderLineItem
	Service *Service
}

// CreateResult is the confirmation returned after an order is stored.
type CreateResult struct {
	OrderID       int64  `json:"order_id"`
	Status        Status `json:"status"`
	TotalServices int    `json:"total_services"`
	ServiceName   string `json:"service_name,omitempty"`
	Message       string `json:"message"`
}
