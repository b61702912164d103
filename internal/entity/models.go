package entity

import (
	"encoding/json"
	"time"
)

// Catalog categories used to group the storefront listing.
const (
	CategoryDelivery    = "delivery"
	CategoryAccessories = "accessories"
	CategoryClothing    = "clothing"
	CategoryPolygraphy  = "polygraphy"
	CategorySouvenirs   = "souvenirs"
)

// categoryTitles maps a category tag to its storefront section title.
var categoryTitles = map[string]string{
	CategoryDelivery:    "Доставка",
	CategoryAccessories: "Аксессуары",
	CategoryClothing:    "Одежда",
	CategoryPolygraphy:  "Полиграфия",
	CategorySouvenirs:   "Сувениры",
}

// CategoryTitle returns the section title for category, or the tag itself
// when it is not one of the known categories.
func CategoryTitle(category string) string {
	if title, ok := categoryTitles[category]; ok {
		return title
	}
	return category
}

// Service is a purchasable catalog entry.
type Service struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Price       *Price `json:"price"`
	Category    string `json:"category"`
	Image       string `json:"image,omitempty"`
}

// PriceDisplay renders the price, or an empty string when it is unset.
func (s Service) PriceDisplay() string {
	if s.Price == nil {
		return ""
	}
	return s.Price.Display()
}

// NewService holds the caller-supplied fields of a catalog entry.
type NewService struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       *Price `json:"price"`
	Category    string `json:"category"`
	Image       string `json:"image"`
}

// CatalogSection is one category block of the grouped storefront listing.
type CatalogSection struct {
	Category string    `json:"category"`
	Title    string    `json:"title"`
	Services []Service `json:"services"`
}

// Status is an order status. The vocabulary is open: any non-empty value is
// accepted, the constants below are the ones the storefront uses today.
type Status string

const (
	StatusNew       Status = "new"
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusShipped   Status = "shipped"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Order is the normalized order header.
type Order struct {
	ID              int64     `json:"id"`
	CustomerName    string    `json:"customer_name"`
	CustomerPhone   string    `json:"customer_phone,omitempty"`
	CustomerEmail   string    `json:"customer_email,omitempty"`
	DeliveryAddress string    `json:"delivery_address,omitempty"`
	DeliveryTime    string    `json:"delivery_time,omitempty"`
	Comments        string    `json:"comments,omitempty"`
	Message         string    `json:"message,omitempty"`
	Status          Status    `json:"status"`
	ServiceID       *int64    `json:"service_id,omitempty"`
	TotalServices   *int      `json:"total_services,omitempty"`
	RawPayload      string    `json:"-"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// OrderLineItem is a point-in-time snapshot of one ordered service.
type OrderLineItem struct {
	ID                 int64  `json:"id"`
	OrderID            int64  `json:"order_id"`
	Position           int    `json:"position"`
	ServiceID          int64  `json:"service_id"`
	ServiceName        string `json:"service_name"`
	ServicePrice       Price  `json:"service_price"`
	ServiceDescription string `json:"service_description,omitempty"`
}

// NoServices is shown in the order listing for orders without any service.
const NoServices = "no services"

// OrderSummary is one row of the order listing.
type OrderSummary struct {
	Order
	ServicesSummary string `json:"services"`
	ServicePrice    *Price `json:"service_price,omitempty"`
}

// OrderDetail is an order with its parsed backup payload and line items.
type OrderDetail struct {
	Order
	Payload json.RawMessage `json:"payload"`
	Items   []OrderLineItem `json:"items"`
	Service *Service        `json:"service,omitempty"`
}

// ServiceCount is one entry of the popularity ranking.
type ServiceCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Stats is the reporting summary.
type Stats struct {
	TotalOrders  int            `json:"total_orders"`
	StatusCounts map[string]int `json:"status_counts"`
	TopServices  []ServiceCount `json:"top_services"`
}

// Health reports storage reachability and row counts.
type Health struct {
	OK           bool `json:"ok"`
	ServiceCount int  `json:"service_count"`
	OrderCount   int  `json:"order_count"`
}
