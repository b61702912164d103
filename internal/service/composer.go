package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/egannguyen/printshop-backend/internal/entity"
	"github.com/egannguyen/printshop-backend/internal/repository"
)

// Submission field names.
const (
	FieldCustomerName    = "customer_name"
	FieldCustomerPhone   = "customer_phone"
	FieldCustomerEmail   = "customer_email"
	FieldDeliveryAddress = "delivery_address"
	FieldDeliveryTime    = "delivery_time"
	FieldComments        = "comments"
	FieldMessage         = "message"
	FieldStatus          = "status"
	FieldServiceID       = "service_id"
	FieldTotalServices   = "total_services"
)

// ContactFields are the fields that identify how to reach a customer.
var ContactFields = []string{FieldCustomerPhone, FieldCustomerEmail}

// DefaultRequiredFields is the check order used when none is configured.
var DefaultRequiredFields = []string{FieldCustomerName, FieldCustomerPhone}

// DefaultMaxLineItems bounds total_services.
const DefaultMaxLineItems = 100

// ComposerOptions tunes submission validation.
type ComposerOptions struct {
	// RequiredFields are checked in order; the first missing one is reported.
	RequiredFields []string
	// StrictLineItems rejects an order with an incomplete service_N entry
	// instead of skipping that entry.
	StrictLineItems bool
	MaxLineItems    int
}

// ValidateRequiredFields checks that fields name the customer and at least
// one contact channel.
func ValidateRequiredFields(fields []string) error {
	hasName, hasContact := false, false
	for _, f := range fields {
		if f == FieldCustomerName {
			hasName = true
		}
		for _, c := range ContactFields {
			if f == c {
				hasContact = true
			}
		}
	}
	if !hasName {
		return fmt.Errorf("required fields must include %s", FieldCustomerName)
	}
	if !hasContact {
		return fmt.Errorf("required fields must include one of %s", strings.Join(ContactFields, ", "))
	}
	return nil
}

// OrderComposer turns a raw submission into a validated order ready to store.
type OrderComposer struct {
	services repository.ServiceRepository
	opts     ComposerOptions
}

// NewOrderComposer creates a composer. Zero options fall back to defaults.
func NewOrderComposer(services repository.ServiceRepository, opts ComposerOptions) *OrderComposer {
	if len(opts.RequiredFields) == 0 {
		opts.RequiredFields = DefaultRequiredFields
	}
	if opts.MaxLineItems <= 0 {
		opts.MaxLineItems = DefaultMaxLineItems
	}
	return &OrderComposer{services: services, opts: opts}
}

// Resolve validates raw and decides which submission variant it is. It does
// not touch storage.
func (c *OrderComposer) Resolve(raw entity.RawSubmission) (entity.Submission, error) {
	for _, field := range c.opts.RequiredFields {
		if isBlank(raw[field]) {
			return nil, entity.NewMissingField(field)
		}
	}

	header := entity.Order{
		CustomerName:    stringField(raw, FieldCustomerName),
		CustomerPhone:   stringField(raw, FieldCustomerPhone),
		CustomerEmail:   stringField(raw, FieldCustomerEmail),
		DeliveryAddress: stringField(raw, FieldDeliveryAddress),
		DeliveryTime:    stringField(raw, FieldDeliveryTime),
		Comments:        stringField(raw, FieldComments),
		Message:         stringField(raw, FieldMessage),
		Status:          entity.Status(stringField(raw, FieldStatus)),
	}
	if header.CustomerPhone == "" && header.CustomerEmail == "" {
		return nil, entity.NewMissingField(ContactFields[0])
	}

	if v, ok := raw[FieldTotalServices]; ok && v != nil {
		n, err := toInt64(v)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%w: %s must be a non-negative integer", entity.ErrValidation, FieldTotalServices)
		}
		if n > int64(c.opts.MaxLineItems) {
			return nil, fmt.Errorf("%w: %s exceeds %d", entity.ErrValidation, FieldTotalServices, c.opts.MaxLineItems)
		}

		items, err := c.lineItems(raw, int(n))
		if err != nil {
			return nil, err
		}
		total := len(items)
		header.TotalServices = &total
		return &entity.LineItemOrder{Order: header, Items: items}, nil
	}

	// A present service_id is a reference even when it is zero; only null
	// or an empty string leaves it out.
	if v := raw[FieldServiceID]; v != nil && !isBlankString(v) {
		id, err := toInt64(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %s must be an integer", entity.ErrValidation, FieldServiceID)
		}
		return &entity.SingleServiceOrder{Order: header, ServiceID: id}, nil
	}

	return &entity.LineItemOrder{Order: header}, nil
}

func (c *OrderComposer) lineItems(raw entity.RawSubmission, n int) ([]entity.OrderLineItem, error) {
	items := make([]entity.OrderLineItem, 0, n)
	for i := 0; i < n; i++ {
		item, missing := lineItemAt(raw, i)
		if missing != "" {
			if c.opts.StrictLineItems {
				return nil, entity.NewMissingField(missing)
			}
			slog.Debug("Skipping incomplete line item", "index", i, "field", missing)
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

// lineItemAt reads service_<i>_{id,name,price,description}. It returns the
// name of the first unusable field when the entry cannot be materialized.
func lineItemAt(raw entity.RawSubmission, i int) (entity.OrderLineItem, string) {
	key := func(field string) string { return fmt.Sprintf("service_%d_%s", i, field) }

	idKey, nameKey, priceKey := key("id"), key("name"), key("price")
	item := entity.OrderLineItem{Position: i}

	if isBlank(raw[idKey]) {
		return item, idKey
	}
	id, err := toInt64(raw[idKey])
	if err != nil {
		return item, idKey
	}
	name := stringField(raw, nameKey)
	if name == "" {
		return item, nameKey
	}
	if raw[priceKey] == nil {
		return item, priceKey
	}
	price, err := entity.ParsePrice(raw[priceKey])
	if err != nil {
		return item, priceKey
	}

	item.ServiceID = id
	item.ServiceName = name
	item.ServicePrice = price
	item.ServiceDescription = stringField(raw, key("description"))
	return item, ""
}

// Compose resolves raw, checks a single-service reference against the
// catalog and attaches the serialized submission as the backup payload.
func (c *OrderComposer) Compose(ctx context.Context, raw entity.RawSubmission) (*entity.ComposedOrder, error) {
	sub, err := c.Resolve(raw)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: payload is not serializable", entity.ErrValidation)
	}

	switch s := sub.(type) {
	case *entity.SingleServiceOrder:
		svc, err := c.services.FindByID(ctx, s.ServiceID)
		if errors.Is(err, entity.ErrNotFound) {
			return nil, fmt.Errorf("%w: id %d", entity.ErrServiceNotFound, s.ServiceID)
		}
		if err != nil {
			return nil, storageErr("resolve service", err)
		}
		order := s.Order
		order.ServiceID = &s.ServiceID
		order.RawPayload = string(payload)
		return &entity.ComposedOrder{Order: order, Service: svc}, nil
	case *entity.LineItemOrder:
		order := s.Order
		order.RawPayload = string(payload)
		return &entity.ComposedOrder{Order: order, Items: s.Items}, nil
	default:
		return nil, fmt.Errorf("unsupported submission %T", sub)
	}
}

// isBlank reports values a form would consider empty.
func isBlank(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	case bool:
		return !x
	case float64:
		return x == 0
	case int:
		return x == 0
	case int64:
		return x == 0
	case json.Number:
		f, err := x.Float64()
		return err == nil && f == 0
	case []any:
		return len(x) == 0
	case map[string]any:
		return len(x) == 0
	default:
		return false
	}
}

func isBlankString(v any) bool {
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) == ""
}

func stringField(raw entity.RawSubmission, key string) string {
	switch x := raw[key].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	default:
		return strings.TrimSpace(fmt.Sprint(x))
	}
}

func toInt64(v any) (int64, error) {
	switch x := v.(type) {
	case float64:
		if x != math.Trunc(x) || math.IsInf(x, 0) || math.IsNaN(x) {
			return 0, fmt.Errorf("%v is not an integer", x)
		}
		return int64(x), nil
	case int:
		return int64(x), nil
	case int64:
		return x, nil
	case json.Number:
		return x.Int64()
	case string:
		return strconv.ParseInt(strings.TrimSpace(x), 10, 64)
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
}
