package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/egannguyen/printshop-backend/internal/entity"
	"github.com/egannguyen/printshop-backend/internal/repository"
)

type orderRepository struct {
	db *DB
}

// NewOrderRepository creates an OrderRepository backed by db.
func NewOrderRepository(db *DB) repository.OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(ctx context.Context, o entity.Order, items []entity.OrderLineItem) (int64, error) {
	now := time.Now().UTC()
	if o.Status == "" {
		o.Status = entity.StatusNew
	}

	var id int64
	err := r.db.withTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, r.db.rebind(`
			INSERT INTO orders (customer_name, customer_phone, customer_email, delivery_address, delivery_time,
				comments, message, status, service_id, total_services, raw_payload, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			RETURNING id`),
			o.CustomerName, o.CustomerPhone, o.CustomerEmail, o.DeliveryAddress, o.DeliveryTime,
			o.Comments, o.Message, string(o.Status), nullInt64(o.ServiceID), nullInt(o.TotalServices),
			o.RawPayload, now, now,
		).Scan(&id)
		if err != nil {
			return fmt.Errorf("failed to insert order: %w", err)
		}
		return r.insertItems(ctx, tx, id, items)
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *orderRepository) insertItems(ctx context.Context, tx *sql.Tx, orderID int64, items []entity.OrderLineItem) error {
	if len(items) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, r.db.rebind(`
		INSERT INTO order_items (order_id, position, service_id, service_name, service_price, service_description)
		VALUES (?, ?, ?, ?, ?, ?)`))
	if err != nil {
		return fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	defer stmt.Close()

	for _, item := range items {
		_, err := stmt.ExecContext(ctx, orderID, item.Position, item.ServiceID, item.ServiceName,
			item.ServicePrice.Decimal.String(), item.ServiceDescription)
		if err != nil {
			return fmt.Errorf("failed to insert order item: %w", err)
		}
	}
	return nil
}

const orderColumns = `o.id, o.customer_name, o.customer_phone, o.customer_email, o.delivery_address, o.delivery_time,
	o.comments, o.message, o.status, o.service_id, o.total_services, o.created_at, o.updated_at`

func scanOrder(row scanner, extra ...any) (*entity.Order, error) {
	var (
		o             entity.Order
		status        string
		serviceID     sql.NullInt64
		totalServices sql.NullInt64
	)
	dest := []any{
		&o.ID, &o.CustomerName, &o.CustomerPhone, &o.CustomerEmail, &o.DeliveryAddress, &o.DeliveryTime,
		&o.Comments, &o.Message, &status, &serviceID, &totalServices, &o.CreatedAt, &o.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}

	o.Status = entity.Status(status)
	if serviceID.Valid {
		v := serviceID.Int64
		o.ServiceID = &v
	}
	if totalServices.Valid {
		v := int(totalServices.Int64)
		o.TotalServices = &v
	}
	return &o, nil
}

func (r *orderRepository) FindAll(ctx context.Context) ([]entity.OrderSummary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+orderColumns+`, s.name, s.price
		FROM orders o
		LEFT JOIN services s ON s.id = o.service_id
		ORDER BY o.created_at DESC, o.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}

	var orders []entity.OrderSummary
	for rows.Next() {
		var (
			serviceName  sql.NullString
			servicePrice decimal.NullDecimal
		)
		o, err := scanOrder(rows, &serviceName, &servicePrice)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		summary := entity.OrderSummary{Order: *o}
		if serviceName.Valid {
			summary.ServicesSummary = serviceName.String
			summary.ServicePrice = pricePtr(servicePrice)
		}
		orders = append(orders, summary)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, fmt.Errorf("error iterating order rows: %w", err)
	}

	// Rows must be closed before the next query: SQLite runs on one connection.
	names, err := r.itemNames(ctx)
	if err != nil {
		return nil, err
	}

	for i := range orders {
		if list, ok := names[orders[i].ID]; ok {
			orders[i].ServicesSummary = strings.Join(list, ", ")
		}
		if orders[i].ServicesSummary == "" {
			orders[i].ServicesSummary = entity.NoServices
		}
	}
	return orders, nil
}

func (r *orderRepository) itemNames(ctx context.Context) (map[int64][]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT order_id, service_name FROM order_items ORDER BY order_id, position, id")
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	names := make(map[int64][]string)
	for rows.Next() {
		var (
			orderID int64
			name    string
		)
		if err := rows.Scan(&orderID, &name); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		names[orderID] = append(names[orderID], name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order item rows: %w", err)
	}
	return names, nil
}

func (r *orderRepository) FindByID(ctx context.Context, id int64) (*entity.OrderDetail, error) {
	var (
		rawPayload string
		svcID      sql.NullInt64
		svcName    sql.NullString
		svcDesc    sql.NullString
		svcPrice   decimal.NullDecimal
		svcCat     sql.NullString
		svcImage   sql.NullString
	)
	row := r.db.QueryRowContext(ctx, r.db.rebind(`
		SELECT `+orderColumns+`, o.raw_payload, s.id, s.name, s.description, s.price, s.category, s.image
		FROM orders o
		LEFT JOIN services s ON s.id = o.service_id
		WHERE o.id = ?`), id)
	o, err := scanOrder(row, &rawPayload, &svcID, &svcName, &svcDesc, &svcPrice, &svcCat, &svcImage)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan order: %w", err)
	}
	o.RawPayload = rawPayload

	detail := &entity.OrderDetail{Order: *o, Items: []entity.OrderLineItem{}}
	if json.Valid([]byte(rawPayload)) {
		detail.Payload = json.RawMessage(rawPayload)
	}
	if svcID.Valid {
		detail.Service = &entity.Service{
			ID:          svcID.Int64,
			Name:        svcName.String,
			Description: svcDesc.String,
			Price:       pricePtr(svcPrice),
			Category:    svcCat.String,
			Image:       svcImage.String,
		}
	}

	items, err := r.findItems(ctx, id)
	if err != nil {
		return nil, err
	}
	detail.Items = append(detail.Items, items...)
	return detail, nil
}

func (r *orderRepository) findItems(ctx context.Context, orderID int64) ([]entity.OrderLineItem, error) {
	rows, err := r.db.QueryContext(ctx, r.db.rebind(`
		SELECT id, order_id, position, service_id, service_name, service_price, service_description
		FROM order_items WHERE order_id = ? ORDER BY position, id`), orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	var items []entity.OrderLineItem
	for rows.Next() {
		var (
			item  entity.OrderLineItem
			price decimal.Decimal
		)
		if err := rows.Scan(&item.ID, &item.OrderID, &item.Position, &item.ServiceID, &item.ServiceName,
			&price, &item.ServiceDescription); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		item.ServicePrice = entity.NewPrice(price)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order item rows: %w", err)
	}
	return items, nil
}

func (r *orderRepository) Replace(ctx context.Context, id int64, o entity.Order, items []entity.OrderLineItem) error {
	return r.db.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, r.db.rebind(`
			UPDATE orders SET
				customer_name = ?, customer_phone = ?, customer_email = ?, delivery_address = ?, delivery_time = ?,
				comments = ?, message = ?, status = COALESCE(NULLIF(?, ''), status),
				service_id = ?, total_services = ?, raw_payload = ?, updated_at = ?
			WHERE id = ?`),
			o.CustomerName, o.CustomerPhone, o.CustomerEmail, o.DeliveryAddress, o.DeliveryTime,
			o.Comments, o.Message, string(o.Status), nullInt64(o.ServiceID), nullInt(o.TotalServices),
			o.RawPayload, time.Now().UTC(), id,
		)
		if err != nil {
			return fmt.Errorf("failed to update order: %w", err)
		}
		if err := requireAffected(res); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, r.db.rebind("DELETE FROM order_items WHERE order_id = ?"), id); err != nil {
			return fmt.Errorf("failed to delete order items: %w", err)
		}
		return r.insertItems(ctx, tx, id, items)
	})
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id int64, status entity.Status) error {
	res, err := r.db.ExecContext(ctx,
		r.db.rebind("UPDATE orders SET status = ?, updated_at = ? WHERE id = ?"),
		string(status), time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	return requireAffected(res)
}

func (r *orderRepository) Delete(ctx context.Context, id int64) error {
	return r.db.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, r.db.rebind("DELETE FROM order_items WHERE order_id = ?"), id); err != nil {
			return fmt.Errorf("failed to delete order items: %w", err)
		}
		res, err := tx.ExecContext(ctx, r.db.rebind("DELETE FROM orders WHERE id = ?"), id)
		if err != nil {
			return fmt.Errorf("failed to delete order: %w", err)
		}
		return requireAffected(res)
	})
}

func nullInt64(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullInt(v *int) any {
	if v == nil {
		return nil
	}
	return int64(*v)
}
