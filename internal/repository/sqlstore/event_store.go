package sqlstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/egannguyen/printshop-backend/internal/entity"
	"github.com/egannguyen/printshop-backend/internal/repository"
)

type eventStore struct {
	db *DB
}

// NewEventStore creates an EventStore that keeps order history in the
// order_events table. History survives deletion of the order itself.
func NewEventStore(db *DB) repository.EventStore {
	return &eventStore{db: db}
}

func (s *eventStore) Append(ctx context.Context, event entity.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event %s: %w", event.EventType(), err)
	}

	_, err = s.db.ExecContext(ctx,
		s.db.rebind("INSERT INTO order_events (id, order_id, event_type, payload, created_at) VALUES (?, ?, ?, ?, ?)"),
		uuid.NewString(), event.AggregateID(), event.EventType(), string(payload), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert event %s: %w", event.EventType(), err)
	}
	return nil
}

func (s *eventStore) LoadByOrder(ctx context.Context, orderID int64) ([]entity.EventRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		s.db.rebind("SELECT id, order_id, event_type, payload, created_at FROM order_events WHERE order_id = ? ORDER BY created_at ASC, id ASC"),
		orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load events for order %d: %w", orderID, err)
	}
	defer rows.Close()

	records := []entity.EventRecord{}
	for rows.Next() {
		var (
			record  entity.EventRecord
			payload string
		)
		if err := rows.Scan(&record.ID, &record.OrderID, &record.EventType, &payload, &record.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan event record: %w", err)
		}
		record.Payload = json.RawMessage(payload)
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating event rows: %w", err)
	}
	return records, nil
}
