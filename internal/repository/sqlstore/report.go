package sqlstore

import (
	"context"
	"fmt"

	"github.com/egannguyen/printshop-backend/internal/entity"
	"github.com/egannguyen/printshop-backend/internal/repository"
)

type reportRepository struct {
	db *DB
}

// NewReportRepository creates a ReportRepository backed by db.
func NewReportRepository(db *DB) repository.ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *reportRepository) CountOrders(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM orders").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}
	return n, nil
}

func (r *reportRepository) CountServices(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM services").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count services: %w", err)
	}
	return n, nil
}

func (r *reportRepository) StatusCounts(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT status, COUNT(*) FROM orders GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("failed to query status counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		counts[status] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating status rows: %w", err)
	}
	return counts, nil
}

// TopServices ranks services by how often they were ordered, counting line
// item snapshots and single-service orders whose service still exists.
func (r *reportRepository) TopServices(ctx context.Context, limit int) ([]entity.ServiceCount, error) {
	rows, err := r.db.QueryContext(ctx, r.db.rebind(`
		SELECT name, COUNT(*) AS cnt FROM (
			SELECT service_name AS name FROM order_items
			UNION ALL
			SELECT s.name AS name FROM orders o JOIN services s ON s.id = o.service_id
		) ordered
		GROUP BY name
		ORDER BY cnt DESC, name ASC
		LIMIT ?`), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top services: %w", err)
	}
	defer rows.Close()

	top := []entity.ServiceCount{}
	for rows.Next() {
		var sc entity.ServiceCount
		if err := rows.Scan(&sc.Name, &sc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan service count: %w", err)
		}
		top = append(top, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating service count rows: %w", err)
	}
	return top, nil
}
