package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/egannguyen/printshop-backend/internal/entity"
	"github.com/egannguyen/printshop-backend/internal/repository"
)

const seedMarker = "default_catalog"

type serviceRepository struct {
	db *DB
}

// NewServiceRepository creates a ServiceRepository backed by db.
func NewServiceRepository(db *DB) repository.ServiceRepository {
	return &serviceRepository{db: db}
}

const serviceColumns = "id, name, description, price, category, image"

func (r *serviceRepository) FindAll(ctx context.Context) ([]entity.Service, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+serviceColumns+" FROM services ORDER BY name, id")
	if err != nil {
		return nil, fmt.Errorf("failed to query services: %w", err)
	}
	defer rows.Close()

	var services []entity.Service
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		services = append(services, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating service rows: %w", err)
	}
	return services, nil
}

func (r *serviceRepository) FindByID(ctx context.Context, id int64) (*entity.Service, error) {
	row := r.db.QueryRowContext(ctx, r.db.rebind("SELECT "+serviceColumns+" FROM services WHERE id = ?"), id)
	s, err := scanService(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrNotFound
	}
	return s, err
}

func (r *serviceRepository) Create(ctx context.Context, svc entity.NewService) (*entity.Service, error) {
	var id int64
	err := r.db.QueryRowContext(ctx,
		r.db.rebind("INSERT INTO services (name, description, price, category, image) VALUES (?, ?, ?, ?, ?) RETURNING id"),
		svc.Name, svc.Description, nullPrice(svc.Price), svc.Category, svc.Image,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("failed to insert service: %w", err)
	}

	return &entity.Service{
		ID:          id,
		Name:        svc.Name,
		Description: svc.Description,
		Price:       svc.Price,
		Category:    svc.Category,
		Image:       svc.Image,
	}, nil
}

func (r *serviceRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, r.db.rebind("DELETE FROM services WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("failed to delete service: %w", err)
	}
	return requireAffected(res)
}

func (r *serviceRepository) Seed(ctx context.Context, services []entity.NewService) (bool, error) {
	seeded := false
	err := r.db.withTx(ctx, func(tx *sql.Tx) error {
		// Claiming the marker row is the lock: a concurrent seeder blocks on the
		// primary key and then inserts nothing.
		res, err := tx.ExecContext(ctx,
			r.db.rebind("INSERT INTO catalog_meta (key, created_at) VALUES (?, ?) ON CONFLICT (key) DO NOTHING"),
			seedMarker, time.Now().UTC(),
		)
		if err != nil {
			return fmt.Errorf("failed to claim seed marker: %w", err)
		}
		if n, err := res.RowsAffected(); err != nil || n == 0 {
			return err
		}

		var count int
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM services").Scan(&count); err != nil {
			return fmt.Errorf("failed to count services: %w", err)
		}
		if count > 0 {
			return nil
		}

		stmt, err := tx.PrepareContext(ctx, r.db.rebind("INSERT INTO services (name, description, price, category, image) VALUES (?, ?, ?, ?, ?)"))
		if err != nil {
			return fmt.Errorf("failed to prepare insert statement: %w", err)
		}
		defer stmt.Close()

		for _, s := range services {
			if _, err := stmt.ExecContext(ctx, s.Name, s.Description, nullPrice(s.Price), s.Category, s.Image); err != nil {
				return fmt.Errorf("failed to seed service %s: %w", s.Name, err)
			}
		}
		seeded = len(services) > 0
		return nil
	})
	if err != nil {
		return false, err
	}
	return seeded, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanService(row scanner) (*entity.Service, error) {
	var (
		s     entity.Service
		price decimal.NullDecimal
	)
	if err := row.Scan(&s.ID, &s.Name, &s.Description, &price, &s.Category, &s.Image); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan service: %w", err)
	}
	s.Price = pricePtr(price)
	return &s, nil
}

func nullPrice(p *entity.Price) any {
	if p == nil {
		return nil
	}
	return p.Decimal.String()
}

func pricePtr(d decimal.NullDecimal) *entity.Price {
	if !d.Valid {
		return nil
	}
	p := entity.NewPrice(d.Decimal)
	return &p
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return entity.ErrNotFound
	}
	return nil
}
