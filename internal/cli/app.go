package cli

import (
	"context"
	"log/slog"

	"github.com/egannguyen/printshop-backend/internal/cache"
	"github.com/egannguyen/printshop-backend/internal/config"
	"github.com/egannguyen/printshop-backend/internal/entity"
	"github.com/egannguyen/printshop-backend/internal/messaging"
	"github.com/egannguyen/printshop-backend/internal/messaging/kafka"
	"github.com/egannguyen/printshop-backend/internal/repository/sqlstore"
	"github.com/egannguyen/printshop-backend/internal/service"
	"github.com/egannguyen/printshop-backend/internal/telemetry"
)

// app holds the wired services of one process and the resources to release.
type app struct {
	db      *sqlstore.DB
	catalog *service.CatalogService
	orders  *service.OrderService
	reports *service.ReportService

	closers []func() error
}

func openStore(ctx context.Context, cfg config.DatabaseConfig) (*sqlstore.DB, error) {
	dialect, err := sqlstore.ParseDialect(cfg.Driver)
	if err != nil {
		return nil, err
	}
	return sqlstore.InitDB(ctx, dialect, cfg.DSN)
}

func newApp(ctx context.Context, cfg config.Config) (*app, error) {
	db, err := openStore(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	a := &app{db: db, closers: []func() error{db.Close}}

	var catalogCache cache.Cache = cache.Noop{}
	if cfg.Redis.Enabled {
		rc, err := cache.NewRedis(ctx, cache.RedisOptions{
			URL:       cfg.Redis.URL,
			Namespace: cfg.Redis.Namespace,
			TTL:       cfg.Redis.TTL(),
		})
		if err != nil {
			// The catalog still works from the database.
			slog.Warn("Redis unavailable, catalog cache disabled", "err", err)
		} else {
			catalogCache = rc
			a.closers = append(a.closers, rc.Close)
		}
	}

	var publisher messaging.Publisher = messaging.NoopPublisher{}
	if cfg.Kafka.Enabled {
		broker := kafka.NewKafkaBroker(cfg.Kafka.Brokers)
		publisher = broker
		a.closers = append(a.closers, broker.Close)
	}

	metrics, err := telemetry.NewOrderMetrics(nil)
	if err != nil {
		slog.Warn("Order metrics disabled", "err", err)
	}

	services := sqlstore.NewServiceRepository(db)
	a.catalog = service.NewCatalogService(services, catalogCache)
	a.orders = service.NewOrderService(
		sqlstore.NewOrderRepository(db),
		service.NewOrderComposer(services, cfg.Orders.ComposerOptions()),
		sqlstore.NewEventStore(db),
		publisher,
		metrics,
		entity.Status(cfg.Orders.DefaultStatus),
	)
	a.reports = service.NewReportService(sqlstore.NewReportRepository(db))
	return a, nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			slog.Error("Failed to release resource", "err", err)
		}
	}
}
