package service

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/egannguyen/printshop-backend/internal/entity"
	"github.com/egannguyen/printshop-backend/internal/messaging"
	"github.com/egannguyen/printshop-backend/internal/repository"
	"github.com/egannguyen/printshop-backend/internal/repository/sqlstore"
	"github.com/egannguyen/printshop-backend/internal/telemetry"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []*messaging.Envelope
	keys   []string
	err    error
}

func (p *recordingPublisher) PublishEvent(_ context.Context, topic, key string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	if topic != messaging.TopicOrderEvents {
		return errors.New("unexpected topic " + topic)
	}
	p.events = append(p.events, event.(*messaging.Envelope))
	p.keys = append(p.keys, key)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type testEnv struct {
	db        *sqlstore.DB
	services  repository.ServiceRepository
	catalog   *CatalogService
	orders    *OrderService
	reports   *ReportService
	publisher *recordingPublisher
	metrics   *sdkmetric.ManualReader
}

func setupTestEnv(t *testing.T, opts ComposerOptions) *testEnv {
	t.Helper()

	db, err := sqlstore.InitDB(context.Background(), sqlstore.SQLite, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	services := sqlstore.NewServiceRepository(db)
	pub := &recordingPublisher{}
	composer := NewOrderComposer(services, opts)

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { mp.Shutdown(context.Background()) })
	metrics, err := telemetry.NewOrderMetrics(mp)
	require.NoError(t, err)

	return &testEnv{
		db:        db,
		services:  services,
		catalog:   NewCatalogService(services, nil),
		orders:    NewOrderService(sqlstore.NewOrderRepository(db), composer, sqlstore.NewEventStore(db), pub, metrics, entity.StatusNew),
		reports:   NewReportService(sqlstore.NewReportRepository(db)),
		publisher: pub,
		metrics:   reader,
	}
}

// counted sums the data points of the named order counter by the value of
// attribute key.
func (e *testEnv) counted(t *testing.T, name, key string) map[string]int64 {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, e.metrics.Collect(context.Background(), &rm))

	out := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			for _, dp := range m.Data.(metricdata.Sum[int64]).DataPoints {
				v, _ := dp.Attributes.Value(attribute.Key(key))
				out[v.AsString()] += dp.Value
			}
		}
	}
	return out
}

func (e *testEnv) seed(t *testing.T) {
	t.Helper()
	require.NoError(t, e.catalog.Seed(context.Background()))
}
