package sqlstore

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/egannguyen/printshop-backend/internal/entity"
)

func setupTestStore(t *testing.T) *DB {
	t.Helper()

	db, err := InitDB(context.Background(), SQLite, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func price(v int64) *entity.Price {
	p := entity.PriceFromInt(v)
	return &p
}

func testOrder(name string) entity.Order {
	return entity.Order{
		CustomerName:  name,
		CustomerPhone: "+7 900 000-00-00",
		RawPayload:    `{"customer_name":"` + name + `"}`,
	}
}

func TestParseDialect(t *testing.T) {
	d, err := ParseDialect("Postgres")
	require.NoError(t, err)
	assert.Equal(t, Postgres, d)

	d, err = ParseDialect("sqlite3")
	require.NoError(t, err)
	assert.Equal(t, SQLite, d)

	_, err = ParseDialect("mysql")
	assert.Error(t, err)
}

func TestRebind(t *testing.T) {
	pg := &DB{dialect: Postgres}
	assert.Equal(t, "UPDATE t SET a = $1 WHERE id = $2", pg.rebind("UPDATE t SET a = ? WHERE id = ?"))

	lite := &DB{dialect: SQLite}
	assert.Equal(t, "SELECT ? FROM t", lite.rebind("SELECT ? FROM t"))
}

func TestSQLiteDSN(t *testing.T) {
	assert.Contains(t, sqliteDSN("shop.db"), "shop.db?_pragma=foreign_keys(1)")
	assert.Contains(t, sqliteDSN("file:shop.db?cache=shared"), "cache=shared&_pragma=")
	assert.Equal(t, "x.db?_pragma=busy_timeout(100)", sqliteDSN("x.db?_pragma=busy_timeout(100)"))
}

func TestInitDB_MigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	db, err := InitDB(ctx, SQLite, path)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = InitDB(ctx, SQLite, path)
	require.NoError(t, err)
	defer db.Close()

	var n int
	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations").Scan(&n))
	assert.Equal(t, 1, n)
}

func TestServiceRepository_CRUD(t *testing.T) {
	db := setupTestStore(t)
	repo := NewServiceRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, entity.NewService{Name: "Визитки", Price: price(1500), Category: entity.CategoryPolygraphy})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	noPrice, err := repo.Create(ctx, entity.NewService{Name: "Консультация"})
	require.NoError(t, err)

	got, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Визитки", got.Name)
	require.NotNil(t, got.Price)
	assert.Equal(t, "1 500 ₽", got.Price.Display())

	got, err = repo.FindByID(ctx, noPrice.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Price)

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Визитки", all[0].Name)

	require.NoError(t, repo.Delete(ctx, created.ID))
	_, err = repo.FindByID(ctx, created.ID)
	assert.ErrorIs(t, err, entity.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, created.ID), entity.ErrNotFound)
}

func TestServiceRepository_IDsNeverReused(t *testing.T) {
	db := setupTestStore(t)
	repo := NewServiceRepository(db)
	ctx := context.Background()

	first, err := repo.Create(ctx, entity.NewService{Name: "A"})
	require.NoError(t, err)
	require.NoError(t, repo.Delete(ctx, first.ID))

	second, err := repo.Create(ctx, entity.NewService{Name: "B"})
	require.NoError(t, err)
	assert.Greater(t, second.ID, first.ID)
}

func TestServiceRepository_SeedOnce(t *testing.T) {
	db := setupTestStore(t)
	repo := NewServiceRepository(db)
	ctx := context.Background()

	defaults := []entity.NewService{
		{Name: "Самовывоз", Price: price(0), Category: entity.CategoryDelivery},
		{Name: "Кружка", Price: price(450), Category: entity.CategorySouvenirs},
	}

	seeded, err := repo.Seed(ctx, defaults)
	require.NoError(t, err)
	assert.True(t, seeded)

	seeded, err = repo.Seed(ctx, defaults)
	require.NoError(t, err)
	assert.False(t, seeded)

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestServiceRepository_SeedConcurrent(t *testing.T) {
	db := setupTestStore(t)
	repo := NewServiceRepository(db)
	ctx := context.Background()

	defaults := []entity.NewService{{Name: "Кружка", Price: price(450)}}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Seed(ctx, defaults)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestServiceRepository_SeedSkipsPopulatedCatalog(t *testing.T) {
	db := setupTestStore(t)
	repo := NewServiceRepository(db)
	ctx := context.Background()

	_, err := repo.Create(ctx, entity.NewService{Name: "Своя услуга"})
	require.NoError(t, err)

	seeded, err := repo.Seed(ctx, []entity.NewService{{Name: "Кружка"}})
	require.NoError(t, err)
	assert.False(t, seeded)
}

func TestOrderRepository_CreateAndFind(t *testing.T) {
	db := setupTestStore(t)
	orders := NewOrderRepository(db)
	ctx := context.Background()

	total := 2
	o := testOrder("Иван")
	o.TotalServices = &total
	items := []entity.OrderLineItem{
		{Position: 0, ServiceID: 3, ServiceName: "Футболка", ServicePrice: entity.PriceFromInt(900)},
		{Position: 1, ServiceID: 5, ServiceName: "Кружка", ServicePrice: entity.PriceFromInt(450), ServiceDescription: "белая"},
	}

	id, err := orders.Create(ctx, o, items)
	require.NoError(t, err)

	got, err := orders.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Иван", got.CustomerName)
	assert.Equal(t, entity.StatusNew, got.Status)
	require.NotNil(t, got.TotalServices)
	assert.Equal(t, 2, *got.TotalServices)
	assert.Nil(t, got.ServiceID)
	assert.Nil(t, got.Service)
	assert.JSONEq(t, `{"customer_name":"Иван"}`, string(got.Payload))
	assert.False(t, got.CreatedAt.IsZero())

	require.Len(t, got.Items, 2)
	assert.Equal(t, "Футболка", got.Items[0].ServiceName)
	assert.Equal(t, "белая", got.Items[1].ServiceDescription)
	assert.True(t, got.Items[1].ServicePrice.Equal(entity.PriceFromInt(450).Decimal))

	_, err = orders.FindByID(ctx, id+100)
	assert.ErrorIs(t, err, entity.ErrNotFound)
}

func TestOrderRepository_RejectsOrderWithoutContact(t *testing.T) {
	db := setupTestStore(t)
	orders := NewOrderRepository(db)

	_, err := orders.Create(context.Background(), entity.Order{CustomerName: "Без контакта", RawPayload: "{}"}, nil)
	assert.Error(t, err)
}

func rejectItemNamed(t *testing.T, db *DB, name string) {
	t.Helper()

	_, err := db.ExecContext(context.Background(), `
		CREATE TRIGGER reject_item BEFORE INSERT ON order_items
		WHEN NEW.service_name = '`+name+`'
		BEGIN SELECT RAISE(ABORT, 'rejected item'); END`)
	require.NoError(t, err)
}

func countRows(t *testing.T, db *DB, table string) int {
	t.Helper()

	var n int
	require.NoError(t, db.QueryRowContext(context.Background(), "SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}

func TestOrderRepository_CreateIsAllOrNothing(t *testing.T) {
	db := setupTestStore(t)
	orders := NewOrderRepository(db)
	rejectItemNamed(t, db, "Брак")

	_, err := orders.Create(context.Background(), testOrder("Иван"), []entity.OrderLineItem{
		{Position: 0, ServiceID: 1, ServiceName: "Футболка", ServicePrice: entity.PriceFromInt(900)},
		{Position: 1, ServiceID: 2, ServiceName: "Брак", ServicePrice: entity.PriceFromInt(1)},
	})
	require.ErrorContains(t, err, "rejected item")

	assert.Zero(t, countRows(t, db, "orders"))
	assert.Zero(t, countRows(t, db, "order_items"))
}

func TestOrderRepository_ReplaceIsAllOrNothing(t *testing.T) {
	db := setupTestStore(t)
	orders := NewOrderRepository(db)
	ctx := context.Background()

	id, err := orders.Create(ctx, testOrder("Иван"), []entity.OrderLineItem{
		{Position: 0, ServiceID: 1, ServiceName: "Футболка", ServicePrice: entity.PriceFromInt(900)},
	})
	require.NoError(t, err)
	rejectItemNamed(t, db, "Брак")

	err = orders.Replace(ctx, id, testOrder("Пётр"), []entity.OrderLineItem{
		{Position: 0, ServiceID: 7, ServiceName: "Худи", ServicePrice: entity.PriceFromInt(2500)},
		{Position: 1, ServiceID: 2, ServiceName: "Брак", ServicePrice: entity.PriceFromInt(1)},
	})
	require.ErrorContains(t, err, "rejected item")

	got, err := orders.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Иван", got.CustomerName)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "Футболка", got.Items[0].ServiceName)
	assert.Equal(t, 1, countRows(t, db, "order_items"))
}

func TestOrderRepository_FindAllSummaries(t *testing.T) {
	db := setupTestStore(t)
	services := NewServiceRepository(db)
	orders := NewOrderRepository(db)
	ctx := context.Background()

	svc, err := services.Create(ctx, entity.NewService{Name: "Визитки", Price: price(1500)})
	require.NoError(t, err)

	bare, err := orders.Create(ctx, testOrder("Пустой"), nil)
	require.NoError(t, err)

	single := testOrder("Один")
	single.ServiceID = &svc.ID
	singleID, err := orders.Create(ctx, single, nil)
	require.NoError(t, err)

	itemsID, err := orders.Create(ctx, testOrder("Список"), []entity.OrderLineItem{
		{Position: 0, ServiceID: 1, ServiceName: "Футболка", ServicePrice: entity.PriceFromInt(900)},
		{Position: 1, ServiceID: 2, ServiceName: "Кружка", ServicePrice: entity.PriceFromInt(450)},
	})
	require.NoError(t, err)

	list, err := orders.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)

	// Newest first.
	assert.Equal(t, itemsID, list[0].ID)
	assert.Equal(t, singleID, list[1].ID)
	assert.Equal(t, bare, list[2].ID)

	assert.Equal(t, "Футболка, Кружка", list[0].ServicesSummary)
	assert.Equal(t, "Визитки", list[1].ServicesSummary)
	require.NotNil(t, list[1].ServicePrice)
	assert.Equal(t, "1 500 ₽", list[1].ServicePrice.Display())
	assert.Equal(t, entity.NoServices, list[2].ServicesSummary)

	// A deleted service leaves an orphaned reference behind.
	require.NoError(t, services.Delete(ctx, svc.ID))
	list, err = orders.FindAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, entity.NoServices, list[1].ServicesSummary)

	detail, err := orders.FindByID(ctx, singleID)
	require.NoError(t, err)
	require.NotNil(t, detail.ServiceID)
	assert.Equal(t, svc.ID, *detail.ServiceID)
	assert.Nil(t, detail.Service)
}

func TestOrderRepository_Replace(t *testing.T) {
	db := setupTestStore(t)
	orders := NewOrderRepository(db)
	ctx := context.Background()

	id, err := orders.Create(ctx, testOrder("Иван"), []entity.OrderLineItem{
		{Position: 0, ServiceID: 1, ServiceName: "Футболка", ServicePrice: entity.PriceFromInt(900)},
	})
	require.NoError(t, err)
	require.NoError(t, orders.UpdateStatus(ctx, id, entity.StatusConfirmed))

	before, err := orders.FindByID(ctx, id)
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)

	total := 1
	updated := testOrder("Иван Петров")
	updated.TotalServices = &total
	updated.RawPayload = `{"v":2}`
	err = orders.Replace(ctx, id, updated, []entity.OrderLineItem{
		{Position: 0, ServiceID: 7, ServiceName: "Худи", ServicePrice: entity.PriceFromInt(2500)},
	})
	require.NoError(t, err)

	after, err := orders.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Иван Петров", after.CustomerName)
	assert.Equal(t, entity.StatusConfirmed, after.Status, "status is kept when the update carries none")
	assert.True(t, before.CreatedAt.Equal(after.CreatedAt))
	assert.True(t, after.UpdatedAt.After(before.UpdatedAt))
	assert.JSONEq(t, `{"v":2}`, string(after.Payload))
	require.Len(t, after.Items, 1)
	assert.Equal(t, "Худи", after.Items[0].ServiceName)

	assert.ErrorIs(t, orders.Replace(ctx, id+100, updated, nil), entity.ErrNotFound)
}

func TestOrderRepository_UpdateStatus(t *testing.T) {
	db := setupTestStore(t)
	orders := NewOrderRepository(db)
	ctx := context.Background()

	id, err := orders.Create(ctx, testOrder("Иван"), nil)
	require.NoError(t, err)

	require.NoError(t, orders.UpdateStatus(ctx, id, "on-hold"))
	got, err := orders.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, entity.Status("on-hold"), got.Status)

	assert.ErrorIs(t, orders.UpdateStatus(ctx, id+1, entity.StatusShipped), entity.ErrNotFound)
}

func TestOrderRepository_DeleteCascades(t *testing.T) {
	db := setupTestStore(t)
	orders := NewOrderRepository(db)
	ctx := context.Background()

	id, err := orders.Create(ctx, testOrder("Иван"), []entity.OrderLineItem{
		{Position: 0, ServiceID: 1, ServiceName: "Футболка", ServicePrice: entity.PriceFromInt(900)},
	})
	require.NoError(t, err)

	require.NoError(t, orders.Delete(ctx, id))
	assert.ErrorIs(t, orders.Delete(ctx, id), entity.ErrNotFound)

	var n int
	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM order_items WHERE order_id = ?", id).Scan(&n))
	assert.Zero(t, n)

	next, err := orders.Create(ctx, testOrder("Пётр"), nil)
	require.NoError(t, err)
	assert.Greater(t, next, id)
}

func TestReportRepository(t *testing.T) {
	db := setupTestStore(t)
	services := NewServiceRepository(db)
	orders := NewOrderRepository(db)
	reports := NewReportRepository(db)
	ctx := context.Background()

	require.NoError(t, reports.Ping(ctx))

	mug, err := services.Create(ctx, entity.NewService{Name: "Кружка", Price: price(450)})
	require.NoError(t, err)

	single := testOrder("Один")
	single.ServiceID = &mug.ID
	_, err = orders.Create(ctx, single, nil)
	require.NoError(t, err)

	id, err := orders.Create(ctx, testOrder("Два"), []entity.OrderLineItem{
		{Position: 0, ServiceID: mug.ID, ServiceName: "Кружка", ServicePrice: entity.PriceFromInt(450)},
		{Position: 1, ServiceID: 9, ServiceName: "Футболка", ServicePrice: entity.PriceFromInt(900)},
	})
	require.NoError(t, err)
	require.NoError(t, orders.UpdateStatus(ctx, id, entity.StatusShipped))

	n, err := reports.CountOrders(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = reports.CountServices(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	statuses, err := reports.StatusCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"new": 1, "shipped": 1}, statuses)

	top, err := reports.TopServices(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, []entity.ServiceCount{{Name: "Кружка", Count: 2}, {Name: "Футболка", Count: 1}}, top)

	top, err = reports.TopServices(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, top, 1)
}

func TestEventStore(t *testing.T) {
	db := setupTestStore(t)
	store := NewEventStore(db)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, entity.OrderCreated{OrderID: 7, CustomerName: "Иван", Status: entity.StatusNew}))
	require.NoError(t, store.Append(ctx, entity.OrderStatusChanged{OrderID: 7, Status: entity.StatusShipped}))
	require.NoError(t, store.Append(ctx, entity.OrderCreated{OrderID: 8}))

	records, err := store.LoadByOrder(ctx, 7)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "OrderCreated", records[0].EventType)
	assert.Equal(t, "OrderStatusChanged", records[1].EventType)
	assert.Contains(t, string(records[1].Payload), `"status":"shipped"`)
	assert.NotEmpty(t, records[0].ID)

	records, err = store.LoadByOrder(ctx, 99)
	require.NoError(t, err)
	assert.Empty(t, records)
}
