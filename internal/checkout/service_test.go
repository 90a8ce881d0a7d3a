package checkout

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/storepos-backend/internal/catalog"
	"github.com/angelmondragon/storepos-backend/internal/invoices"
	"github.com/angelmondragon/storepos-backend/internal/order"
	product "github.com/angelmondragon/storepos-backend/internal/products"
	"github.com/angelmondragon/storepos-backend/pkg/db"
	"github.com/angelmondragon/storepos-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storepos-backend/pkg/db/models"
	"github.com/angelmondragon/storepos-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storepos-backend/pkg/errors"
	redisclient "github.com/angelmondragon/storepos-backend/pkg/redis"
)

type memoryBackend struct {
	mu     sync.Mutex
	values map[string]string
}

func newMemoryBackend() *memoryBackend {
	return &memoryBackend{values: map[string]string{}}
}

func (m *memoryBackend) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	if !ok {
		return "", redisclient.ErrNil
	}
	return v, nil
}

func (m *memoryBackend) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value.(string)
	return nil
}

func (m *memoryBackend) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}

func (m *memoryBackend) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.values[key]; ok {
		return false, nil
	}
	m.values[key] = value.(string)
	return true, nil
}

func (m *memoryBackend) ReleaseLock(_ context.Context, key, token string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.values[key] != token {
		return false, nil
	}
	delete(m.values, key)
	return true, nil
}

func (m *memoryBackend) CartKey(userID string) string {
	return "pos:cart:" + userID
}

func (m *memoryBackend) CheckoutLockKey(userID string) string {
	return "pos:lock:checkout:" + userID
}

// pausingBackend parks the next cart read until proceed is closed.
type pausingBackend struct {
	*memoryBackend
	mu      sync.Mutex
	armed   bool
	entered chan struct{}
	proceed chan struct{}
}

func (p *pausingBackend) arm() {
	p.mu.Lock()
	p.armed = true
	p.mu.Unlock()
}

func (p *pausingBackend) Get(ctx context.Context, key string) (string, error) {
	p.mu.Lock()
	pause := p.armed && strings.HasPrefix(key, "pos:cart:")
	p.armed = p.armed && !pause
	p.mu.Unlock()
	if pause {
		close(p.entered)
		<-p.proceed
	}
	return p.memoryBackend.Get(ctx, key)
}

type recordingMetrics struct {
	finalized []string
	rejected  []string
}

func (r *recordingMetrics) InvoiceFinalized(store string, _ decimal.Decimal) {
	r.finalized = append(r.finalized, store)
}

func (r *recordingMetrics) CheckoutRejected(reason string) {
	r.rejected = append(r.rejected, reason)
}

type fixture struct {
	svc      Service
	conn     *gorm.DB
	carts    *CartStore
	metrics  *recordingMetrics
	espresso models.Product
	pastry   models.Product
	other    models.Product
	store    models.Store
}

func newFixture(t *testing.T, blockZeroStock bool) fixture {
	t.Helper()
	return newFixtureWithBackend(t, blockZeroStock, newMemoryBackend())
}

func newFixtureWithBackend(t *testing.T, blockZeroStock bool, backend cartBackend) fixture {
	t.Helper()
	conn := dbtest.Open(t)

	downtown := models.Store{Name: "Downtown Store", Status: enums.StatusActive}
	mall := models.Store{Name: "Mall Store", Status: enums.StatusActive}
	require.NoError(t, conn.Create(&downtown).Error)
	require.NoError(t, conn.Create(&mall).Error)

	espresso := models.Product{StoreID: downtown.ID, Name: "Espresso Coffee", Category: "Beverages", Price: decimal.RequireFromString("3.50"), Stock: 120}
	croissant := models.Product{StoreID: downtown.ID, Name: "Croissant", Category: "Bakery", Price: decimal.RequireFromString("2.80"), Stock: 1}
	cappuccino := models.Product{StoreID: mall.ID, Name: "Cappuccino", Category: "Beverages", Price: decimal.RequireFromString("4.20"), Stock: 80}
	for _, p := range []*models.Product{&espresso, &croissant, &cappuccino} {
		require.NoError(t, conn.Create(p).Error)
	}

	carts, err := NewCartStore(backend, time.Hour)
	require.NoError(t, err)
	engine, err := order.NewEngine(order.DefaultTaxRate, order.WithClock(func() time.Time {
		return time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	}))
	require.NoError(t, err)

	metrics := &recordingMetrics{}
	svc, err := NewService(ServiceParams{
		Tx:             db.FromGorm(conn),
		Carts:          carts,
		Products:       product.NewRepository(conn),
		Invoices:       invoices.NewRepository(conn),
		Engine:         engine,
		Metrics:        metrics,
		BlockZeroStock: blockZeroStock,
	})
	require.NoError(t, err)
	return fixture{svc: svc, conn: conn, carts: carts, metrics: metrics, espresso: espresso, pastry: croissant, other: cappuccino, store: downtown}
}

func (f fixture) cashier() catalog.Viewer {
	id := f.store.ID
	return catalog.Viewer{UserID: uuid.New(), Username: "store1", Role: enums.RoleStoreUser, StoreID: &id, StoreName: f.store.Name}
}

func (f fixture) stock(t *testing.T, id uuid.UUID) int {
	t.Helper()
	var p models.Product
	require.NoError(t, f.conn.First(&p, "id = ?", id).Error)
	return p.Stock
}

func TestFinalizePersistsInvoiceAndClearsCart(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	cashier := f.cashier()

	_, err := f.svc.Add(ctx, cashier, f.espresso.ID)
	require.NoError(t, err)
	_, err = f.svc.Add(ctx, cashier, f.espresso.ID)
	require.NoError(t, err)
	view, err := f.svc.Add(ctx, cashier, f.pastry.ID)
	require.NoError(t, err)
	require.Equal(t, "9.80", view.Subtotal)
	require.Equal(t, "10.58", view.Total)
	require.Equal(t, 3, view.ItemCount)

	inv, err := f.svc.Finalize(ctx, cashier, FinalizeInput{CustomerName: "  Ada "})
	require.NoError(t, err)
	require.Equal(t, "INV-20240115-001", inv.ID)
	require.Equal(t, "10.58", inv.Total)
	require.Equal(t, "Ada", *inv.CustomerName)
	require.Equal(t, "Downtown Store", inv.StoreName)

	var stored models.Invoice
	require.NoError(t, f.conn.Preload("Lines").First(&stored, "id = ?", inv.ID).Error)
	require.True(t, stored.Total.Equal(decimal.RequireFromString("10.584")), "stored total %s", stored.Total)
	require.Len(t, stored.Lines, 2)

	require.Equal(t, 118, f.stock(t, f.espresso.ID))
	require.Equal(t, 0, f.stock(t, f.pastry.ID))

	after, err := f.svc.Cart(ctx, cashier)
	require.NoError(t, err)
	require.Empty(t, after.Lines)
	require.Equal(t, []string{"Downtown Store"}, f.metrics.finalized)
}

func TestFinalizeEmptyCartRejected(t *testing.T) {
	f := newFixture(t, true)
	_, err := f.svc.Finalize(context.Background(), f.cashier(), FinalizeInput{})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)
	require.Equal(t, []string{reasonEmptyCart}, f.metrics.rejected)

	var count int64
	require.NoError(t, f.conn.Model(&models.Invoice{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestAddEnforcesScopeStockAndSingleStore(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	cashier := f.cashier()

	_, err := f.svc.Add(ctx, cashier, f.other.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = f.svc.Add(ctx, cashier, f.pastry.ID)
	require.NoError(t, err)
	_, err = f.svc.Add(ctx, cashier, f.pastry.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	_, err = f.svc.UpdateQuantity(ctx, cashier, f.pastry.ID, 5)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	admin := catalog.Viewer{UserID: uuid.New(), Role: enums.RoleAdmin}
	_, err = f.svc.Add(ctx, admin, f.espresso.ID)
	require.NoError(t, err)
	_, err = f.svc.Add(ctx, admin, f.other.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
	require.Contains(t, f.metrics.rejected, reasonMixedStores)
}

func TestCartMutations(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	cashier := f.cashier()

	_, err := f.svc.Add(ctx, cashier, f.espresso.ID)
	require.NoError(t, err)
	view, err := f.svc.UpdateQuantity(ctx, cashier, f.espresso.ID, 4)
	require.NoError(t, err)
	require.Equal(t, 4, view.Lines[0].Quantity)
	require.Equal(t, "14.00", view.Lines[0].LineTotal)

	view, err = f.svc.UpdateQuantity(ctx, cashier, uuid.New(), 3)
	require.NoError(t, err)
	require.Len(t, view.Lines, 1)

	view, err = f.svc.Remove(ctx, cashier, uuid.New())
	require.NoError(t, err)
	require.Len(t, view.Lines, 1)

	view, err = f.svc.UpdateQuantity(ctx, cashier, f.espresso.ID, 0)
	require.NoError(t, err)
	require.Empty(t, view.Lines)
	require.Nil(t, view.StoreID)

	_, err = f.svc.Add(ctx, cashier, f.espresso.ID)
	require.NoError(t, err)
	require.NoError(t, f.svc.Clear(ctx, cashier))
	view, err = f.svc.Cart(ctx, cashier)
	require.NoError(t, err)
	require.Empty(t, view.Lines)
}

func TestFinalizeKeepsCartWhenStockRunsOut(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	cashier := f.cashier()

	_, err := f.svc.Add(ctx, cashier, f.pastry.ID)
	require.NoError(t, err)
	require.NoError(t, f.conn.Model(&models.Product{}).Where("id = ?", f.pastry.ID).UpdateColumn("stock", 0).Error)

	_, err = f.svc.Finalize(ctx, cashier, FinalizeInput{})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict), "got %v", err)

	var count int64
	require.NoError(t, f.conn.Model(&models.Invoice{}).Count(&count).Error)
	require.Zero(t, count)

	view, err := f.svc.Cart(ctx, cashier)
	require.NoError(t, err)
	require.Len(t, view.Lines, 1)
}

func TestFinalizeWithoutStockBlockFloorsAtZero(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	cashier := f.cashier()

	_, err := f.svc.Add(ctx, cashier, f.pastry.ID)
	require.NoError(t, err)
	_, err = f.svc.UpdateQuantity(ctx, cashier, f.pastry.ID, 3)
	require.NoError(t, err)

	_, err = f.svc.Finalize(ctx, cashier, FinalizeInput{})
	require.NoError(t, err)
	require.Equal(t, 0, f.stock(t, f.pastry.ID))
}

type memoryCounter struct {
	counts map[string]int64
}

func (m *memoryCounter) IncrWithTTL(_ context.Context, key string, _ time.Duration) (int64, error) {
	m.counts[key]++
	return m.counts[key], nil
}

func (m *memoryCounter) IncrBy(_ context.Context, key string, n int64) (int64, error) {
	m.counts[key] += n
	return m.counts[key], nil
}

func (m *memoryCounter) SequenceKey(name, bucket string) string {
	return "pos:seq:" + name + ":" + bucket
}

func TestRedisSequencerBucketsByDay(t *testing.T) {
	seq, err := NewRedisSequencer(&memoryCounter{counts: map[string]int64{}})
	require.NoError(t, err)
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		got, err := seq.Next(ctx, "20240115")
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
	got, err := seq.Next(ctx, "20240116")
	require.NoError(t, err)
	require.Equal(t, int64(1), got)
}

type stubHistory struct {
	highest map[string]int64
	calls   int
}

func (s *stubHistory) HighestSequence(_ context.Context, prefix, day string) (int64, error) {
	s.calls++
	return s.highest[prefix+"-"+day], nil
}

func TestRedisSequencerResumesAboveStoredInvoices(t *testing.T) {
	history := &stubHistory{highest: map[string]int64{"POS-20240115": 41}}
	counter := &memoryCounter{counts: map[string]int64{}}
	seq, err := NewRedisSequencer(counter, WithHistory(history, " POS "))
	require.NoError(t, err)
	ctx := context.Background()

	got, err := seq.Next(ctx, "20240115")
	require.NoError(t, err)
	require.Equal(t, int64(42), got)
	got, err = seq.Next(ctx, "20240115")
	require.NoError(t, err)
	require.Equal(t, int64(43), got)
	require.Equal(t, 1, history.calls, "history is read only for a fresh counter")

	// a day with no stored invoices starts at 1
	got, err = seq.Next(ctx, "20240116")
	require.NoError(t, err)
	require.Equal(t, int64(1), got)
}

func TestConcurrentFinalizeCreatesOneInvoice(t *testing.T) {
	backend := &pausingBackend{
		memoryBackend: newMemoryBackend(),
		entered:       make(chan struct{}),
		proceed:       make(chan struct{}),
	}
	f := newFixtureWithBackend(t, true, backend)
	ctx := context.Background()
	cashier := f.cashier()

	_, err := f.svc.Add(ctx, cashier, f.espresso.ID)
	require.NoError(t, err)

	backend.arm()
	first := make(chan error, 1)
	go func() {
		_, err := f.svc.Finalize(ctx, cashier, FinalizeInput{})
		first <- err
	}()
	<-backend.entered

	_, err = f.svc.Finalize(ctx, cashier, FinalizeInput{})
	require.Error(t, err)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict), "got %v", err)

	close(backend.proceed)
	require.NoError(t, <-first)

	var count int64
	require.NoError(t, f.conn.Model(&models.Invoice{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
	require.Equal(t, 119, f.stock(t, f.espresso.ID))
	require.Contains(t, f.metrics.rejected, reasonCheckoutBusy)

	// the claim is gone and the cart is empty
	_, err = f.svc.Finalize(ctx, cashier, FinalizeInput{})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)
}

func TestFinalizeDrawsNewNumberWhenTaken(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	cashier := f.cashier()

	taken := models.Invoice{
		ID:        "INV-20240115-001",
		CashierID: uuid.New(),
		Subtotal:  decimal.Zero,
		Tax:       decimal.Zero,
		Total:     decimal.Zero,
		TaxRate:   order.DefaultTaxRate,
		CreatedAt: time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC),
	}
	require.NoError(t, f.conn.Create(&taken).Error)

	_, err := f.svc.Add(ctx, cashier, f.espresso.ID)
	require.NoError(t, err)
	inv, err := f.svc.Finalize(ctx, cashier, FinalizeInput{})
	require.NoError(t, err)
	require.Equal(t, "INV-20240115-002", inv.ID)
	require.Equal(t, 119, f.stock(t, f.espresso.ID))
}
