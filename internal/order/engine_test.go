package order

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	pkgerrors "github.com/angelmondragon/storepos-backend/pkg/errors"
)

var fixedNow = time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC)

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	e, err := NewEngine(DefaultTaxRate, opts...)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return e
}

func TestNewEngineRejectsBadRate(t *testing.T) {
	for _, rate := range []string{"-0.01", "1", "2.5"} {
		if _, err := NewEngine(decimal.RequireFromString(rate)); err == nil {
			t.Fatalf("expected rate %s to be rejected", rate)
		}
	}
}

func TestTotalInvariant(t *testing.T) {
	e := newTestEngine(t)
	prices := []string{"0.01", "999.99", "29.99", "79.99", "299.99", "3.33"}
	var c Cart
	for i, p := range prices {
		it := item(p)
		for j := 0; j <= i; j++ {
			c.Add(it)
		}
		subtotal := c.Subtotal()
		want := subtotal.Add(subtotal.Mul(e.TaxRate()))
		if !e.Total(c).Equal(want) {
			t.Fatalf("total %s != subtotal+tax %s", e.Total(c), want)
		}
		if !e.Tax(c).Equal(subtotal.Mul(DefaultTaxRate)) {
			t.Fatalf("tax should be unrounded subtotal*rate")
		}
	}
}

func TestScenarioTenFiftyEight(t *testing.T) {
	e := newTestEngine(t)
	storeID := uuid.New()
	a := Item{ID: uuid.New(), Name: "Coffee", Price: decimal.RequireFromString("3.50")}
	b := Item{ID: uuid.New(), Name: "Bagel", Price: decimal.RequireFromString("2.80")}

	var c Cart
	c.Add(a)
	c.Add(a)
	c.Add(b)

	totals := e.Totals(c)
	if totals.Subtotal.String() != "9.8" || totals.Tax.String() != "0.784" || totals.Total.String() != "10.584" {
		t.Fatalf("unexpected totals %+v", totals)
	}

	inv, err := e.Finalize(context.Background(), &c, "John Doe", StoreContext{StoreID: &storeID, StoreName: "Downtown Store"}, uuid.New())
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if Money(inv.Total) != "10.58" {
		t.Fatalf("expected display total 10.58, got %s", Money(inv.Total))
	}
	if inv.CustomerName == nil || *inv.CustomerName != "John Doe" {
		t.Fatalf("customer name not kept")
	}
	if len(inv.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(inv.Lines))
	}
	if inv.ID != "INV-20240115-001" {
		t.Fatalf("unexpected id %s", inv.ID)
	}
	if *inv.Store.StoreID != storeID || !inv.CreatedAt.Equal(fixedNow) {
		t.Fatalf("store context or timestamp missing: %+v", inv)
	}
	if !c.IsEmpty() {
		t.Fatalf("cart should be cleared after checkout")
	}
}

func TestFinalizeClearsCartAndAppendsOne(t *testing.T) {
	e := newTestEngine(t)
	var history []Invoice

	var c Cart
	c.Add(item("12.50"))
	c.Add(item("1.25"))
	before := e.Total(c)

	inv, err := e.Finalize(context.Background(), &c, "", StoreContext{}, uuid.New())
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	history = append(history, inv)

	if len(history) != 1 || !history[0].Total.Equal(before) {
		t.Fatalf("expected one invoice with total %s, got %+v", before, history)
	}
	if !c.IsEmpty() {
		t.Fatalf("cart should be empty")
	}
	if inv.CustomerName != nil {
		t.Fatalf("blank customer name should be nil")
	}
}

func TestFinalizeSnapshotIsIndependentOfCart(t *testing.T) {
	e := newTestEngine(t)
	var c Cart
	p := item("2")
	c.Add(p)
	inv, err := e.Finalize(context.Background(), &c, "x", StoreContext{}, uuid.New())
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	c.Add(p)
	c.UpdateQuantity(p.ID, 50)
	if inv.Lines[0].Quantity != 1 {
		t.Fatalf("invoice lines must not change with the cart")
	}
}

func TestFinalizeRejectsEmptyCart(t *testing.T) {
	e := newTestEngine(t)
	var history []Invoice
	var c Cart

	inv, err := e.Finalize(context.Background(), &c, "John", StoreContext{}, uuid.New())
	if err == nil {
		history = append(history, inv)
		t.Fatal("expected error for empty cart")
	}
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) || !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(history) != 0 {
		t.Fatalf("history must not grow")
	}
	if _, err := e.Finalize(context.Background(), nil, "", StoreContext{}, uuid.New()); err == nil {
		t.Fatal("nil cart should be rejected")
	}
}

type failingSequencer struct{}

func (failingSequencer) Next(context.Context, string) (int64, error) {
	return 0, fmt.Errorf("redis down")
}

func TestFinalizeKeepsCartWhenSequenceFails(t *testing.T) {
	e := newTestEngine(t, WithSequencer(failingSequencer{}))
	var c Cart
	c.Add(item("4"))
	if _, err := e.Finalize(context.Background(), &c, "", StoreContext{}, uuid.New()); !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
	if c.IsEmpty() {
		t.Fatal("cart must be left intact")
	}
}

func TestInvoiceIDsAreDistinctAndMonotonic(t *testing.T) {
	day := fixedNow
	e := newTestEngine(t, WithPrefix("POS"), WithClock(func() time.Time { return day }))

	var ids []string
	for i := 0; i < 3; i++ {
		var c Cart
		c.Add(item("1"))
		inv, err := e.Finalize(context.Background(), &c, "", StoreContext{}, uuid.New())
		if err != nil {
			t.Fatalf("finalize: %v", err)
		}
		ids = append(ids, inv.ID)
	}
	want := []string{"POS-20240115-001", "POS-20240115-002", "POS-20240115-003"}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, ids)
		}
	}

	day = fixedNow.Add(24 * time.Hour)
	var c Cart
	c.Add(item("1"))
	inv, err := e.Finalize(context.Background(), &c, "", StoreContext{}, uuid.New())
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if inv.ID != "POS-20240116-001" {
		t.Fatalf("expected sequence to restart per day, got %s", inv.ID)
	}
}

func TestMemorySequencerConcurrent(t *testing.T) {
	seq := NewMemorySequencer()
	var wg sync.WaitGroup
	seen := sync.Map{}
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, _ := seq.Next(context.Background(), "20240115")
			if _, dup := seen.LoadOrStore(n, true); dup {
				t.Errorf("duplicate sequence %d", n)
			}
		}()
	}
	wg.Wait()
	if n, _ := seq.Next(context.Background(), "20240115"); n != 51 {
		t.Fatalf("expected 51, got %d", n)
	}
}
