package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	pkgerrors "github.com/angelmondragon/storepos-backend/pkg/errors"
)

const (
	// DefaultPrefix starts every invoice id.
	DefaultPrefix = "INV"
	dayLayout     = "20060102"
)

// DefaultTaxRate is the flat sales tax applied when none is configured.
var DefaultTaxRate = decimal.RequireFromString("0.08")

// ErrEmptyCart is the cause attached when checkout is attempted with no lines.
var ErrEmptyCart = errors.New("cart is empty")

// StoreContext identifies the store an invoice is issued for. Admin checkouts
// may have no store.
type StoreContext struct {
	StoreID   *uuid.UUID
	StoreName string
}

// Totals are the monetary figures derived from a cart.
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

// Invoice is the immutable result of a checkout.
type Invoice struct {
	ID           string
	CustomerName *string
	Lines        []Line
	Subtotal     decimal.Decimal
	Tax          decimal.Decimal
	Total        decimal.Decimal
	TaxRate      decimal.Decimal
	CreatedAt    time.Time
	Store        StoreContext
	CashierID    uuid.UUID
}

// Engine computes cart totals at a fixed tax rate and turns carts into invoices.
type Engine struct {
	rate   decimal.Decimal
	prefix string
	seq    Sequencer
	now    func() time.Time
}

type Option func(*Engine)

// WithSequencer replaces the in-process sequencer.
func WithSequencer(seq Sequencer) Option {
	return func(e *Engine) {
		if seq != nil {
			e.seq = seq
		}
	}
}

func WithPrefix(prefix string) Option {
	return func(e *Engine) {
		if p := strings.TrimSpace(prefix); p != "" {
			e.prefix = p
		}
	}
}

// WithClock sets the time source used for invoice dates.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine builds an engine for rate, which must lie in [0, 1).
func NewEngine(rate decimal.Decimal, opts ...Option) (*Engine, error) {
	if rate.IsNegative() || rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("tax rate must be in [0, 1), got %s", rate)
	}
	e := &Engine{
		rate:   rate,
		prefix: DefaultPrefix,
		seq:    NewMemorySequencer(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

func (e *Engine) TaxRate() decimal.Decimal {
	return e.rate
}

// Tax is subtotal times the tax rate, unrounded.
func (e *Engine) Tax(c Cart) decimal.Decimal {
	return c.Subtotal().Mul(e.rate)
}

// Total is subtotal plus tax.
func (e *Engine) Total(c Cart) decimal.Decimal {
	return e.Totals(c).Total
}

func (e *Engine) Totals(c Cart) Totals {
	subtotal := c.Subtotal()
	tax := subtotal.Mul(e.rate)
	return Totals{Subtotal: subtotal, Tax: tax, Total: subtotal.Add(tax)}
}

// Finalize snapshots the cart into an invoice and clears it. An empty cart is
// rejected with a validation error and nothing changes; the cart is also left
// intact when no invoice number can be allocated.
func (e *Engine) Finalize(ctx context.Context, c *Cart, customerName string, store StoreContext, cashierID uuid.UUID) (Invoice, error) {
	if c == nil || c.IsEmpty() {
		return Invoice{}, pkgerrors.Wrap(pkgerrors.CodeValidation, ErrEmptyCart, "cannot finalize an empty cart")
	}

	now := e.now().UTC()
	id, err := e.NextID(ctx, now)
	if err != nil {
		return Invoice{}, err
	}

	totals := e.Totals(*c)
	inv := Invoice{
		ID:        id,
		Lines:     c.Clone().Lines,
		Subtotal:  totals.Subtotal,
		Tax:       totals.Tax,
		Total:     totals.Total,
		TaxRate:   e.rate,
		CreatedAt: now,
		Store:     store,
		CashierID: cashierID,
	}
	if name := strings.TrimSpace(customerName); name != "" {
		inv.CustomerName = &name
	}

	c.Clear()
	return inv, nil
}

// NextID allocates the next invoice number for the day of now.
func (e *Engine) NextID(ctx context.Context, now time.Time) (string, error) {
	day := now.Format(dayLayout)
	seq, err := e.seq.Next(ctx, day)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "allocate invoice number")
	}
	return fmt.Sprintf("%s-%s-%03d", e.prefix, day, seq), nil
}
