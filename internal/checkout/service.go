// Package checkout runs the cashier flow: a per-user working cart in Redis and
// its conversion into a persisted invoice.
package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storepos-backend/internal/catalog"
	"github.com/angelmondragon/storepos-backend/internal/invoices"
	"github.com/angelmondragon/storepos-backend/internal/order"
	product "github.com/angelmondragon/storepos-backend/internal/products"
	"github.com/angelmondragon/storepos-backend/pkg/db"
	"github.com/angelmondragon/storepos-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storepos-backend/pkg/errors"
	"github.com/angelmondragon/storepos-backend/pkg/logger"
)

const (
	reasonEmptyCart         = "empty_cart"
	reasonInsufficientStock = "insufficient_stock"
	reasonMixedStores       = "mixed_stores"
	reasonCheckoutBusy      = "checkout_in_progress"

	// maxInvoiceIDAttempts bounds redraws after an invoice number collision.
	maxInvoiceIDAttempts = 3
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type cartStore interface {
	Load(ctx context.Context, userID uuid.UUID) (WorkingCart, error)
	Save(ctx context.Context, userID uuid.UUID, wc WorkingCart) error
	Claim(ctx context.Context, userID uuid.UUID) (ReleaseFunc, error)
}

type checkoutMetrics interface {
	InvoiceFinalized(store string, total decimal.Decimal)
	CheckoutRejected(reason string)
}

// Service is the cashier surface. Every call works on the caller's own cart.
type Service interface {
	Cart(ctx context.Context, viewer catalog.Viewer) (*CartView, error)
	Add(ctx context.Context, viewer catalog.Viewer, productID uuid.UUID) (*CartView, error)
	UpdateQuantity(ctx context.Context, viewer catalog.Viewer, productID uuid.UUID, qty int) (*CartView, error)
	Remove(ctx context.Context, viewer catalog.Viewer, productID uuid.UUID) (*CartView, error)
	Clear(ctx context.Context, viewer catalog.Viewer) error
	Finalize(ctx context.Context, viewer catalog.Viewer, input FinalizeInput) (*invoices.InvoiceDTO, error)
}

// FinalizeInput carries the optional customer name printed on the invoice.
type FinalizeInput struct {
	CustomerName string `json:"customer_name" validate:"omitempty,max=120"`
}

// ServiceParams bundles checkout dependencies.
type ServiceParams struct {
	Tx             txRunner
	Carts          cartStore
	Products       *product.Repository
	Invoices       *invoices.Repository
	Engine         *order.Engine
	Metrics        checkoutMetrics
	Logger         *logger.Logger
	BlockZeroStock bool
}

type service struct {
	tx         txRunner
	carts      cartStore
	products   *product.Repository
	invoices   *invoices.Repository
	engine     *order.Engine
	metrics    checkoutMetrics
	logg       *logger.Logger
	blockStock bool
}

func NewService(params ServiceParams) (Service, error) {
	if params.Tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Carts == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if params.Invoices == nil {
		return nil, fmt.Errorf("invoice repository required")
	}
	if params.Engine == nil {
		return nil, fmt.Errorf("order engine required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		tx:         params.Tx,
		carts:      params.Carts,
		products:   params.Products,
		invoices:   params.Invoices,
		engine:     params.Engine,
		metrics:    params.Metrics,
		logg:       logg,
		blockStock: params.BlockZeroStock,
	}, nil
}

func (s *service) Cart(ctx context.Context, viewer catalog.Viewer) (*CartView, error) {
	wc, err := s.load(ctx, viewer)
	if err != nil {
		return nil, err
	}
	return s.view(wc), nil
}

// Add puts one unit of the product into the cart. The product must be visible
// to the viewer and come from the same store as the lines already present.
func (s *service) Add(ctx context.Context, viewer catalog.Viewer, productID uuid.UUID) (*CartView, error) {
	wc, err := s.load(ctx, viewer)
	if err != nil {
		return nil, err
	}
	p, err := s.visibleProduct(ctx, viewer, productID)
	if err != nil {
		return nil, err
	}

	if wc.StoreID != nil && !wc.Cart.IsEmpty() && *wc.StoreID != p.StoreID {
		s.reject(reasonMixedStores)
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cart already holds products from another store").
			WithDetails(map[string]string{"store": wc.StoreName})
	}
	if err := s.checkStock(p, wc.Cart.Quantity(p.ID)+1); err != nil {
		return nil, err
	}

	next := WorkingCart{Cart: wc.Cart.Clone()}
	storeID := p.StoreID
	next.StoreID = &storeID
	next.StoreName = p.StoreName()
	next.Cart.Add(order.Item{ID: p.ID, Name: p.Name, Category: p.Category, Price: p.Price})
	return s.save(ctx, viewer, next)
}

// UpdateQuantity sets a line's quantity; zero or less removes it and unknown
// products are ignored.
func (s *service) UpdateQuantity(ctx context.Context, viewer catalog.Viewer, productID uuid.UUID, qty int) (*CartView, error) {
	wc, err := s.load(ctx, viewer)
	if err != nil {
		return nil, err
	}
	if qty > 0 && wc.Cart.Quantity(productID) > 0 && s.blockStock {
		p, err := s.visibleProduct(ctx, viewer, productID)
		if err != nil {
			return nil, err
		}
		if err := s.checkStock(p, qty); err != nil {
			return nil, err
		}
	}

	next := WorkingCart{StoreID: wc.StoreID, StoreName: wc.StoreName, Cart: wc.Cart.Clone()}
	next.Cart.UpdateQuantity(productID, qty)
	return s.save(ctx, viewer, next)
}

func (s *service) Remove(ctx context.Context, viewer catalog.Viewer, productID uuid.UUID) (*CartView, error) {
	wc, err := s.load(ctx, viewer)
	if err != nil {
		return nil, err
	}
	next := WorkingCart{StoreID: wc.StoreID, StoreName: wc.StoreName, Cart: wc.Cart.Clone()}
	next.Cart.Remove(productID)
	return s.save(ctx, viewer, next)
}

func (s *service) Clear(ctx context.Context, viewer catalog.Viewer) error {
	if err := s.carts.Save(ctx, viewer.UserID, WorkingCart{}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}

// Finalize turns the cart into an invoice. The invoice, its lines and the
// stock decrements commit in one transaction; the cart is cleared only after
// that commit succeeds.
func (s *service) Finalize(ctx context.Context, viewer catalog.Viewer, input FinalizeInput) (*invoices.InvoiceDTO, error) {
	release, err := s.carts.Claim(ctx, viewer.UserID)
	if err != nil {
		if errors.Is(err, ErrCartBusy) {
			s.reject(reasonCheckoutBusy)
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "checkout already in progress for this cart")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim cart")
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			s.logg.Error(ctx, "release cart claim", err)
		}
	}()

	wc, err := s.load(ctx, viewer)
	if err != nil {
		return nil, err
	}

	working := wc.Cart.Clone()
	inv, err := s.engine.Finalize(ctx, &working, input.CustomerName, order.StoreContext{
		StoreID:   wc.StoreID,
		StoreName: wc.StoreName,
	}, viewer.UserID)
	if err != nil {
		if errors.Is(err, order.ErrEmptyCart) {
			s.reject(reasonEmptyCart)
		}
		return nil, err
	}

	row, err := s.persist(ctx, inv)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
			s.reject(reasonInsufficientStock)
		}
		return nil, err
	}

	if err := s.carts.Save(ctx, viewer.UserID, WorkingCart{}); err != nil {
		s.logg.Error(s.logg.WithField(ctx, "invoice_id", row.ID), "clear cart after checkout", err)
	}
	if s.metrics != nil {
		s.metrics.InvoiceFinalized(inv.Store.StoreName, inv.Total)
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"invoice_id": row.ID,
		"total":      order.Money(inv.Total),
		"lines":      len(inv.Lines),
	}), "invoice finalized")

	dto := invoices.FromModel(row)
	return &dto, nil
}

// persist writes the invoice and takes its stock in one transaction. A taken
// invoice number is replaced with a fresh one a bounded number of times.
func (s *service) persist(ctx context.Context, inv order.Invoice) (models.Invoice, error) {
	for attempt := 1; ; attempt++ {
		row := invoices.ToModel(inv)
		collided := false
		err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			if err := s.invoices.WithTx(tx).Create(ctx, &row); err != nil {
				if db.IsUniqueViolation(err, "") {
					collided = true
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist invoice")
			}
			return s.consumeStock(ctx, s.products.WithTx(tx), inv.Lines)
		})
		if err == nil {
			return row, nil
		}
		if !collided || attempt >= maxInvoiceIDAttempts {
			return models.Invoice{}, err
		}

		s.logg.Warn(s.logg.WithField(ctx, "invoice_id", inv.ID), "invoice number taken, drawing another")
		id, idErr := s.engine.NextID(ctx, inv.CreatedAt)
		if idErr != nil {
			return models.Invoice{}, idErr
		}
		inv.ID = id
	}
}

func (s *service) consumeStock(ctx context.Context, repo *product.Repository, lines []order.Line) error {
	for _, line := range lines {
		if !s.blockStock {
			if err := repo.DrainStock(ctx, line.ProductID, line.Quantity); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update stock")
			}
			continue
		}
		ok, err := repo.DecrementStock(ctx, line.ProductID, line.Quantity)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update stock")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "insufficient stock").
				WithDetails(map[string]string{line.ProductID.String(): line.Name})
		}
	}
	return nil
}

func (s *service) checkStock(p *models.Product, want int) error {
	if !s.blockStock || want <= p.Stock {
		return nil
	}
	s.reject(reasonInsufficientStock)
	return pkgerrors.New(pkgerrors.CodeStateConflict, "insufficient stock").
		WithDetails(map[string]any{"product_id": p.ID, "available": p.Stock, "requested": want})
}

func (s *service) visibleProduct(ctx context.Context, viewer catalog.Viewer, id uuid.UUID) (*models.Product, error) {
	p, err := s.products.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !viewer.CanSeeStore(&p.StoreID) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return p, nil
}

func (s *service) load(ctx context.Context, viewer catalog.Viewer) (WorkingCart, error) {
	wc, err := s.carts.Load(ctx, viewer.UserID)
	if err != nil {
		return WorkingCart{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return wc, nil
}

func (s *service) save(ctx context.Context, viewer catalog.Viewer, wc WorkingCart) (*CartView, error) {
	if wc.Cart.IsEmpty() {
		wc = WorkingCart{}
	}
	if err := s.carts.Save(ctx, viewer.UserID, wc); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart")
	}
	return s.view(wc), nil
}

func (s *service) reject(reason string) {
	if s.metrics != nil {
		s.metrics.CheckoutRejected(reason)
	}
}
