package product

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storepos-backend/internal/catalog"
	"github.com/angelmondragon/storepos-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storepos-backend/pkg/errors"
)

// DefaultLowStockThreshold flags products with fewer units than this.
const DefaultLowStockThreshold = 10

type productRepository interface {
	Create(ctx context.Context, product *models.Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	List(ctx context.Context, storeID *uuid.UUID) ([]models.Product, error)
	LowStock(ctx context.Context, storeID *uuid.UUID, threshold int) ([]models.Product, error)
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type storeFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error)
}

type categoryChecker interface {
	Exists(ctx context.Context, name string) (bool, error)
}

// Service exposes catalog management scoped to the calling viewer.
type Service interface {
	List(ctx context.Context, viewer catalog.Viewer, input ListProductsInput) ([]ProductDTO, error)
	Get(ctx context.Context, viewer catalog.Viewer, id uuid.UUID) (*ProductDTO, error)
	Create(ctx context.Context, viewer catalog.Viewer, input CreateProductInput) (*ProductDTO, error)
	Update(ctx context.Context, viewer catalog.Viewer, id uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	Delete(ctx context.Context, viewer catalog.Viewer, id uuid.UUID) error
	LowStock(ctx context.Context, viewer catalog.Viewer) ([]ProductDTO, error)
}

type service struct {
	repo       productRepository
	stores     storeFinder
	categories categoryChecker
	threshold  int
}

// NewService wires the product service. A non-positive threshold falls back
// to DefaultLowStockThreshold.
func NewService(repo productRepository, stores storeFinder, categories categoryChecker, lowStockThreshold int) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if stores == nil {
		return nil, fmt.Errorf("store repository required")
	}
	if categories == nil {
		return nil, fmt.Errorf("category checker required")
	}
	if lowStockThreshold <= 0 {
		lowStockThreshold = DefaultLowStockThreshold
	}
	return &service{repo: repo, stores: stores, categories: categories, threshold: lowStockThreshold}, nil
}

func (s *service) List(ctx context.Context, viewer catalog.Viewer, input ListProductsInput) ([]ProductDTO, error) {
	if viewer.IsAdmin() {
		if _, err := catalog.ParseSelectedStore(input.SelectedStore); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid store filter").
				WithDetails(map[string]string{"store": "must be a store id or all"})
		}
	}
	rows, err := s.repo.List(ctx, viewer.ScopeStoreID())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	filtered := catalog.FilterProducts(rows, catalog.ProductFilter{
		Viewer:        viewer,
		SearchTerm:    input.Search,
		SelectedStore: input.SelectedStore,
	})
	return fromModels(filtered), nil
}

func (s *service) Get(ctx context.Context, viewer catalog.Viewer, id uuid.UUID) (*ProductDTO, error) {
	product, err := s.loadVisible(ctx, viewer, id)
	if err != nil {
		return nil, err
	}
	dto := FromModel(*product)
	return &dto, nil
}

func (s *service) Create(ctx context.Context, viewer catalog.Viewer, input CreateProductInput) (*ProductDTO, error) {
	storeID, err := targetStore(viewer, input.StoreID)
	if err != nil {
		return nil, err
	}

	product := &models.Product{
		Name:     strings.TrimSpace(input.Name),
		Category: strings.TrimSpace(input.Category),
		Price:    input.Price,
		Stock:    input.Stock,
	}
	if storeID != nil {
		product.StoreID = *storeID
	}

	if err := s.validate(ctx, product, storeID != nil); err != nil {
		return nil, err
	}
	store, err := s.loadStore(ctx, product.StoreID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}
	product.Store = store
	dto := FromModel(*product)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, viewer catalog.Viewer, id uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	product, err := s.loadVisible(ctx, viewer, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		product.Name = strings.TrimSpace(*input.Name)
	}
	if input.Category != nil {
		product.Category = strings.TrimSpace(*input.Category)
	}
	if input.Price != nil {
		product.Price = *input.Price
	}
	if input.Stock != nil {
		product.Stock = *input.Stock
	}
	if input.StoreID != nil && *input.StoreID != product.StoreID {
		if !viewer.IsAdmin() {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "store users cannot move products between stores")
		}
		product.StoreID = *input.StoreID
	}

	if err := s.validate(ctx, product, true); err != nil {
		return nil, err
	}
	store, err := s.loadStore(ctx, product.StoreID)
	if err != nil {
		return nil, err
	}

	product.Store = nil
	if err := s.repo.Update(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}
	product.Store = store
	dto := FromModel(*product)
	return &dto, nil
}

// Delete removes a product. Deleting a product that no longer exists succeeds.
func (s *service) Delete(ctx context.Context, viewer catalog.Viewer, id uuid.UUID) error {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !viewer.CanSeeStore(&product.StoreID) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
	}
	return nil
}

func (s *service) LowStock(ctx context.Context, viewer catalog.Viewer) ([]ProductDTO, error) {
	rows, err := s.repo.LowStock(ctx, viewer.ScopeStoreID(), s.threshold)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list low stock products")
	}
	return fromModels(catalog.FilterProducts(rows, catalog.ProductFilter{Viewer: viewer})), nil
}

// targetStore resolves the store a new product belongs to. Store users are
// pinned to their own store; admins must pick one.
func targetStore(viewer catalog.Viewer, requested *uuid.UUID) (*uuid.UUID, error) {
	if viewer.IsAdmin() {
		return requested, nil
	}
	if viewer.StoreID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "user is not assigned to a store")
	}
	if requested != nil && *requested != *viewer.StoreID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "store users can only add products to their own store")
	}
	return viewer.StoreID, nil
}

func (s *service) validate(ctx context.Context, p *models.Product, hasStore bool) error {
	var fields pkgerrors.Fields
	fields.Check(p.Name != "", "name", "required")
	fields.Check(p.Price.GreaterThan(decimal.Zero), "price", "must be greater than 0")
	fields.Check(p.Price.Equal(p.Price.Round(2)), "price", "at most two decimal places")
	fields.Check(p.Stock >= 0, "stock", "must not be negative")
	fields.Check(hasStore, "store_id", "required")
	if p.Category == "" {
		fields.Add("category", "required")
	} else {
		ok, err := s.categories.Exists(ctx, p.Category)
		if err != nil {
			return err
		}
		fields.Check(ok, "category", "unknown category")
	}
	return fields.Err("invalid product")
}

func (s *service) loadStore(ctx context.Context, id uuid.UUID) (*models.Store, error) {
	store, err := s.stores.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid product").
				WithDetails(map[string]string{"store_id": "unknown store"})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store")
	}
	return store, nil
}

// loadVisible returns the product if the viewer's role gate admits it. Out of
// scope products are reported as missing.
func (s *service) loadVisible(ctx context.Context, viewer catalog.Viewer, id uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !viewer.CanSeeStore(&product.StoreID) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return product, nil
}
