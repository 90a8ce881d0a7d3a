package product

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storepos-backend/pkg/db/models"
)

// Repository persists products.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to an open transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) Create(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Omit("Store").Create(product).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).Preload("Store").First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// List loads products ordered by name. A non-nil storeID restricts the rows to
// that store.
func (r *Repository) List(ctx context.Context, storeID *uuid.UUID) ([]models.Product, error) {
	var products []models.Product
	q := r.db.WithContext(ctx).Preload("Store").Order("name ASC, id ASC")
	if storeID != nil {
		q = q.Where("store_id = ?", *storeID)
	}
	if err := q.Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// LowStock returns products whose stock is below threshold, scarcest first.
func (r *Repository) LowStock(ctx context.Context, storeID *uuid.UUID, threshold int) ([]models.Product, error) {
	var products []models.Product
	q := r.db.WithContext(ctx).Preload("Store").
		Where("stock < ?", threshold).
		Order("stock ASC, name ASC")
	if storeID != nil {
		q = q.Where("store_id = ?", *storeID)
	}
	if err := q.Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *Repository) Update(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Omit("Store").Save(product).Error
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Product{}).Error
}

// DecrementStock removes qty units if at least that many are on hand. It
// reports false when the guard fails and nothing was changed.
func (r *Repository) DecrementStock(ctx context.Context, id uuid.UUID, qty int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND stock >= ?", id, qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// DrainStock removes up to qty units, stopping at zero.
func (r *Repository) DrainStock(ctx context.Context, id uuid.UUID, qty int) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		UpdateColumn("stock", gorm.Expr("CASE WHEN stock >= ? THEN stock - ? ELSE 0 END", qty, qty)).Error
}
