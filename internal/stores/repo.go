package stores

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storepos-backend/pkg/db/models"
)

// Repository handles store persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to store operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, store *models.Store) error {
	if store == nil {
		return fmt.Errorf("store is required")
	}
	return r.db.WithContext(ctx).Create(store).Error
}

// FindByID loads a store by id; gorm.ErrRecordNotFound when absent.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error) {
	var store models.Store
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&store).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

func (r *Repository) List(ctx context.Context) ([]models.Store, error) {
	var stores []models.Store
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&stores).Error; err != nil {
		return nil, err
	}
	return stores, nil
}

func (r *Repository) Update(ctx context.Context, store *models.Store) error {
	if store == nil {
		return fmt.Errorf("store is required")
	}
	return r.db.WithContext(ctx).Save(store).Error
}

// Delete removes the store row. Missing rows are not an error.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Store{}).Error
}

type storeCount struct {
	StoreID uuid.UUID
	N       int64
}

// CountUsers returns the number of users bound to each store.
func (r *Repository) CountUsers(ctx context.Context) (map[uuid.UUID]int64, error) {
	var rows []storeCount
	if err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Select("store_id, COUNT(*) AS n").
		Where("store_id IS NOT NULL").
		Group("store_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]int64, len(rows))
	for _, row := range rows {
		out[row.StoreID] = row.N
	}
	return out, nil
}

// CountDependents reports how many users and products still reference the store.
func (r *Repository) CountDependents(ctx context.Context, id uuid.UUID) (users, products int64, err error) {
	if err = r.db.WithContext(ctx).Model(&models.User{}).Where("store_id = ?", id).Count(&users).Error; err != nil {
		return 0, 0, err
	}
	if err = r.db.WithContext(ctx).Model(&models.Product{}).Where("store_id = ?", id).Count(&products).Error; err != nil {
		return 0, 0, err
	}
	return users, products, nil
}
