package product

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storepos-backend/internal/order"
	"github.com/angelmondragon/storepos-backend/pkg/db/models"
)

// ProductDTO is the catalog row returned to clients. Price is rendered with
// two decimals.
type ProductDTO struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	Price     string    `json:"price"`
	Stock     int       `json:"stock"`
	StoreID   uuid.UUID `json:"store_id"`
	StoreName string    `json:"store_name"`
	UpdatedAt time.Time `json:"updated_at"`
}

func FromModel(p models.Product) ProductDTO {
	return ProductDTO{
		ID:        p.ID,
		Name:      p.Name,
		Category:  p.Category,
		Price:     order.Money(p.Price),
		Stock:     p.Stock,
		StoreID:   p.StoreID,
		StoreName: p.StoreName(),
		UpdatedAt: p.UpdatedAt,
	}
}

func fromModels(rows []models.Product) []ProductDTO {
	out := make([]ProductDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromModel(row))
	}
	return out
}

// CreateProductInput carries a new product. StoreID may be omitted by store
// users, who always create in their own store.
type CreateProductInput struct {
	Name     string
	Category string
	Price    decimal.Decimal
	Stock    int
	StoreID  *uuid.UUID
}

// UpdateProductInput patches a product; nil fields are left as they are.
type UpdateProductInput struct {
	Name     *string
	Category *string
	Price    *decimal.Decimal
	Stock    *int
	StoreID  *uuid.UUID
}

// ListProductsInput holds the search box and store selector values.
type ListProductsInput struct {
	Search        string
	SelectedStore string
}
