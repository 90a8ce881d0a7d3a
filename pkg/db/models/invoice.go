package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Invoice is an append-only record of a finalized sale. Totals are stored as
// computed at checkout and never recomputed.
type Invoice struct {
	ID           string          `gorm:"column:id;primaryKey"`
	StoreID      *uuid.UUID      `gorm:"column:store_id;type:uuid;index"`
	StoreName    string          `gorm:"column:store_name;not null;default:''"`
	CashierID    uuid.UUID       `gorm:"column:cashier_id;type:uuid;not null"`
	CustomerName *string         `gorm:"column:customer_name"`
	Subtotal     decimal.Decimal `gorm:"column:subtotal;type:numeric(18,6);not null"`
	Tax          decimal.Decimal `gorm:"column:tax;type:numeric(18,6);not null"`
	Total        decimal.Decimal `gorm:"column:total;type:numeric(18,6);not null"`
	TaxRate      decimal.Decimal `gorm:"column:tax_rate;type:numeric(8,6);not null"`
	Lines        []InvoiceLine   `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time       `gorm:"column:created_at;not null;index"`
}

// InvoiceLine snapshots a cart line at the moment of checkout.
type InvoiceLine struct {
	InvoiceID string          `gorm:"column:invoice_id;primaryKey"`
	Position  int             `gorm:"column:position;primaryKey;autoIncrement:false"`
	ProductID uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	Name      string          `gorm:"column:name;not null"`
	Category  string          `gorm:"column:category;not null;default:''"`
	UnitPrice decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	Quantity  int             `gorm:"column:quantity;not null"`
}

// ItemCount sums line quantities.
func (i Invoice) ItemCount() int {
	n := 0
	for _, line := range i.Lines {
		n += line.Quantity
	}
	return n
}

func (l InvoiceLine) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}
