package invoices

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storepos-backend/internal/order"
	"github.com/angelmondragon/storepos-backend/pkg/db/models"
)

type LineDTO struct {
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	UnitPrice string    `json:"unit_price"`
	Quantity  int       `json:"quantity"`
	LineTotal string    `json:"line_total"`
}

// InvoiceDTO renders a stored invoice. Amounts are display-rounded; the exact
// figures stay in the database.
type InvoiceDTO struct {
	ID           string     `json:"id"`
	CustomerName *string    `json:"customer_name,omitempty"`
	Lines        []LineDTO  `json:"lines"`
	ItemCount    int        `json:"item_count"`
	Subtotal     string     `json:"subtotal"`
	Tax          string     `json:"tax"`
	Total        string     `json:"total"`
	TaxRate      string     `json:"tax_rate"`
	StoreID      *uuid.UUID `json:"store_id,omitempty"`
	StoreName    string     `json:"store_name"`
	CashierID    uuid.UUID  `json:"cashier_id"`
	CreatedAt    time.Time  `json:"created_at"`
}

func FromModel(m models.Invoice) InvoiceDTO {
	lines := make([]LineDTO, 0, len(m.Lines))
	for _, l := range m.Lines {
		lines = append(lines, LineDTO{
			ProductID: l.ProductID,
			Name:      l.Name,
			Category:  l.Category,
			UnitPrice: order.Money(l.UnitPrice),
			Quantity:  l.Quantity,
			LineTotal: order.Money(l.LineTotal()),
		})
	}
	return InvoiceDTO{
		ID:           m.ID,
		CustomerName: m.CustomerName,
		Lines:        lines,
		ItemCount:    m.ItemCount(),
		Subtotal:     order.Money(m.Subtotal),
		Tax:          order.Money(m.Tax),
		Total:        order.Money(m.Total),
		TaxRate:      m.TaxRate.String(),
		StoreID:      m.StoreID,
		StoreName:    m.StoreName,
		CashierID:    m.CashierID,
		CreatedAt:    m.CreatedAt,
	}
}

// ToModel converts a finalized invoice into its persistent form.
func ToModel(inv order.Invoice) models.Invoice {
	lines := make([]models.InvoiceLine, 0, len(inv.Lines))
	for i, l := range inv.Lines {
		lines = append(lines, models.InvoiceLine{
			InvoiceID: inv.ID,
			Position:  i + 1,
			ProductID: l.ProductID,
			Name:      l.Name,
			Category:  l.Category,
			UnitPrice: l.UnitPrice,
			Quantity:  l.Quantity,
		})
	}
	return models.Invoice{
		ID:           inv.ID,
		StoreID:      inv.Store.StoreID,
		StoreName:    inv.Store.StoreName,
		CashierID:    inv.CashierID,
		CustomerName: inv.CustomerName,
		Subtotal:     inv.Subtotal,
		Tax:          inv.Tax,
		Total:        inv.Total,
		TaxRate:      inv.TaxRate,
		Lines:        lines,
		CreatedAt:    inv.CreatedAt,
	}
}
