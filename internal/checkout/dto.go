package checkout

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/storepos-backend/internal/order"
)

type CartLineDTO struct {
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	UnitPrice string    `json:"unit_price"`
	Quantity  int       `json:"quantity"`
	LineTotal string    `json:"line_total"`
}

// CartView is the cart with its derived totals, rounded for display.
type CartView struct {
	StoreID   *uuid.UUID    `json:"store_id,omitempty"`
	StoreName string        `json:"store_name,omitempty"`
	Lines     []CartLineDTO `json:"lines"`
	ItemCount int           `json:"item_count"`
	Subtotal  string        `json:"subtotal"`
	Tax       string        `json:"tax"`
	Total     string        `json:"total"`
	TaxRate   string        `json:"tax_rate"`
}

func (s *service) view(wc WorkingCart) *CartView {
	totals := s.engine.Totals(wc.Cart)
	lines := make([]CartLineDTO, 0, len(wc.Cart.Lines))
	for _, l := range wc.Cart.Lines {
		lines = append(lines, CartLineDTO{
			ProductID: l.ProductID,
			Name:      l.Name,
			Category:  l.Category,
			UnitPrice: order.Money(l.UnitPrice),
			Quantity:  l.Quantity,
			LineTotal: order.Money(l.LineTotal()),
		})
	}
	return &CartView{
		StoreID:   wc.StoreID,
		StoreName: wc.StoreName,
		Lines:     lines,
		ItemCount: wc.Cart.ItemCount(),
		Subtotal:  order.Money(totals.Subtotal),
		Tax:       order.Money(totals.Tax),
		Total:     order.Money(totals.Total),
		TaxRate:   s.engine.TaxRate().String(),
	}
}
