package catalog

import (
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/storepos-backend/pkg/db/models"
)

// ProductFilter narrows a product list for one viewer.
type ProductFilter struct {
	Viewer     Viewer
	SearchTerm string
	// SelectedStore is a store id or AllStores. Only admins may narrow by store.
	SelectedStore string
}

// FilterProducts keeps the products that pass the role, store and text gates.
// The gates are independent predicates, so their order does not matter.
func FilterProducts(products []models.Product, f ProductFilter) []models.Product {
	term := strings.ToLower(f.SearchTerm)
	selected := selectedStore(f)

	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		storeID := p.StoreID
		if !f.Viewer.CanSeeStore(&storeID) {
			continue
		}
		if selected != "" && !strings.EqualFold(storeID.String(), selected) {
			continue
		}
		if term != "" && !strings.Contains(strings.ToLower(p.Name), term) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// FilterInvoices applies the role gate to invoices by their stored store id.
func FilterInvoices(invoices []models.Invoice, v Viewer) []models.Invoice {
	out := make([]models.Invoice, 0, len(invoices))
	for _, inv := range invoices {
		if v.CanSeeStore(inv.StoreID) {
			out = append(out, inv)
		}
	}
	return out
}

// ParseSelectedStore resolves a store selector to an id; nil means all stores.
func ParseSelectedStore(raw string) (*uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, AllStores) {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func selectedStore(f ProductFilter) string {
	if !f.Viewer.IsAdmin() {
		return ""
	}
	s := strings.TrimSpace(f.SelectedStore)
	if strings.EqualFold(s, AllStores) {
		return ""
	}
	return s
}
