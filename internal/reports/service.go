// Package reports aggregates stored invoices into sales summaries and exports.
package reports

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storepos-backend/internal/catalog"
	"github.com/angelmondragon/storepos-backend/internal/invoices"
	"github.com/angelmondragon/storepos-backend/internal/order"
	product "github.com/angelmondragon/storepos-backend/internal/products"
	"github.com/angelmondragon/storepos-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storepos-backend/pkg/errors"
)

const (
	// DefaultWindow is the report range when none is given.
	DefaultWindow = 30 * 24 * time.Hour
	topN          = 5
	monthLayout   = "2006-01"
)

type invoiceLister interface {
	List(ctx context.Context, q invoices.Query) ([]models.Invoice, error)
}

type lowStockLister interface {
	LowStock(ctx context.Context, viewer catalog.Viewer) ([]product.ProductDTO, error)
}

type Service interface {
	Summary(ctx context.Context, viewer catalog.Viewer, req SummaryRequest) (*Summary, error)
	ExportCSV(ctx context.Context, viewer catalog.Viewer, req SummaryRequest, w io.Writer) error
}

type service struct {
	invoices invoiceLister
	products lowStockLister
	now      func() time.Time
}

func NewService(invoiceRepo invoiceLister, products lowStockLister, now func() time.Time) (Service, error) {
	if invoiceRepo == nil {
		return nil, fmt.Errorf("invoice repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product service required")
	}
	if now == nil {
		now = time.Now
	}
	return &service{invoices: invoiceRepo, products: products, now: now}, nil
}

func (s *service) Summary(ctx context.Context, viewer catalog.Viewer, req SummaryRequest) (*Summary, error) {
	req, rows, err := s.load(ctx, viewer, req)
	if err != nil {
		return nil, err
	}
	low, err := s.products.LowStock(ctx, viewer)
	if err != nil {
		return nil, err
	}

	summary := aggregate(rows)
	summary.From = req.From
	summary.To = req.To
	summary.LowStock = low
	return summary, nil
}

func (s *service) load(ctx context.Context, viewer catalog.Viewer, req SummaryRequest) (SummaryRequest, []models.Invoice, error) {
	if req.To.IsZero() {
		req.To = s.now().UTC()
	}
	if req.From.IsZero() {
		req.From = req.To.Add(-DefaultWindow)
	}
	if !req.From.Before(req.To) {
		return req, nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid report range").
			WithDetails(map[string]string{"from": "must be before to"})
	}
	storeID, err := invoices.ScopeFor(viewer, req.SelectedStore)
	if err != nil {
		return req, nil, err
	}

	rows, err := s.invoices.List(ctx, invoices.Query{StoreID: storeID, From: &req.From, To: &req.To})
	if err != nil {
		return req, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load invoices")
	}
	return req, catalog.FilterInvoices(rows, viewer), nil
}

type bucket struct {
	label    string
	quantity int
	revenue  decimal.Decimal
}

// aggregate sums exact stored amounts and rounds only when rendering.
func aggregate(rows []models.Invoice) *Summary {
	revenue := decimal.Zero
	itemsSold := 0
	byProduct := map[string]*bucket{}
	byCategory := map[string]*bucket{}
	byMonth := map[string]*MonthPoint{}
	monthRevenue := map[string]decimal.Decimal{}

	for _, inv := range rows {
		revenue = revenue.Add(inv.Total)
		month := inv.CreatedAt.UTC().Format(monthLayout)
		if byMonth[month] == nil {
			byMonth[month] = &MonthPoint{Month: month}
		}
		byMonth[month].Transactions++
		monthRevenue[month] = monthRevenue[month].Add(inv.Total)

		for _, line := range inv.Lines {
			itemsSold += line.Quantity
			add(byProduct, line.Name, line.Quantity, line.LineTotal())
			category := line.Category
			if category == "" {
				category = "Uncategorized"
			}
			add(byCategory, category, line.Quantity, line.LineTotal())
		}
	}

	average := decimal.Zero
	if len(rows) > 0 {
		average = revenue.Div(decimal.NewFromInt(int64(len(rows))))
	}

	months := make([]MonthPoint, 0, len(byMonth))
	for key, point := range byMonth {
		point.Revenue = order.Money(monthRevenue[key])
		months = append(months, *point)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Month < months[j].Month })

	return &Summary{
		TotalRevenue:       order.Money(revenue),
		TransactionCount:   len(rows),
		AverageTransaction: order.Money(average),
		ItemsSold:          itemsSold,
		TopProducts:        ranked(byProduct, topN),
		SalesByCategory:    ranked(byCategory, 0),
		MonthlySales:       months,
	}
}

func add(into map[string]*bucket, label string, qty int, amount decimal.Decimal) {
	b := into[label]
	if b == nil {
		b = &bucket{label: label, revenue: decimal.Zero}
		into[label] = b
	}
	b.quantity += qty
	b.revenue = b.revenue.Add(amount)
}

// ranked orders buckets by revenue, then label. limit <= 0 keeps all.
func ranked(buckets map[string]*bucket, limit int) []LabelValue {
	list := make([]*bucket, 0, len(buckets))
	for _, b := range buckets {
		list = append(list, b)
	}
	sort.Slice(list, func(i, j int) bool {
		if c := list[i].revenue.Cmp(list[j].revenue); c != 0 {
			return c > 0
		}
		return list[i].label < list[j].label
	})
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	out := make([]LabelValue, 0, len(list))
	for _, b := range list {
		out = append(out, LabelValue{Label: b.label, Quantity: b.quantity, Revenue: order.Money(b.revenue)})
	}
	return out
}
