package reports

import (
	"time"

	product "github.com/angelmondragon/storepos-backend/internal/products"
)

// SummaryRequest selects the invoices a report covers. Zero times fall back
// to the last DefaultWindow ending now.
type SummaryRequest struct {
	From          time.Time
	To            time.Time
	SelectedStore string
}

// LabelValue is a top-N entry such as a product or category.
type LabelValue struct {
	Label    string `json:"label"`
	Quantity int    `json:"quantity"`
	Revenue  string `json:"revenue"`
}

// MonthPoint aggregates one calendar month, keyed "2006-01".
type MonthPoint struct {
	Month        string `json:"month"`
	Revenue      string `json:"revenue"`
	Transactions int    `json:"transactions"`
}

// Summary wraps the KPIs shown on the reports page.
type Summary struct {
	From               time.Time            `json:"from"`
	To                 time.Time            `json:"to"`
	TotalRevenue       string               `json:"total_revenue"`
	TransactionCount   int                  `json:"transaction_count"`
	AverageTransaction string               `json:"average_transaction"`
	ItemsSold          int                  `json:"items_sold"`
	TopProducts        []LabelValue         `json:"top_products"`
	SalesByCategory    []LabelValue         `json:"sales_by_category"`
	MonthlySales       []MonthPoint         `json:"monthly_sales"`
	LowStock           []product.ProductDTO `json:"low_stock"`
}
