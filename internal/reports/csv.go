package reports

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/angelmondragon/storepos-backend/internal/catalog"
	"github.com/angelmondragon/storepos-backend/internal/order"
	pkgerrors "github.com/angelmondragon/storepos-backend/pkg/errors"
)

// CSVHeader is the column row of the invoice export.
var CSVHeader = []string{"Invoice ID", "Date", "Total", "Items Count", "Store"}

// ExportCSV writes one row per invoice in range, newest first. Items Count is
// the number of distinct lines on the invoice.
func (s *service) ExportCSV(ctx context.Context, viewer catalog.Viewer, req SummaryRequest, w io.Writer) error {
	_, rows, err := s.load(ctx, viewer, req)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write csv header")
	}
	for _, inv := range rows {
		record := []string{
			inv.ID,
			inv.CreatedAt.UTC().Format(time.DateOnly),
			order.Money(inv.Total),
			strconv.Itoa(len(inv.Lines)),
			inv.StoreName,
		}
		if err := cw.Write(record); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write csv row")
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "flush csv")
	}
	return nil
}
