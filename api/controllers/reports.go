package controllers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/angelmondragon/storepos-backend/api/responses"
	"github.com/angelmondragon/storepos-backend/api/validators"
	"github.com/angelmondragon/storepos-backend/internal/reports"
	"github.com/angelmondragon/storepos-backend/pkg/logger"
)

// reportRequest reads ?from=&to=&store=. to is inclusive of the whole day.
func reportRequest(r *http.Request) (reports.SummaryRequest, error) {
	from, err := validators.ParseQueryDate(r, "from", false)
	if err != nil {
		return reports.SummaryRequest{}, err
	}
	to, err := validators.ParseQueryDate(r, "to", true)
	if err != nil {
		return reports.SummaryRequest{}, err
	}
	req := reports.SummaryRequest{SelectedStore: validators.SanitizeString(r.URL.Query().Get("store"), 64)}
	if from != nil {
		req.From = *from
	}
	if to != nil {
		req.To = *to
	}
	return req, nil
}

func ReportSummary(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "report")
			return
		}
		viewer, ok := requireViewer(w, r, logg)
		if !ok {
			return
		}
		req, err := reportRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		summary, err := svc.Summary(r.Context(), viewer, req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

// ReportExportCSV downloads the invoices in range as sales_report_<date>.csv.
func ReportExportCSV(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "report")
			return
		}
		viewer, ok := requireViewer(w, r, logg)
		if !ok {
			return
		}
		req, err := reportRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		// buffered so a failure still produces a JSON error
		var buf bytes.Buffer
		if err := svc.ExportCSV(r.Context(), viewer, req, &buf); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filename := fmt.Sprintf("sales_report_%s.csv", time.Now().UTC().Format(time.DateOnly))
		responses.WriteAttachment(r.Context(), logg, w, "text/csv; charset=utf-8", filename, func(w http.ResponseWriter) error {
			_, err := buf.WriteTo(w)
			return err
		})
	}
}
