package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sakif/expense-tracker/internal/apperror"
	"github.com/sakif/expense-tracker/internal/model"
)

// Reporter is the slice of service.ReportService the report route needs.
type Reporter interface {
	Monthly(ctx context.Context, ownerID string, year, month int) (*model.MonthlyReport, error)
}

type ReportHandler struct {
	reports Reporter
	logger  *slog.Logger
}

func NewReportHandler(reports Reporter, logger *slog.Logger) *ReportHandler {
	return &ReportHandler{reports: reports, logger: logger}
}

// HandleMonthly returns per-category totals for one calendar month.
//
// HTTP: GET /reports/monthly?year=2025&month=3
//
// RESPONSE FORMAT:
//
//	{"year": 2025, "month": 3, "total": 350, "byCategory": {"Food": 150, "Travel": 200}, "count": 3}
func (h *ReportHandler) HandleMonthly(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}

	q := r.URL.Query()
	if q.Get("year") == "" {
		writeError(w, apperror.ValidationFailed("year", "year is required"))
		return
	}
	if q.Get("month") == "" {
		writeError(w, apperror.ValidationFailed("month", "month is required"))
		return
	}
	year, err := queryInt(q.Get("year"), "year")
	if err != nil {
		writeError(w, err)
		return
	}
	month, err := queryInt(q.Get("month"), "month")
	if err != nil {
		writeError(w, err)
		return
	}

	report, err := h.reports.Monthly(r.Context(), user.ID, year, month)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
