package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sakif/expense-tracker/internal/apperror"
	"github.com/sakif/expense-tracker/internal/model"
	"github.com/sakif/expense-tracker/internal/repository"
)

const (
	MinReportYear = 1970
	MaxReportYear = 9999
)

// ReportService builds spending summaries from the expense store.
type ReportService struct {
	repo   repository.ExpenseRepository
	logger *slog.Logger
}

func NewReportService(repo repository.ExpenseRepository, logger *slog.Logger) *ReportService {
	return &ReportService{
		repo:   repo,
		logger: logger,
	}
}

// Monthly totals ownerID's expenses dated within the given calendar month.
//
// The window is [first of month, first of next month); December rolls into
// January of the next year. Categories with no expenses are left out of
// ByCategory rather than reported as zero.
func (s *ReportService) Monthly(ctx context.Context, ownerID string, year, month int) (*model.MonthlyReport, error) {
	if year < MinReportYear || year > MaxReportYear {
		return nil, apperror.ValidationFailed("year",
			fmt.Sprintf("year must be between %d and %d", MinReportYear, MaxReportYear))
	}
	if month < 1 || month > 12 {
		return nil, apperror.ValidationFailed("month", "month must be between 1 and 12")
	}

	from := model.NewDate(year, time.Month(month), 1)
	to := from.AddMonths(1)

	totals, err := s.repo.SumByCategory(ctx, ownerID, from, to)
	if err != nil {
		s.logger.Error("failed to aggregate expenses",
			slog.String("userID", ownerID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("building monthly report: %w", err)
	}

	report := &model.MonthlyReport{
		Year:       year,
		Month:      month,
		ByCategory: make(map[model.Category]model.Cents, len(totals)),
	}
	for _, t := range totals {
		report.ByCategory[t.Category] += t.Total
		report.Total += t.Total
		report.Count += t.Count
	}
	return report, nil
}
