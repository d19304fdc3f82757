package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sakif/expense-tracker/internal/apperror"
	"github.com/sakif/expense-tracker/internal/model"
)

func seedExpense(t *testing.T, repo *fakeExpenseRepo, owner string, amount model.Cents, c model.Category, d model.Date) {
	t.Helper()
	err := repo.Create(context.Background(), &model.Expense{
		UserID: owner, Title: string(c), Amount: amount, Category: c, Date: d,
	})
	if err != nil {
		t.Fatalf("seeding expense: %v", err)
	}
}

func TestMonthly_March2025(t *testing.T) {
	repo := newFakeExpenseRepo()
	svc := NewReportService(repo, testLogger())

	seedExpense(t, repo, "alice", 10000, model.CategoryFood, model.NewDate(2025, time.March, 1))
	seedExpense(t, repo, "alice", 5000, model.CategoryFood, model.NewDate(2025, time.March, 31))
	seedExpense(t, repo, "alice", 20000, model.CategoryTravel, model.NewDate(2025, time.March, 15))
	// outside the window or owned by someone else
	seedExpense(t, repo, "alice", 7000, model.CategoryBills, model.NewDate(2025, time.April, 1))
	seedExpense(t, repo, "alice", 7000, model.CategoryBills, model.NewDate(2025, time.February, 28))
	seedExpense(t, repo, "bob", 9900, model.CategoryFood, model.NewDate(2025, time.March, 10))

	report, err := svc.Monthly(context.Background(), "alice", 2025, 3)
	if err != nil {
		t.Fatalf("Monthly() error = %v", err)
	}

	if report.Year != 2025 || report.Month != 3 {
		t.Errorf("period = %d-%d, want 2025-3", report.Year, report.Month)
	}
	if report.Total != 35000 {
		t.Errorf("Total = %d, want 35000", report.Total)
	}
	if report.Count != 3 {
		t.Errorf("Count = %d, want 3", report.Count)
	}
	want := map[model.Category]model.Cents{
		model.CategoryFood:   15000,
		model.CategoryTravel: 20000,
	}
	if len(report.ByCategory) != len(want) {
		t.Errorf("ByCategory = %v, want %v", report.ByCategory, want)
	}
	for c, total := range want {
		if report.ByCategory[c] != total {
			t.Errorf("ByCategory[%s] = %d, want %d", c, report.ByCategory[c], total)
		}
	}
}

func TestMonthly_DecemberRollsOver(t *testing.T) {
	repo := newFakeExpenseRepo()
	svc := NewReportService(repo, testLogger())

	seedExpense(t, repo, "alice", 1000, model.CategoryShopping, model.NewDate(2024, time.December, 31))
	seedExpense(t, repo, "alice", 2000, model.CategoryShopping, model.NewDate(2025, time.January, 1))

	report, err := svc.Monthly(context.Background(), "alice", 2024, 12)
	if err != nil {
		t.Fatalf("Monthly() error = %v", err)
	}
	if report.Total != 1000 || report.Count != 1 {
		t.Errorf("Total=%d Count=%d, want 1000 and 1", report.Total, report.Count)
	}
}

func TestMonthly_EmptyMonth(t *testing.T) {
	svc := NewReportService(newFakeExpenseRepo(), testLogger())

	report, err := svc.Monthly(context.Background(), "alice", 2025, 6)
	if err != nil {
		t.Fatalf("Monthly() error = %v", err)
	}
	if report.Total != 0 || report.Count != 0 {
		t.Errorf("Total=%d Count=%d, want zeros", report.Total, report.Count)
	}
	if report.ByCategory == nil || len(report.ByCategory) != 0 {
		t.Errorf("ByCategory = %v, want an empty non-nil map", report.ByCategory)
	}
}

func TestMonthly_Validation(t *testing.T) {
	svc := NewReportService(newFakeExpenseRepo(), testLogger())

	tests := []struct {
		name        string
		year, month int
		wantField   string
	}{
		{name: "year too early", year: 1969, month: 1, wantField: "year"},
		{name: "year too late", year: 10000, month: 1, wantField: "year"},
		{name: "month zero", year: 2025, month: 0, wantField: "month"},
		{name: "month thirteen", year: 2025, month: 13, wantField: "month"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Monthly(context.Background(), "alice", tt.year, tt.month)
			var appErr *apperror.AppError
			if !errors.As(err, &appErr) || !errors.Is(err, apperror.ErrValidation) {
				t.Fatalf("Monthly() error = %v, want ErrValidation", err)
			}
			if appErr.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", appErr.Field, tt.wantField)
			}
		})
	}
}

func TestMonthly_RepositoryError(t *testing.T) {
	repo := newFakeExpenseRepo()
	repo.sumErr = errors.New("database is locked")
	svc := NewReportService(repo, testLogger())

	if _, err := svc.Monthly(context.Background(), "alice", 2025, 3); err == nil {
		t.Fatal("Monthly() should propagate repository errors")
	}
}
