package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sakif/expense-tracker/internal/model"
)

var (
	questionMarks = Dialect{
		Placeholder: func(int) string { return "?" },
		DateValue:   func(d model.Date) any { return d.String() },
		TimeValue:   func(t time.Time) any { return t.Format(time.RFC3339) },
	}
	dollarNumbers = Dialect{
		Placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
		DateValue:   func(d model.Date) any { return d.Time() },
		TimeValue:   func(t time.Time) any { return t },
	}
)

func TestListExpensesQuery(t *testing.T) {
	t.Run("owner only", func(t *testing.T) {
		q, args := ListExpensesQuery(questionMarks, "u1", model.ExpenseFilter{Limit: 100})

		assert.Equal(t,
			"SELECT "+ExpenseColumns+" FROM expenses WHERE user_id = ? ORDER BY date DESC, created_at DESC, id DESC LIMIT ? OFFSET ?",
			q)
		assert.Equal(t, []any{"u1", 100, 0}, args)
	})

	t.Run("all filters with numbered placeholders", func(t *testing.T) {
		start := model.NewDate(2024, time.January, 1)
		end := model.NewDate(2024, time.January, 31)
		q, args := ListExpensesQuery(dollarNumbers, "u1", model.ExpenseFilter{
			Category:  model.CategoryFood,
			StartDate: start,
			EndDate:   end,
			Skip:      10,
			Limit:     5,
		})

		assert.Equal(t,
			"SELECT "+ExpenseColumns+" FROM expenses WHERE user_id = $1 AND category = $2 AND date >= $3 AND date <= $4 ORDER BY date DESC, created_at DESC, id DESC LIMIT $5 OFFSET $6",
			q)
		assert.Equal(t, []any{
			"u1",
			"Food",
			start.Time(),
			end.Time(),
			5,
			10,
		}, args)
	})

	t.Run("single day window", func(t *testing.T) {
		day := model.NewDate(2024, time.March, 15)
		_, args := ListExpensesQuery(questionMarks, "u1", model.ExpenseFilter{StartDate: day, EndDate: day, Limit: 1})
		assert.Equal(t, []any{"u1", "2024-03-15", "2024-03-15", 1, 0}, args)
	})
}

func TestUpdateExpenseQuery(t *testing.T) {
	now := time.Date(2024, time.April, 2, 9, 0, 0, 0, time.UTC)
	title := "Groceries"
	amount := model.Cents(4250)
	empty := ""

	q, args := UpdateExpenseQuery(dollarNumbers, "u1", "e1", model.ExpensePatch{
		Title:  &title,
		Amount: &amount,
		Notes:  &empty,
	}, now)

	assert.Equal(t,
		"UPDATE expenses SET title = $1, amount_cents = $2, notes = $3, updated_at = $4 WHERE id = $5 AND user_id = $6 RETURNING "+ExpenseColumns,
		q)
	assert.Equal(t, []any{"Groceries", int64(4250), nil, now, "e1", "u1"}, args)
}

func TestNormalizePage(t *testing.T) {
	tests := []struct {
		skip, limit         int
		wantSkip, wantLimit int
	}{
		{0, 0, 0, DefaultListLimit},
		{-3, 20, 0, 20},
		{5, 10_000, 5, MaxListLimit},
		{1, MaxListLimit, 1, MaxListLimit},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("skip=%d,limit=%d", tt.skip, tt.limit), func(t *testing.T) {
			skip, limit := NormalizePage(tt.skip, tt.limit)
			assert.Equal(t, tt.wantSkip, skip)
			assert.Equal(t, tt.wantLimit, limit)
		})
	}
}
