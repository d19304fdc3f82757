package repository

import (
	"fmt"
	"strings"
	"time"

	"github.com/sakif/expense-tracker/internal/model"
)

// ExpenseColumns is the column list every expense SELECT and RETURNING uses,
// in the order the backends scan them.
const ExpenseColumns = "id, user_id, title, amount_cents, category, date, notes, created_at, updated_at"

// Dialect captures where the SQL backends differ for the dynamic expense
// queries: parameter markers and how dates and timestamps are bound.
type Dialect struct {
	// Placeholder returns the marker for the n-th argument (1-based).
	Placeholder func(n int) string
	// DateValue converts a calendar date to the driver argument for the date column.
	DateValue func(d model.Date) any
	// TimeValue converts a timestamp to the driver argument for updated_at.
	TimeValue func(t time.Time) any
}

// args accumulates query arguments and hands out matching placeholders.
type args struct {
	d    Dialect
	vals []any
}

func (a *args) add(v any) string {
	a.vals = append(a.vals, v)
	return a.d.Placeholder(len(a.vals))
}

// ListExpensesQuery builds the owner-scoped listing query for filter.
// EndDate is inclusive and bound as-is: SQLite compares dates as text, and
// end+1 day past 9999-12-31 would sort before every four-digit year.
// Skip and Limit are used as given; callers normalise them first.
func ListExpensesQuery(d Dialect, userID string, filter model.ExpenseFilter) (string, []any) {
	a := &args{d: d}

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(ExpenseColumns)
	b.WriteString(" FROM expenses WHERE user_id = ")
	b.WriteString(a.add(userID))

	if filter.Category != "" {
		b.WriteString(" AND category = ")
		b.WriteString(a.add(string(filter.Category)))
	}
	if !filter.StartDate.IsZero() {
		b.WriteString(" AND date >= ")
		b.WriteString(a.add(d.DateValue(filter.StartDate)))
	}
	if !filter.EndDate.IsZero() {
		b.WriteString(" AND date <= ")
		b.WriteString(a.add(d.DateValue(filter.EndDate)))
	}

	b.WriteString(" ORDER BY date DESC, created_at DESC, id DESC LIMIT ")
	b.WriteString(a.add(filter.Limit))
	b.WriteString(" OFFSET ")
	b.WriteString(a.add(filter.Skip))

	return b.String(), a.vals
}

// UpdateExpenseQuery builds an UPDATE that sets only the columns present in
// patch plus updated_at, scoped to the owner, returning the new row.
// An empty notes value is stored as NULL.
func UpdateExpenseQuery(d Dialect, userID, id string, patch model.ExpensePatch, now time.Time) (string, []any) {
	a := &args{d: d}

	var sets []string
	if patch.Title != nil {
		sets = append(sets, "title = "+a.add(*patch.Title))
	}
	if patch.Amount != nil {
		sets = append(sets, "amount_cents = "+a.add(int64(*patch.Amount)))
	}
	if patch.Category != nil {
		sets = append(sets, "category = "+a.add(string(*patch.Category)))
	}
	if patch.Date != nil {
		sets = append(sets, "date = "+a.add(d.DateValue(*patch.Date)))
	}
	if patch.Notes != nil {
		sets = append(sets, "notes = "+a.add(NullableString(*patch.Notes)))
	}
	sets = append(sets, "updated_at = "+a.add(d.TimeValue(now)))

	query := fmt.Sprintf("UPDATE expenses SET %s WHERE id = %s AND user_id = %s RETURNING %s",
		strings.Join(sets, ", "), a.add(id), a.add(userID), ExpenseColumns)
	return query, a.vals
}

// NullableString maps "" to a SQL NULL.
func NullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// NotesValue is the insert-side counterpart of NullableString for the
// optional notes pointer.
func NotesValue(notes *string) any {
	if notes == nil {
		return nil
	}
	return NullableString(*notes)
}
