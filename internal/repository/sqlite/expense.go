package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/expense-tracker/internal/apperror"
	"github.com/sakif/expense-tracker/internal/model"
	"github.com/sakif/expense-tracker/internal/repository"
)

var _ repository.ExpenseRepository = (*ExpenseDB)(nil)

// ExpenseDB is the expenses table view of a DB.
//
// OWNERSHIP:
// Every statement filters on user_id as well as id. A record that exists but
// belongs to someone else matches zero rows and surfaces as NotFound, so the
// API never confirms that another user's ID is real.
type ExpenseDB struct {
	db *DB
}

// sqliteDialect binds dates and timestamps in their stored text forms.
var sqliteDialect = repository.Dialect{
	Placeholder: func(int) string { return "?" },
	DateValue:   func(d model.Date) any { return d.String() },
	TimeValue:   func(t time.Time) any { return formatTimestamp(t) },
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (*model.Expense, error) {
	var (
		e      model.Expense
		amount int64
		cat    string
		date   string
		notes  sql.NullString
	)
	if err := row.Scan(
		&e.ID,
		&e.UserID,
		&e.Title,
		&amount,
		&cat,
		&date,
		&notes,
		timestamp{&e.CreatedAt},
		timestamp{&e.UpdatedAt},
	); err != nil {
		return nil, err
	}

	d, err := model.ParseDate(date)
	if err != nil {
		return nil, fmt.Errorf("sqlite: stored expense %s: %w", e.ID, err)
	}

	e.Amount = model.Cents(amount)
	e.Category = model.Category(cat)
	e.Date = d
	if notes.Valid {
		e.Notes = &notes.String
	}
	return &e, nil
}

// Create inserts a new expense. created_at and updated_at start equal.
func (s *ExpenseDB) Create(ctx context.Context, e *model.Expense) error {
	ctx, cancel := s.db.withTimeout(ctx)
	defer cancel()

	e.ID = xid.New().String()
	e.CreatedAt = now()
	e.UpdatedAt = e.CreatedAt
	if e.Notes != nil && *e.Notes == "" {
		e.Notes = nil
	}

	_, err := s.db.conn.ExecContext(ctx,
		`INSERT INTO expenses (id, user_id, title, amount_cents, category, date, notes, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID,
		e.UserID,
		e.Title,
		int64(e.Amount),
		string(e.Category),
		e.Date.String(),
		repository.NotesValue(e.Notes),
		formatTimestamp(e.CreatedAt),
		formatTimestamp(e.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating expense: %w", err)
	}
	return nil
}

// Get returns one expense of userID.
func (s *ExpenseDB) Get(ctx context.Context, userID, id string) (*model.Expense, error) {
	ctx, cancel := s.db.withTimeout(ctx)
	defer cancel()

	e, err := scanExpense(s.db.conn.QueryRowContext(ctx,
		`SELECT `+repository.ExpenseColumns+`
		 FROM expenses WHERE id = ? AND user_id = ?`,
		id, userID,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("expense", id)
		}
		return nil, fmt.Errorf("sqlite: getting expense %s: %w", id, err)
	}
	return e, nil
}

// List returns a page of the owner's expenses matching filter.
func (s *ExpenseDB) List(ctx context.Context, userID string, filter model.ExpenseFilter) ([]model.Expense, error) {
	ctx, cancel := s.db.withTimeout(ctx)
	defer cancel()

	filter.Skip, filter.Limit = repository.NormalizePage(filter.Skip, filter.Limit)
	query, args := repository.ListExpensesQuery(sqliteDialect, userID, filter)

	rows, err := s.db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing expenses: %w", err)
	}
	defer rows.Close()

	expenses := make([]model.Expense, 0, min(filter.Limit, 64))
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning expense row: %w", err)
		}
		expenses = append(expenses, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating expenses: %w", err)
	}

	return expenses, nil
}

// Update applies patch and returns the updated record. The caller is
// expected to pass only fields that actually change.
func (s *ExpenseDB) Update(ctx context.Context, userID, id string, patch model.ExpensePatch) (*model.Expense, error) {
	if patch.IsEmpty() {
		return s.Get(ctx, userID, id)
	}

	ctx, cancel := s.db.withTimeout(ctx)
	defer cancel()

	query, args := repository.UpdateExpenseQuery(sqliteDialect, userID, id, patch, now())
	e, err := scanExpense(s.db.conn.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("expense", id)
		}
		return nil, fmt.Errorf("sqlite: updating expense %s: %w", id, err)
	}

	s.db.logger.Debug("expense updated", slog.String("expense_id", id))
	return e, nil
}

// Delete removes one expense of userID.
func (s *ExpenseDB) Delete(ctx context.Context, userID, id string) error {
	ctx, cancel := s.db.withTimeout(ctx)
	defer cancel()

	result, err := s.db.conn.ExecContext(ctx,
		`DELETE FROM expenses WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting expense %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("expense", id)
	}
	return nil
}

// SumByCategory aggregates in SQL; categories with no rows are absent.
// The upper bound is bound inclusively as to-1 day so the text comparison
// never sees a five-digit year.
func (s *ExpenseDB) SumByCategory(ctx context.Context, userID string, from, to model.Date) ([]model.CategoryTotal, error) {
	ctx, cancel := s.db.withTimeout(ctx)
	defer cancel()

	rows, err := s.db.conn.QueryContext(ctx,
		`SELECT category, SUM(amount_cents), COUNT(*)
		 FROM expenses
		 WHERE user_id = ? AND date >= ? AND date <= ?
		 GROUP BY category
		 ORDER BY category`,
		userID, from.String(), to.AddDays(-1).String(),
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: summing expenses: %w", err)
	}
	defer rows.Close()

	var totals []model.CategoryTotal
	for rows.Next() {
		var (
			cat   string
			total int64
			count int
		)
		if err := rows.Scan(&cat, &total, &count); err != nil {
			return nil, fmt.Errorf("sqlite: scanning category total: %w", err)
		}
		totals = append(totals, model.CategoryTotal{
			Category: model.Category(cat),
			Total:    model.Cents(total),
			Count:    count,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating category totals: %w", err)
	}

	return totals, nil
}
