package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/xid"

	"github.com/sakif/expense-tracker/internal/apperror"
	"github.com/sakif/expense-tracker/internal/model"
	"github.com/sakif/expense-tracker/internal/repository"
)

var _ repository.ExpenseRepository = (*ExpenseRepository)(nil)

// pgDialect uses numbered parameters and binds dates as time.Time for the
// DATE column.
var pgDialect = repository.Dialect{
	Placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
	DateValue:   func(d model.Date) any { return d.Time() },
	TimeValue:   func(t time.Time) any { return t },
}

type ExpenseRepository struct {
	db *Connection
}

func scanExpense(row pgx.Row) (*model.Expense, error) {
	var (
		e      model.Expense
		amount int64
		cat    string
		date   time.Time
	)
	if err := row.Scan(
		&e.ID, &e.UserID, &e.Title, &amount, &cat, &date, &e.Notes, &e.CreatedAt, &e.UpdatedAt,
	); err != nil {
		return nil, err
	}
	e.Amount = model.Cents(amount)
	e.Category = model.Category(cat)
	e.Date = model.DateOf(date)
	e.CreatedAt = e.CreatedAt.UTC()
	e.UpdatedAt = e.UpdatedAt.UTC()
	return &e, nil
}

func (r *ExpenseRepository) Create(ctx context.Context, e *model.Expense) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	e.ID = xid.New().String()
	e.CreatedAt = now()
	e.UpdatedAt = e.CreatedAt
	if e.Notes != nil && *e.Notes == "" {
		e.Notes = nil
	}

	query := `INSERT INTO expenses (id, user_id, title, amount_cents, category, date, notes, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.Exec(ctx, query,
		e.ID, e.UserID, e.Title, int64(e.Amount), string(e.Category),
		e.Date.Time(), repository.NotesValue(e.Notes), e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: creating expense: %w", err)
	}
	return nil
}

func (r *ExpenseRepository) Get(ctx context.Context, userID, id string) (*model.Expense, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	query := `SELECT ` + repository.ExpenseColumns + `
			  FROM expenses WHERE id = $1 AND user_id = $2`

	e, err := scanExpense(r.db.QueryRow(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("expense", id)
		}
		return nil, fmt.Errorf("postgres: getting expense %s: %w", id, err)
	}
	return e, nil
}

func (r *ExpenseRepository) List(ctx context.Context, userID string, filter model.ExpenseFilter) ([]model.Expense, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	filter.Skip, filter.Limit = repository.NormalizePage(filter.Skip, filter.Limit)
	query, args := repository.ListExpensesQuery(pgDialect, userID, filter)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing expenses: %w", err)
	}
	defer rows.Close()

	expenses := make([]model.Expense, 0, min(filter.Limit, 64))
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scanning expense row: %w", err)
		}
		expenses = append(expenses, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterating expenses: %w", err)
	}
	return expenses, nil
}

func (r *ExpenseRepository) Update(ctx context.Context, userID, id string, patch model.ExpensePatch) (*model.Expense, error) {
	if patch.IsEmpty() {
		return r.Get(ctx, userID, id)
	}

	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	query, args := repository.UpdateExpenseQuery(pgDialect, userID, id, patch, now())
	e, err := scanExpense(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("expense", id)
		}
		return nil, fmt.Errorf("postgres: updating expense %s: %w", id, err)
	}

	r.db.logger.Debug("expense updated", slog.String("expense_id", id))
	return e, nil
}

func (r *ExpenseRepository) Delete(ctx context.Context, userID, id string) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	tag, err := r.db.Exec(ctx, `DELETE FROM expenses WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("postgres: deleting expense %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("expense", id)
	}
	return nil
}

func (r *ExpenseRepository) SumByCategory(ctx context.Context, userID string, from, to model.Date) ([]model.CategoryTotal, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	query := `SELECT category, SUM(amount_cents)::BIGINT, COUNT(*)
			  FROM expenses
			  WHERE user_id = $1 AND date >= $2 AND date < $3
			  GROUP BY category
			  ORDER BY category`

	rows, err := r.db.Query(ctx, query, userID, from.Time(), to.Time())
	if err != nil {
		return nil, fmt.Errorf("postgres: summing expenses: %w", err)
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
			return nil, fmt.Errorf("postgres: scanning category total: %w", err)
		}
		totals = append(totals, model.CategoryTotal{
			Category: model.Category(cat),
			Total:    model.Cents(total),
			Count:    count,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterating category totals: %w", err)
	}
	return totals, nil
}
