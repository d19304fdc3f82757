package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/sakif/expense-tracker/internal/apperror"
	"github.com/sakif/expense-tracker/internal/model"
	"github.com/sakif/expense-tracker/internal/repository"
)

// =========================================================================
// FAKE REPOSITORIES
// =========================================================================
//
// Hand-written in-memory implementations of the repository interfaces.
// They follow the same contracts as the SQL stores (owner scoping, NotFound
// for foreign rows, Conflict on duplicate email) so service rules can be
// tested without a database.

type fakeUserRepo struct {
	byID   map[string]*model.User
	nextID int
	// set to a non-nil error to simulate a database failure
	createErr  error
	getByIDErr error
}

var _ repository.UserRepository = (*fakeUserRepo)(nil)

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byID: make(map[string]*model.User)}
}

func (f *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	for _, u := range f.byID {
		if u.Email == user.Email {
			return apperror.Conflict("user", "email")
		}
	}
	f.nextID++
	user.ID = fmt.Sprintf("user-%d", f.nextID)
	user.CreatedAt = time.Now().UTC()
	stored := *user
	f.byID[user.ID] = &stored
	return nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range f.byID {
		if u.Email == email {
			result := *u
			return &result, nil
		}
	}
	return nil, apperror.NotFound("user", email)
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if f.getByIDErr != nil {
		return nil, f.getByIDErr
	}
	u, ok := f.byID[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	result := *u
	return &result, nil
}

type fakeExpenseRepo struct {
	expenses map[string]*model.Expense
	nextID   int
	clock    time.Time
	// recorded calls, so tests can assert what reached the store
	updateCalls int
	lastFilter  model.ExpenseFilter
	// set to a non-nil error to simulate a database failure
	listErr error
	sumErr  error
}

var _ repository.ExpenseRepository = (*fakeExpenseRepo)(nil)

func newFakeExpenseRepo() *fakeExpenseRepo {
	return &fakeExpenseRepo{
		expenses: make(map[string]*model.Expense),
		clock:    time.Date(2025, time.March, 1, 9, 0, 0, 0, time.UTC),
	}
}

// tick advances the fake clock so successive writes get distinct timestamps.
func (f *fakeExpenseRepo) tick() time.Time {
	f.clock = f.clock.Add(time.Second)
	return f.clock
}

func (f *fakeExpenseRepo) Create(_ context.Context, e *model.Expense) error {
	f.nextID++
	e.ID = fmt.Sprintf("exp-%d", f.nextID)
	e.CreatedAt = f.tick()
	e.UpdatedAt = e.CreatedAt
	stored := *e
	f.expenses[e.ID] = &stored
	return nil
}

func (f *fakeExpenseRepo) Get(_ context.Context, userID, id string) (*model.Expense, error) {
	e, ok := f.expenses[id]
	if !ok || e.UserID != userID {
		return nil, apperror.NotFound("expense", id)
	}
	result := *e
	return &result, nil
}

func (f *fakeExpenseRepo) List(_ context.Context, userID string, filter model.ExpenseFilter) ([]model.Expense, error) {
	f.lastFilter = filter
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []model.Expense
	for _, e := range f.expenses {
		if e.UserID != userID {
			continue
		}
		if filter.Category != "" && e.Category != filter.Category {
			continue
		}
		if !filter.StartDate.IsZero() && e.Date.Before(filter.StartDate) {
			continue
		}
		if !filter.EndDate.IsZero() && e.Date.After(filter.EndDate) {
			continue
		}
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if filter.Skip >= len(out) {
		return []model.Expense{}, nil
	}
	out = out[filter.Skip:]
	if filter.Limit > 0 && filter.Limit < len(out) {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (f *fakeExpenseRepo) Update(_ context.Context, userID, id string, patch model.ExpensePatch) (*model.Expense, error) {
	f.updateCalls++
	e, ok := f.expenses[id]
	if !ok || e.UserID != userID {
		return nil, apperror.NotFound("expense", id)
	}
	patch.Apply(e)
	e.UpdatedAt = f.tick()
	result := *e
	return &result, nil
}

func (f *fakeExpenseRepo) Delete(_ context.Context, userID, id string) error {
	e, ok := f.expenses[id]
	if !ok || e.UserID != userID {
		return apperror.NotFound("expense", id)
	}
	delete(f.expenses, id)
	return nil
}

func (f *fakeExpenseRepo) SumByCategory(_ context.Context, userID string, from, to model.Date) ([]model.CategoryTotal, error) {
	if f.sumErr != nil {
		return nil, f.sumErr
	}
	sums := make(map[model.Category]*model.CategoryTotal)
	for _, e := range f.expenses {
		if e.UserID != userID || e.Date.Before(from) || !e.Date.Before(to) {
			continue
		}
		ct, ok := sums[e.Category]
		if !ok {
			ct = &model.CategoryTotal{Category: e.Category}
			sums[e.Category] = ct
		}
		ct.Total += e.Amount
		ct.Count++
	}
	out := make([]model.CategoryTotal, 0, len(sums))
	for _, ct := range sums {
		out = append(out, *ct)
	}
	return out, nil
}

// =========================================================================
// HELPERS
// =========================================================================

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func ptr[T any](v T) *T { return &v }
