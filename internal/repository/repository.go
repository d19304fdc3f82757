// Package repository declares the storage contracts the service layer
// depends on. Implementations live in the sqlite and postgres subpackages.
//
// Every expense operation takes the owner's user ID and treats a record
// owned by someone else exactly like a missing one: apperror.NotFound.
package repository

import (
	"context"

	"github.com/sakif/expense-tracker/internal/model"
)

const (
	DefaultListLimit = 100
	MaxListLimit     = 500
)

type UserRepository interface {
	// Create assigns ID and CreatedAt. A taken email yields apperror.Conflict.
	Create(ctx context.Context, user *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
}

type ExpenseRepository interface {
	// Create assigns ID, CreatedAt and UpdatedAt.
	Create(ctx context.Context, expense *model.Expense) error
	Get(ctx context.Context, userID, id string) (*model.Expense, error)
	// List returns the owner's expenses newest date first.
	List(ctx context.Context, userID string, filter model.ExpenseFilter) ([]model.Expense, error)
	// Update applies a non-empty patch, bumps UpdatedAt and returns the stored record.
	Update(ctx context.Context, userID, id string, patch model.ExpensePatch) (*model.Expense, error)
	Delete(ctx context.Context, userID, id string) error
	// SumByCategory totals the owner's expenses with from <= date < to.
	SumByCategory(ctx context.Context, userID string, from, to model.Date) ([]model.CategoryTotal, error)
}

// NormalizePage applies the listing defaults: skip below zero becomes zero,
// a non-positive limit becomes DefaultListLimit and anything above
// MaxListLimit is clamped.
func NormalizePage(skip, limit int) (int, int) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	return skip, limit
}
