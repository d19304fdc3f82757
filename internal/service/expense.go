// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces rules, orchestrates
//	Repository (Data layer)  → reads/writes to the database
//
// Services accept plain Go values, not *http.Request, so the same rules apply
// to the HTTP API and to cmd/adduser. They return apperror values and leave
// the mapping to status codes to the handler.
//
// DEPENDENCY INJECTION:
// ExpenseService takes a repository.ExpenseRepository (interface), not a
// concrete SQLite or Postgres type. Tests pass an in-memory fake; main.go
// passes whichever backend storage.Open selected.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/sakif/expense-tracker/internal/apperror"
	"github.com/sakif/expense-tracker/internal/model"
	"github.com/sakif/expense-tracker/internal/repository"
)

const (
	MaxTitleLength = 120
	MaxNotesLength = 500
)

// ExpenseService handles business logic for expenses. Every method takes the
// owner's user ID; the repository scopes every query by it.
type ExpenseService struct {
	repo   repository.ExpenseRepository
	logger *slog.Logger
}

func NewExpenseService(repo repository.ExpenseRepository, logger *slog.Logger) *ExpenseService {
	return &ExpenseService{
		repo:   repo,
		logger: logger,
	}
}

// NewExpense carries the fields of an expense to create. Notes may be empty.
type NewExpense struct {
	Title    string
	Amount   model.Cents
	Category model.Category
	Date     model.Date
	Notes    string
}

// Create validates and saves a new expense for ownerID.
func (s *ExpenseService) Create(ctx context.Context, ownerID string, in NewExpense) (*model.Expense, error) {
	title, err := validateTitle(in.Title)
	if err != nil {
		return nil, err
	}
	if err := validateAmount(in.Amount); err != nil {
		return nil, err
	}
	if err := validateCategory(in.Category); err != nil {
		return nil, err
	}
	if in.Date.IsZero() {
		return nil, apperror.ValidationFailed("date", "date is required")
	}
	notes, err := validateNotes(in.Notes)
	if err != nil {
		return nil, err
	}

	expense := &model.Expense{
		UserID:   ownerID,
		Title:    title,
		Amount:   in.Amount,
		Category: in.Category,
		Date:     in.Date,
	}
	if notes != "" {
		expense.Notes = &notes
	}

	if err := s.repo.Create(ctx, expense); err != nil {
		s.logger.Error("failed to create expense",
			slog.String("userID", ownerID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating expense: %w", err)
	}

	s.logger.Info("expense created",
		slog.String("id", expense.ID),
		slog.String("userID", ownerID),
	)
	return expense, nil
}

// Get returns one of ownerID's expenses. Someone else's expense is NotFound.
func (s *ExpenseService) Get(ctx context.Context, ownerID, id string) (*model.Expense, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "expense ID is required")
	}
	return s.repo.Get(ctx, ownerID, id)
}

// List returns ownerID's expenses matching filter, newest date first.
//
// Paging defaults: skip 0, limit 100; limit is clamped to 500.
func (s *ExpenseService) List(ctx context.Context, ownerID string, filter model.ExpenseFilter) ([]model.Expense, error) {
	if filter.Category != "" {
		if err := validateCategory(filter.Category); err != nil {
			return nil, err
		}
	}
	if !filter.StartDate.IsZero() && !filter.EndDate.IsZero() && filter.StartDate.After(filter.EndDate) {
		return nil, apperror.ValidationFailed("start_date", "start_date must not be after end_date")
	}
	filter.Skip, filter.Limit = repository.NormalizePage(filter.Skip, filter.Limit)

	expenses, err := s.repo.List(ctx, ownerID, filter)
	if err != nil {
		s.logger.Error("failed to list expenses",
			slog.String("userID", ownerID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing expenses: %w", err)
	}
	return expenses, nil
}

// Update applies a partial update to one of ownerID's expenses.
//
// STRATEGY: "Fetch, diff, then update"
//  1. Validate and normalise the fields that were sent
//  2. Fetch the stored record (NotFound for foreign or missing ids)
//  3. Drop every field equal to its stored value
//  4. If nothing is left, return the stored record untouched: updated_at
//     only moves when something actually changed
//  5. Otherwise write just the changed columns
func (s *ExpenseService) Update(ctx context.Context, ownerID, id string, patch model.ExpensePatch) (*model.Expense, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "expense ID is required")
	}

	patch, err := normalizePatch(patch)
	if err != nil {
		return nil, err
	}

	current, err := s.repo.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	changes := patch.Changes(current)
	if changes.IsEmpty() {
		return current, nil
	}

	updated, err := s.repo.Update(ctx, ownerID, id, changes)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, err
		}
		s.logger.Error("failed to update expense",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating expense: %w", err)
	}

	s.logger.Info("expense updated", slog.String("id", id), slog.String("userID", ownerID))
	return updated, nil
}

// Delete permanently removes one of ownerID's expenses.
func (s *ExpenseService) Delete(ctx context.Context, ownerID, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperror.ValidationFailed("id", "expense ID is required")
	}

	if err := s.repo.Delete(ctx, ownerID, id); err != nil {
		return err
	}

	s.logger.Info("expense deleted", slog.String("id", id), slog.String("userID", ownerID))
	return nil
}

// normalizePatch validates every field that is present and returns a copy
// with title and notes trimmed.
func normalizePatch(p model.ExpensePatch) (model.ExpensePatch, error) {
	if p.Title != nil {
		title, err := validateTitle(*p.Title)
		if err != nil {
			return p, err
		}
		p.Title = &title
	}
	if p.Amount != nil {
		if err := validateAmount(*p.Amount); err != nil {
			return p, err
		}
	}
	if p.Category != nil {
		if err := validateCategory(*p.Category); err != nil {
			return p, err
		}
	}
	if p.Date != nil && p.Date.IsZero() {
		return p, apperror.ValidationFailed("date", "date must be a valid YYYY-MM-DD date")
	}
	if p.Notes != nil {
		notes, err := validateNotes(*p.Notes)
		if err != nil {
			return p, err
		}
		p.Notes = &notes
	}
	return p, nil
}

func validateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", apperror.ValidationFailed("title", "title is required")
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return "", apperror.ValidationFailed("title",
			fmt.Sprintf("title must be %d characters or less", MaxTitleLength))
	}
	return title, nil
}

func validateAmount(amount model.Cents) error {
	if amount <= 0 {
		return apperror.ValidationFailed("amount", "amount must be greater than zero")
	}
	if amount > model.MaxAmount {
		return apperror.ValidationFailed("amount",
			fmt.Sprintf("amount must be %d or less", model.MaxAmount/100))
	}
	return nil
}

func validateCategory(c model.Category) error {
	if !c.Valid() {
		return apperror.ValidationFailed("category",
			fmt.Sprintf("category must be one of %s", categoryList()))
	}
	return nil
}

func validateNotes(notes string) (string, error) {
	notes = strings.TrimSpace(notes)
	if utf8.RuneCountInString(notes) > MaxNotesLength {
		return "", apperror.ValidationFailed("notes",
			fmt.Sprintf("notes must be %d characters or less", MaxNotesLength))
	}
	return notes, nil
}

func categoryList() string {
	names := make([]string, len(model.Categories))
	for i, c := range model.Categories {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}
