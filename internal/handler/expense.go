package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/sakif/expense-tracker/internal/apperror"
	"github.com/sakif/expense-tracker/internal/model"
	"github.com/sakif/expense-tracker/internal/service"
)

// ExpenseManager is the slice of service.ExpenseService the expense routes need.
type ExpenseManager interface {
	Create(ctx context.Context, ownerID string, in service.NewExpense) (*model.Expense, error)
	Get(ctx context.Context, ownerID, id string) (*model.Expense, error)
	List(ctx context.Context, ownerID string, filter model.ExpenseFilter) ([]model.Expense, error)
	Update(ctx context.Context, ownerID, id string, patch model.ExpensePatch) (*model.Expense, error)
	Delete(ctx context.Context, ownerID, id string) error
}

// ExpenseHandler serves CRUD for the authenticated user's expenses. Every
// call passes the resolved user's ID down; the handler never trusts an owner
// ID from the request.
type ExpenseHandler struct {
	expenses ExpenseManager
	validate *validator.Validate
	logger   *slog.Logger
}

func NewExpenseHandler(expenses ExpenseManager, logger *slog.Logger) *ExpenseHandler {
	return &ExpenseHandler{
		expenses: expenses,
		validate: newValidator(),
		logger:   logger,
	}
}

// Title and notes lengths are checked by the service after trimming.
type createExpenseRequest struct {
	Title    string         `json:"title" validate:"required"`
	Amount   *model.Cents   `json:"amount" validate:"required,gt=0"`
	Category model.Category `json:"category" validate:"required,oneof=Food Travel Bills Shopping Others"`
	Date     *model.Date    `json:"date" validate:"required"`
	Notes    *string        `json:"notes"`
}

// updateExpenseRequest uses pointers throughout: a missing key decodes to
// nil and leaves the stored field untouched.
type updateExpenseRequest struct {
	Title    *string         `json:"title"`
	Amount   *model.Cents    `json:"amount" validate:"omitempty,gt=0"`
	Category *model.Category `json:"category" validate:"omitempty,oneof=Food Travel Bills Shopping Others"`
	Date     *model.Date     `json:"date"`
	Notes    *string         `json:"notes"`
}

// HandleCreate records a new expense.
//
// HTTP: POST /expenses
// REQUEST BODY: {"title": "Lunch", "amount": 12.5, "category": "Food", "date": "2025-03-05", "notes": null}
func (h *ExpenseHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req createExpenseRequest
	if err := decodeJSON(r, h.validate, &req); err != nil {
		writeError(w, err)
		return
	}

	in := service.NewExpense{
		Title:    req.Title,
		Amount:   *req.Amount,
		Category: req.Category,
		Date:     *req.Date,
	}
	if req.Notes != nil {
		in.Notes = *req.Notes
	}

	expense, err := h.expenses.Create(r.Context(), user.ID, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, expense)
}

// HandleList returns the user's expenses, newest date first.
//
// HTTP: GET /expenses?category=Food&start_date=2025-03-01&end_date=2025-03-31&skip=0&limit=100
//
// end_date is inclusive. Every parameter is optional.
func (h *ExpenseHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}

	filter, err := parseExpenseFilter(r)
	if err != nil {
		writeError(w, err)
		return
	}

	expenses, err := h.expenses.List(r.Context(), user.ID, filter)
	if err != nil {
		writeError(w, err)
		return
	}
	if expenses == nil {
		expenses = []model.Expense{}
	}
	writeJSON(w, http.StatusOK, expenses)
}

// HandleGet returns one expense.
//
// HTTP: GET /expenses/{id}
func (h *ExpenseHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}

	expense, err := h.expenses.Get(r.Context(), user.ID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, expense)
}

// HandleUpdate applies a partial update. Keys left out of the body keep
// their stored values; "notes": "" clears the notes.
//
// HTTP: PUT /expenses/{id}
func (h *ExpenseHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req updateExpenseRequest
	if err := decodeJSON(r, h.validate, &req); err != nil {
		writeError(w, err)
		return
	}

	expense, err := h.expenses.Update(r.Context(), user.ID, chi.URLParam(r, "id"), model.ExpensePatch{
		Title:    req.Title,
		Amount:   req.Amount,
		Category: req.Category,
		Date:     req.Date,
		Notes:    req.Notes,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, expense)
}

// HandleDelete permanently removes an expense.
//
// HTTP: DELETE /expenses/{id}
// RESPONSE: 204 No Content
func (h *ExpenseHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.expenses.Delete(r.Context(), user.ID, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseExpenseFilter(r *http.Request) (model.ExpenseFilter, error) {
	q := r.URL.Query()
	var filter model.ExpenseFilter
	var err error

	filter.Category = model.Category(q.Get("category"))

	if filter.StartDate, err = queryDate(q.Get("start_date"), "start_date"); err != nil {
		return filter, err
	}
	if filter.EndDate, err = queryDate(q.Get("end_date"), "end_date"); err != nil {
		return filter, err
	}
	if filter.Skip, err = queryInt(q.Get("skip"), "skip"); err != nil {
		return filter, err
	}
	if filter.Skip < 0 {
		return filter, apperror.ValidationFailed("skip", "skip must not be negative")
	}
	if filter.Limit, err = queryInt(q.Get("limit"), "limit"); err != nil {
		return filter, err
	}
	if filter.Limit < 0 {
		return filter, apperror.ValidationFailed("limit", "limit must not be negative")
	}
	return filter, nil
}

func queryDate(raw, field string) (model.Date, error) {
	if raw == "" {
		return model.Date{}, nil
	}
	d, err := model.ParseDate(raw)
	if err != nil {
		return model.Date{}, apperror.ValidationFailed(field, field+" must be a YYYY-MM-DD date")
	}
	return d, nil
}

func queryInt(raw, field string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperror.ValidationFailed(field, field+" must be an integer")
	}
	return n, nil
}
