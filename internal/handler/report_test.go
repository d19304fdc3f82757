package handler_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/expense-tracker/internal/apperror"
	"github.com/sakif/expense-tracker/internal/auth"
	"github.com/sakif/expense-tracker/internal/handler"
	"github.com/sakif/expense-tracker/internal/model"
)

type MockReporter struct {
	CapturedYear, CapturedMonth int
	ReturnReport                *model.MonthlyReport
	ReturnErr                   error
}

func (m *MockReporter) Monthly(_ context.Context, _ string, year, month int) (*model.MonthlyReport, error) {
	m.CapturedYear, m.CapturedMonth = year, month
	return m.ReturnReport, m.ReturnErr
}

func TestReportHandler_HandleMonthly(t *testing.T) {
	t.Run("report", func(t *testing.T) {
		mock := &MockReporter{ReturnReport: &model.MonthlyReport{
			Year:  2025,
			Month: 3,
			Total: 35000,
			ByCategory: map[model.Category]model.Cents{
				model.CategoryFood:   15000,
				model.CategoryTravel: 20000,
			},
			Count: 3,
		}}
		h := handler.NewReportHandler(mock, testLogger)

		req := httptest.NewRequest(http.MethodGet, "/reports/monthly?year=2025&month=3", nil)
		req = req.WithContext(auth.WithUser(req.Context(), alice))
		rr := httptest.NewRecorder()

		h.HandleMonthly(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t,
			`{"year":2025,"month":3,"total":350,"byCategory":{"Food":150,"Travel":200},"count":3}`,
			rr.Body.String())
		assert.Equal(t, 2025, mock.CapturedYear)
		assert.Equal(t, 3, mock.CapturedMonth)
	})

	t.Run("bad parameters", func(t *testing.T) {
		tests := []struct {
			name  string
			query string
		}{
			{name: "missing year", query: "month=3"},
			{name: "missing month", query: "year=2025"},
			{name: "non-numeric month", query: "year=2025&month=march"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				h := handler.NewReportHandler(&MockReporter{}, testLogger)
				req := httptest.NewRequest(http.MethodGet, "/reports/monthly?"+tt.query, nil)
				req = req.WithContext(auth.WithUser(req.Context(), alice))
				rr := httptest.NewRecorder()

				h.HandleMonthly(rr, req)

				assert.Equal(t, http.StatusBadRequest, rr.Code)
			})
		}
	})

	t.Run("out of range passes through service validation", func(t *testing.T) {
		mock := &MockReporter{ReturnErr: apperror.ValidationFailed("month", "month must be between 1 and 12")}
		h := handler.NewReportHandler(mock, testLogger)
		req := httptest.NewRequest(http.MethodGet, "/reports/monthly?year=2025&month=13", nil)
		req = req.WithContext(auth.WithUser(req.Context(), alice))
		rr := httptest.NewRecorder()

		h.HandleMonthly(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), `"field":"month"`)
	})
}

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

func TestStatusHandler(t *testing.T) {
	t.Run("root", func(t *testing.T) {
		h := handler.NewStatusHandler("Expense Tracker API", stubPinger{}, testLogger)
		rr := httptest.NewRecorder()

		h.HandleRoot(rr, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"status":"ok","name":"Expense Tracker API"}`, rr.Body.String())
	})

	t.Run("healthy", func(t *testing.T) {
		h := handler.NewStatusHandler("Expense Tracker API", stubPinger{}, testLogger)
		rr := httptest.NewRecorder()

		h.HandleHealth(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("store down", func(t *testing.T) {
		h := handler.NewStatusHandler("Expense Tracker API", stubPinger{err: errors.New("connection refused")}, testLogger)
		rr := httptest.NewRecorder()

		h.HandleHealth(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
		assert.NotContains(t, rr.Body.String(), "refused")
	})
}
