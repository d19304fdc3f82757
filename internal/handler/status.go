// Package handler contains the HTTP request handlers of the expense API.
//
// HANDLER RESPONSIBILITIES:
// 1. Parse the incoming HTTP request (path, query params, body)
// 2. Call the service layer with plain Go values
// 3. Write the HTTP response (status code, headers, JSON body)
//
// Handlers should NOT contain business logic; they are the glue between HTTP
// and the services. Each handler depends on a small interface describing
// exactly the service methods it calls, so tests can substitute a stub.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Pinger reports whether the store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StatusHandler serves the unauthenticated service-status endpoints.
type StatusHandler struct {
	name   string
	store  Pinger
	logger *slog.Logger
}

func NewStatusHandler(name string, store Pinger, logger *slog.Logger) *StatusHandler {
	return &StatusHandler{name: name, store: store, logger: logger}
}

// HandleRoot answers with a static banner.
//
// HTTP: GET /
// RESPONSE: {"status": "ok", "name": "Expense Tracker API"}
func (h *StatusHandler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"name":   h.name,
	})
}

// HandleHealth checks the store connection. Load balancers poll it.
//
// HTTP: GET /healthz
// RESPONSE: 200 {"status": "ok"} or 503 {"status": "unavailable"}
func (h *StatusHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		h.logger.Warn("health check failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
