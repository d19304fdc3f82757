package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/expense-tracker/internal/apperror"
	"github.com/sakif/expense-tracker/internal/model"
)

// resolverFunc adapts a function to IdentityResolver.
type resolverFunc func(ctx context.Context, token string) (*model.User, error)

func (f resolverFunc) ResolveIdentity(ctx context.Context, token string) (*model.User, error) {
	return f(ctx, token)
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{header: "Bearer abc.def.ghi", want: "abc.def.ghi", ok: true},
		{header: "bearer abc.def.ghi", want: "abc.def.ghi", ok: true},
		{header: "Bearer   abc  ", want: "abc", ok: true},
		{header: "", ok: false},
		{header: "Bearer", ok: false},
		{header: "Bearer ", ok: false},
		{header: "Basic dXNlcjpwYXNz", ok: false},
		{header: "Bearer two tokens", ok: false},
		{header: "abc.def.ghi", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			got, ok := BearerToken(r)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRequireAuth(t *testing.T) {
	alice := &model.User{ID: "u1", Email: "alice@example.com"}

	resolver := resolverFunc(func(_ context.Context, token string) (*model.User, error) {
		switch token {
		case "good":
			return alice, nil
		case "store-down":
			return nil, errors.New("connection refused")
		default:
			return nil, apperror.Unauthorized(CredentialsMessage)
		}
	})

	var seen *model.User
	protected := RequireAuth(resolver, slog.New(slog.NewTextHandler(io.Discard, nil)))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = UserFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantUser   *model.User
	}{
		{name: "valid token", header: "Bearer good", wantStatus: http.StatusNoContent, wantUser: alice},
		{name: "no header", header: "", wantStatus: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Token good", wantStatus: http.StatusUnauthorized},
		{name: "rejected token", header: "Bearer forged", wantStatus: http.StatusUnauthorized},
		{name: "store failure", header: "Bearer store-down", wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			r := httptest.NewRequest(http.MethodGet, "/expenses", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			protected.ServeHTTP(w, r)

			require.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantUser, seen)
			if tt.wantStatus == http.StatusUnauthorized {
				assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
				assert.JSONEq(t, `{"error":"unauthorized","message":"could not validate credentials"}`, w.Body.String())
			}
		})
	}
}

func TestUserFromContext_Empty(t *testing.T) {
	_, ok := UserFromContext(context.Background())
	assert.False(t, ok)
}
