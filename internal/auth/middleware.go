package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sakif/expense-tracker/internal/apperror"
	"github.com/sakif/expense-tracker/internal/model"
)

// contextKey is an unexported type used for context keys in this package.
//
// WHY A CUSTOM TYPE FOR CONTEXT KEYS?
// Only this package can create a key of type contextKey, so no other package
// can read or shadow the authenticated user by accident.
type contextKey string

const userKey contextKey = "user"

// CredentialsMessage is the single client-visible reason for every
// authentication failure on a protected route.
const CredentialsMessage = "could not validate credentials"

// IdentityResolver turns a raw bearer token into the persisted user it
// names. Implemented by service.AuthService.
type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, token string) (*model.User, error)
}

// RequireAuth is a middleware that enforces authentication on protected routes.
//
// It reads "Authorization: Bearer <token>", resolves it to a user and stores
// that user in the request context. It fails closed:
//   - missing or malformed header, invalid token, or unknown user → 401
//   - the store failing while looking the user up → 500
//
// Chi applies middlewares in a chain: req → M1 → M2 → Handler → M2 → M1 → resp
func RequireAuth(resolver IdentityResolver, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := BearerToken(r)
			if !ok {
				logger.Debug("authentication failed", slog.String("reason", "missing or malformed bearer header"))
				writeUnauthorized(w)
				return
			}

			user, err := resolver.ResolveIdentity(r.Context(), token)
			if err != nil {
				if errors.Is(err, apperror.ErrUnauthorized) {
					writeUnauthorized(w)
					return
				}
				logger.Error("resolving identity", slog.String("error", err.Error()))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte(`{"error":"internal_error","message":"internal server error"}`))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header. The scheme is case-insensitive; anything else is malformed.
func BearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", false
	}
	return token, true
}

// WithUser returns a copy of ctx carrying the authenticated user.
func WithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext retrieves the authenticated user. ok is false outside
// RequireAuth-protected routes.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(userKey).(*model.User)
	return user, ok && user != nil
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"unauthorized","message":"` + CredentialsMessage + `"}`))
}
