package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/sakif/expense-tracker/internal/apperror"
	"github.com/sakif/expense-tracker/internal/model"
	"github.com/sakif/expense-tracker/internal/service"
)

// Authenticator is the slice of service.AuthService the auth routes need.
type Authenticator interface {
	Signup(ctx context.Context, in service.SignupInput) (*model.User, error)
	Login(ctx context.Context, email, password string) (*service.AuthResult, error)
}

// AuthHandler serves account registration, login and the current-user view.
//
// HANDLER RESPONSIBILITIES:
//   - HandleSignup → create an account, answer with the public user
//   - HandleLogin  → check credentials, answer with a bearer token
//   - HandleMe     → return the user RequireAuth resolved
type AuthHandler struct {
	auth     Authenticator
	validate *validator.Validate
	logger   *slog.Logger
}

// NewAuthHandler creates an AuthHandler. All dependencies are injected here;
// the handler has no knowledge of how they're constructed.
func NewAuthHandler(auth Authenticator, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		auth:     auth,
		validate: newValidator(),
		logger:   logger,
	}
}

// Email format and name length are checked by the service after trimming.
type signupRequest struct {
	Email    string `json:"email" validate:"required"`
	FullName string `json:"full_name" validate:"required"`
	Password string `json:"password" validate:"required,min=6,max=128"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse is the body of a successful login.
type LoginResponse struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	User        *model.User `json:"user"`
}

// HandleSignup registers a new user.
//
// HTTP: POST /auth/signup
// REQUEST BODY: {"email": "...", "full_name": "...", "password": "..."}
// RESPONSE: 201 {"id", "email", "full_name", "created_at"}
func (h *AuthHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(r, h.validate, &req); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.auth.Signup(r.Context(), service.SignupInput{
		Email:    req.Email,
		FullName: req.FullName,
		Password: req.Password,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

// HandleLogin exchanges credentials for an access token.
//
// HTTP: POST /auth/login
//
// TWO REQUEST SHAPES:
//   - application/x-www-form-urlencoded with "username" (the email) and
//     "password", the OAuth2 password-grant form most API clients send
//   - application/json {"email": "...", "password": "..."}
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var email, password string

	if isJSON(r) {
		var req loginRequest
		if err := decodeJSON(r, h.validate, &req); err != nil {
			writeError(w, err)
			return
		}
		email, password = req.Email, req.Password
	} else {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		if err := r.ParseForm(); err != nil {
			writeError(w, apperror.ValidationFailed("body", "request body is not a valid form"))
			return
		}
		email = strings.TrimSpace(r.PostForm.Get("username"))
		password = r.PostForm.Get("password")
		if email == "" {
			writeError(w, apperror.ValidationFailed("username", "username is required"))
			return
		}
		if password == "" {
			writeError(w, apperror.ValidationFailed("password", "password is required"))
			return
		}
	}

	result, err := h.auth.Login(r.Context(), email, password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{
		AccessToken: result.Token,
		TokenType:   "bearer",
		User:        result.User,
	})
}

// HandleMe returns the authenticated user's public profile.
//
// HTTP: GET /auth/me (protected by auth.RequireAuth)
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
