package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/sakif/expense-tracker/internal/apperror"
	"github.com/sakif/expense-tracker/internal/auth"
	"github.com/sakif/expense-tracker/internal/model"
	"github.com/sakif/expense-tracker/internal/repository"
)

var errNoTokenService = errors.New("service/auth: no token service configured")

const (
	MaxFullNameLength = 100
	MinPasswordLength = 6
	MaxPasswordLength = 128
)

// AuthService handles signup, login and turning a bearer token back into a
// user.
//
//	AuthHandler (HTTP) → AuthService (business rules) → UserRepository (DB)
//	                   ↘ TokenService (JWT), PasswordService (bcrypt)
//
// It also implements auth.IdentityResolver so the RequireAuth middleware can
// use it without importing this package.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	validate  *validator.Validate
	logger    *slog.Logger
}

var _ auth.IdentityResolver = (*AuthService)(nil)

// NewAuthService creates an AuthService. tokens may be nil for callers that
// only register users (cmd/adduser); Login and ResolveIdentity then fail.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		logger:    logger,
	}
}

// SignupInput carries the raw registration fields.
type SignupInput struct {
	Email    string
	FullName string
	Password string
}

// AuthResult bundles the user record and the issued access token so the
// handler can respond in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// NormalizeEmail trims and lowercases an address. Lookups and the unique
// index both see the normalized form, so "A@X.COM" and "a@x.com" collide.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Signup validates the input, hashes the password and stores a new user.
// A taken email comes back from the store as apperror.Conflict.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*model.User, error) {
	email := NormalizeEmail(in.Email)
	if err := s.validate.Var(email, "required,email"); err != nil {
		return nil, apperror.ValidationFailed("email", "a valid email address is required")
	}

	fullName := strings.TrimSpace(in.FullName)
	if fullName == "" {
		return nil, apperror.ValidationFailed("full_name", "full name is required")
	}
	if utf8.RuneCountInString(fullName) > MaxFullNameLength {
		return nil, apperror.ValidationFailed("full_name",
			fmt.Sprintf("full name must be %d characters or less", MaxFullNameLength))
	}

	if n := utf8.RuneCountInString(in.Password); n < MinPasswordLength || n > MaxPasswordLength {
		return nil, apperror.ValidationFailed("password",
			fmt.Sprintf("password must be between %d and %d characters", MinPasswordLength, MaxPasswordLength))
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: hashing password: %w", err)
	}

	user := &model.User{
		Email:        email,
		FullName:     fullName,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, err
		}
		s.logger.Error("failed to create user", slog.String("error", err.Error()))
		return nil, fmt.Errorf("service/auth: creating user: %w", err)
	}

	s.logger.Info("user signed up", slog.String("userID", user.ID))
	return user, nil
}

// Login checks email and password and issues an access token.
//
// An unknown email and a wrong password produce the same Unauthorized error,
// so the response never reveals which accounts exist.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	if s.tokens == nil {
		return nil, errNoTokenService
	}
	invalid := apperror.Unauthorized("incorrect email or password")

	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, invalid
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			s.logger.Debug("login rejected", slog.String("reason", "unknown email"))
			return nil, invalid
		}
		return nil, fmt.Errorf("service/auth: looking up user: %w", err)
	}

	if !s.passwords.Verify(user.PasswordHash, password) {
		s.logger.Debug("login rejected", slog.String("reason", "wrong password"), slog.String("userID", user.ID))
		return nil, invalid
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: issuing token for user %s: %w", user.ID, err)
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID))
	return &AuthResult{User: user, Token: token}, nil
}

// ResolveIdentity validates a bearer token and loads the user it names.
//
// A bad token and a token for a user that no longer exists are both
// Unauthorized with the same message; only the debug log tells them apart.
// A store failure is returned as-is so the caller answers 500, not 401.
func (s *AuthService) ResolveIdentity(ctx context.Context, token string) (*model.User, error) {
	if s.tokens == nil {
		return nil, errNoTokenService
	}
	userID, err := s.tokens.Validate(token)
	if err != nil {
		s.logger.Debug("identity rejected", slog.String("reason", "invalid token"))
		return nil, apperror.Unauthorized(auth.CredentialsMessage)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			s.logger.Debug("identity rejected", slog.String("reason", "unknown subject"), slog.String("userID", userID))
			return nil, apperror.Unauthorized(auth.CredentialsMessage)
		}
		return nil, fmt.Errorf("service/auth: loading user %s: %w", userID, err)
	}
	return user, nil
}
