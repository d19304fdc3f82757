package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rs/xid"

	"github.com/sakif/expense-tracker/internal/apperror"
	"github.com/sakif/expense-tracker/internal/model"
	"github.com/sakif/expense-tracker/internal/repository"
)

var _ repository.UserRepository = (*UserRepository)(nil)

type UserRepository struct {
	db *Connection
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	user.ID = xid.New().String()
	user.CreatedAt = now()

	query := `INSERT INTO users (id, email, full_name, password_hash, created_at)
			  VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.Exec(ctx, query, user.ID, user.Email, user.FullName, user.PasswordHash, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", "email")
		}
		return fmt.Errorf("postgres: inserting user: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	query := `SELECT id, email, full_name, password_hash, created_at
			  FROM users WHERE email = $1`

	user, err := scanUser(r.db.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("user", email)
		}
		return nil, fmt.Errorf("postgres: getting user by email: %w", err)
	}
	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	query := `SELECT id, email, full_name, password_hash, created_at
			  FROM users WHERE id = $1`

	user, err := scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("postgres: getting user %s: %w", id, err)
	}
	return user, nil
}

func scanUser(row pgx.Row) (*model.User, error) {
	var user model.User
	if err := row.Scan(&user.ID, &user.Email, &user.FullName, &user.PasswordHash, &user.CreatedAt); err != nil {
		return nil, err
	}
	user.CreatedAt = user.CreatedAt.UTC()
	return &user, nil
}
