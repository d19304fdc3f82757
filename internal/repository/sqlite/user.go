package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/xid"

	"github.com/sakif/expense-tracker/internal/apperror"
	"github.com/sakif/expense-tracker/internal/model"
	"github.com/sakif/expense-tracker/internal/repository"
)

// compile-time check that *UserDB implements repository.UserRepository
var _ repository.UserRepository = (*UserDB)(nil)

// UserDB is the users table view of a DB.
type UserDB struct {
	db *DB
}

// Create inserts a new user. The unique index on email is the source of
// truth for duplicates: two concurrent signups with the same email cannot
// both pass, whatever the service checked beforehand.
func (u *UserDB) Create(ctx context.Context, user *model.User) error {
	ctx, cancel := u.db.withTimeout(ctx)
	defer cancel()

	user.ID = xid.New().String()
	user.CreatedAt = now()

	_, err := u.db.conn.ExecContext(ctx,
		`INSERT INTO users (id, email, full_name, password_hash, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		user.ID,
		user.Email,
		user.FullName,
		user.PasswordHash,
		formatTimestamp(user.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", "email")
		}
		return fmt.Errorf("sqlite: inserting user: %w", err)
	}

	return nil
}

// GetByEmail looks a user up by exact (already normalised) email.
func (u *UserDB) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	ctx, cancel := u.db.withTimeout(ctx)
	defer cancel()

	user, err := scanUser(u.db.conn.QueryRowContext(ctx,
		`SELECT id, email, full_name, password_hash, created_at
		 FROM users WHERE email = ?`,
		email,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", email)
		}
		return nil, fmt.Errorf("sqlite: getting user by email: %w", err)
	}
	return user, nil
}

// GetByID retrieves a user by their internal ID.
func (u *UserDB) GetByID(ctx context.Context, id string) (*model.User, error) {
	ctx, cancel := u.db.withTimeout(ctx)
	defer cancel()

	user, err := scanUser(u.db.conn.QueryRowContext(ctx,
		`SELECT id, email, full_name, password_hash, created_at
		 FROM users WHERE id = ?`,
		id,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}
	return user, nil
}

func scanUser(row *sql.Row) (*model.User, error) {
	var user model.User
	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.FullName,
		&user.PasswordHash,
		timestamp{&user.CreatedAt},
	); err != nil {
		return nil, err
	}
	return &user, nil
}
