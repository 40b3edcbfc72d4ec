package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/existflow/taskhub/internal/db"
	"github.com/existflow/taskhub/internal/model"
)

const userColumns = `id, name, email, password_hash, created_at, updated_at`

// CreateUser registers an account. Emails are stored lower-cased.
func (s *Store) CreateUser(ctx context.Context, name, email, passwordHash string) (model.User, error) {
	now := s.timestamp()
	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO users (name, email, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id`,
		name, normalizeEmail(email), passwordHash, now, now,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return model.User{}, ErrDuplicateEmail
		}
		return model.User{}, fmt.Errorf("insert user: %w", err)
	}
	return s.FindUser(ctx, id)
}

// FindUser returns a user by id
func (s *Store) FindUser(ctx context.Context, id int64) (model.User, error) {
	return s.findUser(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

// FindUserByEmail returns the account registered under email
func (s *Store) FindUserByEmail(ctx context.Context, email string) (model.User, error) {
	return s.findUser(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, normalizeEmail(email))
}

func (s *Store) findUser(ctx context.Context, query string, arg any) (model.User, error) {
	var u model.User
	var created, updated db.Time
	err := s.db.QueryRowContext(ctx, query, arg).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &created, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrNotFound
		}
		return model.User{}, err
	}
	u.CreatedAt, u.UpdatedAt = created.Time, updated.Time
	return u, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
