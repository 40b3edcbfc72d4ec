// Package store is the persistence layer of taskhub. Every method takes the
// requesting user's id explicitly; nothing reads an ambient "current user".
package store

import (
	"errors"
	"time"

	"github.com/existflow/taskhub/internal/db"
	"github.com/existflow/taskhub/internal/model"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	// ErrNotFound is returned when an entity does not exist or belongs to
	// another user. Callers must not distinguish the two.
	ErrNotFound = errors.New("store: not found")

	// ErrDuplicateTitle is returned when the user already has a task with
	// the requested title.
	ErrDuplicateTitle = errors.New("store: duplicate task title")

	// ErrDuplicateEmail is returned when registering an email twice.
	ErrDuplicateEmail = errors.New("store: duplicate email")

	// ErrTagNameTooLong is returned before reconciliation when a tag name
	// exceeds model.MaxTagNameLength characters.
	ErrTagNameTooLong = errors.New("store: tag name too long")
)

// Store owns every persistence call of the application
type Store struct {
	db  *db.DB
	now func() time.Time
}

// Option configures a Store
type Option func(*Store)

// WithClock replaces time.Now for timestamps written by the store
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New creates a store over an open database
func New(database *db.DB, opts ...Option) *Store {
	s := &Store{db: database, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DB exposes the underlying connection
func (s *Store) DB() *db.DB {
	return s.db
}

func (s *Store) timestamp() string {
	return db.Timestamp(s.now())
}

type scanner interface {
	Scan(dest ...any) error
}

// isUniqueViolation recognises unique constraint failures from both drivers
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}

func nullInt64(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullString(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

// nullStatus stores the empty status as NULL, the "no status" state
func nullStatus(st model.Status) any {
	if st == "" {
		return nil
	}
	return string(st)
}

func int64Args(ids []int64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}
