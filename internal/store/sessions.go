package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/existflow/taskhub/internal/db"
	"github.com/existflow/taskhub/internal/model"
	"github.com/google/uuid"
)

// CreateSession opens a session for userID that expires after ttl. The
// session id doubles as the token's jti claim.
func (s *Store) CreateSession(ctx context.Context, userID int64, ttl time.Duration) (model.Session, error) {
	now := s.now().UTC()
	session := model.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, user_id, expires_at, created_at)
		VALUES (?, ?, ?, ?)`,
		session.ID, userID, db.Timestamp(session.ExpiresAt), db.Timestamp(now),
	)
	if err != nil {
		return model.Session{}, fmt.Errorf("insert session: %w", err)
	}
	return session, nil
}

// FindSession returns a session by id, revoked or not
func (s *Store) FindSession(ctx context.Context, id string) (model.Session, error) {
	var session model.Session
	var expires, revoked, created db.Time
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, expires_at, revoked_at, created_at FROM sessions WHERE id = ?`, id,
	).Scan(&session.ID, &session.UserID, &expires, &revoked, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Session{}, ErrNotFound
		}
		return model.Session{}, err
	}
	session.ExpiresAt = expires.Time
	session.RevokedAt = revoked.Ptr()
	session.CreatedAt = created.Time
	return session, nil
}

// RevokeSession ends a session. Revoking twice is harmless.
func (s *Store) RevokeSession(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET revoked_at = ? WHERE id = ? AND revoked_at IS NULL`,
		s.timestamp(), id,
	)
	if err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}
