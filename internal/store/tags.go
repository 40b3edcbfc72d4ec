package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/existflow/taskhub/internal/db"
	"github.com/existflow/taskhub/internal/model"
)

const tagColumns = `g.id, g.user_id, g.name, g.created_at, g.updated_at`

// NormalizeTagNames trims every name, drops blanks and collapses duplicates,
// keeping first-occurrence order. It fails on names that are too long
// instead of truncating them.
func NormalizeTagNames(names []string) ([]string, error) {
	out := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, raw := range names {
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}
		if utf8.RuneCountInString(name) > model.MaxTagNameLength {
			return nil, fmt.Errorf("%w: %q", ErrTagNameTooLong, name)
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out, nil
}

// ReconcileTags turns tag names into the ids of the user's tags, creating
// the ones that do not exist yet. Lookup is case-sensitive.
func (s *Store) ReconcileTags(ctx context.Context, userID int64, names []string) ([]int64, error) {
	normalized, err := NormalizeTagNames(names)
	if err != nil {
		return nil, err
	}

	var ids []int64
	err = s.db.InTx(ctx, func(q db.Querier) error {
		ids, err = s.reconcileTags(ctx, q, userID, normalized)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// reconcileTags expects names already passed through NormalizeTagNames
func (s *Store) reconcileTags(ctx context.Context, q db.Querier, userID int64, names []string) ([]int64, error) {
	ids := make([]int64, 0, len(names))
	for _, name := range names {
		id, err := s.findOrCreateTag(ctx, q, userID, name)
		if err != nil {
			return nil, fmt.Errorf("reconcile tag %q: %w", name, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *Store) findOrCreateTag(ctx context.Context, q db.Querier, userID int64, name string) (int64, error) {
	var id int64
	err := q.QueryRowContext(ctx, `SELECT id FROM tags WHERE user_id = ? AND name = ?`, userID, name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}

	now := s.timestamp()
	err = q.QueryRowContext(ctx, `
		INSERT INTO tags (user_id, name, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id, name) DO NOTHING
		RETURNING id`,
		userID, name, now, now,
	).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}

	// Another writer created it between the lookup and the insert
	err = q.QueryRowContext(ctx, `SELECT id FROM tags WHERE user_id = ? AND name = ?`, userID, name).Scan(&id)
	return id, err
}

// replaceTaskTags installs exactly tagIDs as the task's tag set
func replaceTaskTags(ctx context.Context, q db.Querier, taskID int64, tagIDs []int64) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM task_tag WHERE task_id = ?`, taskID); err != nil {
		return fmt.Errorf("detach tags: %w", err)
	}
	if len(tagIDs) == 0 {
		return nil
	}

	values := make([]string, len(tagIDs))
	args := make([]any, 0, len(tagIDs)*2)
	for i, tagID := range tagIDs {
		values[i] = "(?, ?)"
		args = append(args, taskID, tagID)
	}
	query := `INSERT INTO task_tag (task_id, tag_id) VALUES ` + strings.Join(values, ", ")
	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("attach tags: %w", err)
	}
	return nil
}

// tagsForTasks loads the tag sets of several tasks with one query
func tagsForTasks(ctx context.Context, q db.Querier, taskIDs []int64) (map[int64][]model.Tag, error) {
	out := make(map[int64][]model.Tag, len(taskIDs))
	if len(taskIDs) == 0 {
		return out, nil
	}

	rows, err := q.QueryContext(ctx, `
		SELECT tt.task_id, `+tagColumns+`
		FROM task_tag tt
		JOIN tags g ON g.id = tt.tag_id
		WHERE tt.task_id IN (`+db.Placeholders(len(taskIDs))+`)
		ORDER BY tt.task_id, g.id`,
		int64Args(taskIDs)...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var taskID int64
		var tag model.Tag
		var created, updated db.Time
		if err := rows.Scan(&taskID, &tag.ID, &tag.UserID, &tag.Name, &created, &updated); err != nil {
			return nil, err
		}
		tag.CreatedAt, tag.UpdatedAt = created.Time, updated.Time
		out[taskID] = append(out[taskID], tag)
	}
	return out, rows.Err()
}

// ListTags returns the user's tags ordered by name. A non-empty search
// narrows to names containing it, ignoring case.
func (s *Store) ListTags(ctx context.Context, userID int64, search string) ([]model.Tag, error) {
	query := `SELECT ` + tagColumns + ` FROM tags g WHERE g.user_id = ?`
	args := []any{userID}
	if search != "" {
		query += ` AND LOWER(g.name) LIKE ` + lowerParam + ` ESCAPE '\'`
		args = append(args, likePattern(search))
	}
	query += ` ORDER BY g.name ASC, g.id ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	out := make([]model.Tag, 0)
	for rows.Next() {
		tag, err := scanTag(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tag)
	}
	return out, rows.Err()
}

// FindTag returns a tag by id
func (s *Store) FindTag(ctx context.Context, id int64) (model.Tag, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+tagColumns+` FROM tags g WHERE g.id = ?`, id)
	tag, err := scanTag(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Tag{}, ErrNotFound
		}
		return model.Tag{}, err
	}
	return tag, nil
}

// DeleteTag removes a tag and detaches it from every task
func (s *Store) DeleteTag(ctx context.Context, id int64) (bool, error) {
	var deleted bool
	err := s.db.InTx(ctx, func(q db.Querier) error {
		if _, err := q.ExecContext(ctx, `DELETE FROM task_tag WHERE tag_id = ?`, id); err != nil {
			return err
		}
		res, err := q.ExecContext(ctx, `DELETE FROM tags WHERE id = ?`, id)
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		deleted = affected > 0
		return err
	})
	if err != nil {
		return false, fmt.Errorf("delete tag: %w", err)
	}
	return deleted, nil
}

func scanTag(s scanner) (model.Tag, error) {
	var tag model.Tag
	var created, updated db.Time
	if err := s.Scan(&tag.ID, &tag.UserID, &tag.Name, &created, &updated); err != nil {
		return model.Tag{}, err
	}
	tag.CreatedAt, tag.UpdatedAt = created.Time, updated.Time
	return tag, nil
}

// lowerParam folds a bound pattern with the same LOWER the column side uses.
// The cast pins the parameter type for PostgreSQL.
const lowerParam = `LOWER(CAST(? AS TEXT))`

// likePattern builds a substring pattern for LIKE ... ESCAPE '\'. Case
// folding happens in SQL through lowerParam.
func likePattern(search string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(search)
	return "%" + escaped + "%"
}
