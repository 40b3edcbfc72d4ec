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

const projectColumns = `p.id, p.user_id, p.name, p.description, p.created_at, p.updated_at`

// ListProjects returns the user's projects ordered by name. A non-empty
// search matches name or description, ignoring case.
func (s *Store) ListProjects(ctx context.Context, userID int64, search string) ([]model.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects p WHERE p.user_id = ?`
	args := []any{userID}
	if search != "" {
		pattern := likePattern(search)
		query += ` AND (LOWER(p.name) LIKE ` + lowerParam + ` ESCAPE '\' OR LOWER(p.description) LIKE ` + lowerParam + ` ESCAPE '\')`
		args = append(args, pattern, pattern)
	}
	query += ` ORDER BY p.name ASC, p.id ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	out := make([]model.Project, 0)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// FindProject returns a project by id
func (s *Store) FindProject(ctx context.Context, id int64) (model.Project, error) {
	p, err := scanProject(s.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects p WHERE p.id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Project{}, ErrNotFound
		}
		return model.Project{}, err
	}
	return p, nil
}

// CreateProject inserts a project owned by userID
func (s *Store) CreateProject(ctx context.Context, userID int64, name string, description *string) (model.Project, error) {
	now := s.timestamp()
	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO projects (user_id, name, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id`,
		userID, name, nullString(description), now, now,
	).Scan(&id)
	if err != nil {
		return model.Project{}, fmt.Errorf("insert project: %w", err)
	}
	return s.FindProject(ctx, id)
}

// UpdateProject applies a partial update
func (s *Store) UpdateProject(ctx context.Context, id int64, patch model.ProjectPatch) (model.Project, error) {
	sets := []string{"updated_at = ?"}
	args := []any{s.timestamp()}
	if patch.Name.Set {
		sets = append(sets, "name = ?")
		args = append(args, patch.Name.Value)
	}
	if patch.Description.Set {
		sets = append(sets, "description = ?")
		args = append(args, nullString(patch.Description.Value))
	}
	args = append(args, id)

	res, err := s.db.ExecContext(ctx, `UPDATE projects SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return model.Project{}, fmt.Errorf("update project: %w", err)
	}
	if err := checkRowsAffected(res); err != nil {
		return model.Project{}, err
	}
	return s.FindProject(ctx, id)
}

// DeleteProject removes a project. Its tasks stay and lose their project.
func (s *Store) DeleteProject(ctx context.Context, id int64) (bool, error) {
	var deleted bool
	err := s.db.InTx(ctx, func(q db.Querier) error {
		if _, err := q.ExecContext(ctx, `UPDATE tasks SET project_id = NULL WHERE project_id = ?`, id); err != nil {
			return err
		}
		res, err := q.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		deleted = affected > 0
		return err
	})
	if err != nil {
		return false, fmt.Errorf("delete project: %w", err)
	}
	return deleted, nil
}

func projectsByID(ctx context.Context, q db.Querier, ids []int64) (map[int64]model.Project, error) {
	out := make(map[int64]model.Project, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := q.QueryContext(ctx,
		`SELECT `+projectColumns+` FROM projects p WHERE p.id IN (`+db.Placeholders(len(ids))+`)`,
		int64Args(ids)...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out[p.ID] = p
	}
	return out, rows.Err()
}

func scanProject(s scanner) (model.Project, error) {
	var p model.Project
	var description sql.NullString
	var created, updated db.Time
	if err := s.Scan(&p.ID, &p.UserID, &p.Name, &description, &created, &updated); err != nil {
		return model.Project{}, err
	}
	if description.Valid {
		p.Description = &description.String
	}
	p.CreatedAt, p.UpdatedAt = created.Time, updated.Time
	return p, nil
}

func checkRowsAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
