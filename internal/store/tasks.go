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

const taskColumns = `t.id, t.user_id, t.project_id, t.title, t.description, t.due_date, t.status, t.created_at, t.updated_at`

// FindTask returns a task with its project and tags
func (s *Store) FindTask(ctx context.Context, id int64) (model.Task, error) {
	return loadTask(ctx, s.db, id)
}

// TitleTaken reports whether the user already has a task titled title,
// ignoring the task exceptID (0 to ignore none).
func (s *Store) TitleTaken(ctx context.Context, userID int64, title string, exceptID int64) (bool, error) {
	return titleTaken(ctx, s.db, userID, title, exceptID)
}

func titleTaken(ctx context.Context, q db.Querier, userID int64, title string, exceptID int64) (bool, error) {
	var n int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tasks WHERE user_id = ? AND title = ? AND id <> ?`,
		userID, title, exceptID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check title: %w", err)
	}
	return n > 0, nil
}

// CreateTask inserts a task. When in.Tags is non-nil the tags are
// reconciled and attached in the same transaction.
func (s *Store) CreateTask(ctx context.Context, in model.NewTask) (model.Task, error) {
	var tagNames []string
	if in.Tags != nil {
		var err error
		if tagNames, err = NormalizeTagNames(in.Tags); err != nil {
			return model.Task{}, err
		}
	}

	var task model.Task
	err := s.db.InTx(ctx, func(q db.Querier) error {
		taken, err := titleTaken(ctx, q, in.UserID, in.Title, 0)
		if err != nil {
			return err
		}
		if taken {
			return ErrDuplicateTitle
		}

		var status model.Status
		if in.Status != nil {
			status = *in.Status
		}

		now := s.timestamp()
		var id int64
		err = q.QueryRowContext(ctx, `
			INSERT INTO tasks (user_id, project_id, title, description, due_date, status, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			RETURNING id`,
			in.UserID, nullInt64(in.ProjectID), in.Title, nullString(in.Description),
			db.NullTimestamp(in.DueDate), nullStatus(status), now, now,
		).Scan(&id)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicateTitle
			}
			return fmt.Errorf("insert task: %w", err)
		}

		if in.Tags != nil {
			tagIDs, err := s.reconcileTags(ctx, q, in.UserID, tagNames)
			if err != nil {
				return err
			}
			if err := replaceTaskTags(ctx, q, id, tagIDs); err != nil {
				return err
			}
		}

		task, err = loadTask(ctx, q, id)
		return err
	})
	if err != nil {
		return model.Task{}, err
	}
	return task, nil
}

// UpdateTask applies a partial update. A set Tags field replaces the whole
// association set; an unset one leaves it untouched.
func (s *Store) UpdateTask(ctx context.Context, id int64, patch model.TaskPatch) (model.Task, error) {
	var tagNames []string
	if patch.Tags.Set {
		var err error
		if tagNames, err = NormalizeTagNames(patch.Tags.Value); err != nil {
			return model.Task{}, err
		}
	}

	var task model.Task
	err := s.db.InTx(ctx, func(q db.Querier) error {
		current, err := scanTask(q.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks t WHERE t.id = ?`, id))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}

		if patch.Title.Set && patch.Title.Value != current.Title {
			taken, err := titleTaken(ctx, q, current.UserID, patch.Title.Value, id)
			if err != nil {
				return err
			}
			if taken {
				return ErrDuplicateTitle
			}
		}

		sets, args := patchAssignments(patch)
		sets = append(sets, "updated_at = ?")
		args = append(args, s.timestamp(), id)
		if _, err := q.ExecContext(ctx, `UPDATE tasks SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...); err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicateTitle
			}
			return fmt.Errorf("update task: %w", err)
		}

		if patch.Tags.Set {
			tagIDs, err := s.reconcileTags(ctx, q, current.UserID, tagNames)
			if err != nil {
				return err
			}
			if err := replaceTaskTags(ctx, q, id, tagIDs); err != nil {
				return err
			}
		}

		task, err = loadTask(ctx, q, id)
		return err
	})
	if err != nil {
		return model.Task{}, err
	}
	return task, nil
}

func patchAssignments(patch model.TaskPatch) ([]string, []any) {
	var sets []string
	var args []any
	if patch.ProjectID.Set {
		sets = append(sets, "project_id = ?")
		args = append(args, nullInt64(patch.ProjectID.Value))
	}
	if patch.Title.Set {
		sets = append(sets, "title = ?")
		args = append(args, patch.Title.Value)
	}
	if patch.Description.Set {
		sets = append(sets, "description = ?")
		args = append(args, nullString(patch.Description.Value))
	}
	if patch.DueDate.Set {
		sets = append(sets, "due_date = ?")
		args = append(args, db.NullTimestamp(patch.DueDate.Value))
	}
	if patch.Status.Set {
		sets = append(sets, "status = ?")
		args = append(args, nullStatus(patch.Status.Value))
	}
	return sets, args
}

// DeleteTask removes a task and its tag associations. The tags themselves
// are kept. It returns false when no task had that id.
func (s *Store) DeleteTask(ctx context.Context, id int64) (bool, error) {
	var deleted bool
	err := s.db.InTx(ctx, func(q db.Querier) error {
		if _, err := q.ExecContext(ctx, `DELETE FROM task_tag WHERE task_id = ?`, id); err != nil {
			return err
		}
		res, err := q.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		deleted = affected > 0
		return err
	})
	if err != nil {
		return false, fmt.Errorf("delete task: %w", err)
	}
	return deleted, nil
}

func loadTask(ctx context.Context, q db.Querier, id int64) (model.Task, error) {
	task, err := scanTask(q.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks t WHERE t.id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Task{}, ErrNotFound
		}
		return model.Task{}, err
	}
	tasks := []model.Task{task}
	if err := loadRelations(ctx, q, tasks); err != nil {
		return model.Task{}, err
	}
	return tasks[0], nil
}

// loadRelations fills Project and Tags on every task, one query per relation
func loadRelations(ctx context.Context, q db.Querier, tasks []model.Task) error {
	if len(tasks) == 0 {
		return nil
	}

	taskIDs := make([]int64, len(tasks))
	var projectIDs []int64
	seen := make(map[int64]bool)
	for i, t := range tasks {
		taskIDs[i] = t.ID
		if t.ProjectID != nil && !seen[*t.ProjectID] {
			seen[*t.ProjectID] = true
			projectIDs = append(projectIDs, *t.ProjectID)
		}
	}

	projects, err := projectsByID(ctx, q, projectIDs)
	if err != nil {
		return fmt.Errorf("load projects: %w", err)
	}
	tags, err := tagsForTasks(ctx, q, taskIDs)
	if err != nil {
		return fmt.Errorf("load tags: %w", err)
	}

	for i := range tasks {
		if pid := tasks[i].ProjectID; pid != nil {
			if p, ok := projects[*pid]; ok {
				tasks[i].Project = &p
			}
		}
		tasks[i].Tags = tags[tasks[i].ID]
		if tasks[i].Tags == nil {
			tasks[i].Tags = []model.Tag{}
		}
	}
	return nil
}

func scanTask(s scanner) (model.Task, error) {
	var task model.Task
	var projectID sql.NullInt64
	var description, status sql.NullString
	var due, created, updated db.Time
	if err := s.Scan(&task.ID, &task.UserID, &projectID, &task.Title, &description, &due, &status, &created, &updated); err != nil {
		return model.Task{}, err
	}
	if projectID.Valid {
		task.ProjectID = &projectID.Int64
	}
	if description.Valid {
		task.Description = &description.String
	}
	if status.Valid {
		st := model.Status(status.String)
		task.Status = &st
	}
	task.DueDate = due.Ptr()
	task.CreatedAt, task.UpdatedAt = created.Time, updated.Time
	return task, nil
}
