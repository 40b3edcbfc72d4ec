package store

import (
	"context"
	"errors"

	"github.com/existflow/taskhub/internal/model"
)

// The Owned* lookups gate every single-entity read and mutation. A row that
// exists but belongs to someone else is reported exactly like a missing one.

// OwnedTask returns the task only if userID owns it
func (s *Store) OwnedTask(ctx context.Context, userID, id int64) (model.Task, error) {
	task, err := s.FindTask(ctx, id)
	if err != nil {
		return model.Task{}, err
	}
	if task.UserID != userID {
		return model.Task{}, ErrNotFound
	}
	return task, nil
}

// OwnedProject returns the project only if userID owns it
func (s *Store) OwnedProject(ctx context.Context, userID, id int64) (model.Project, error) {
	p, err := s.FindProject(ctx, id)
	if err != nil {
		return model.Project{}, err
	}
	if p.UserID != userID {
		return model.Project{}, ErrNotFound
	}
	return p, nil
}

// OwnedTag returns the tag only if userID owns it
func (s *Store) OwnedTag(ctx context.Context, userID, id int64) (model.Tag, error) {
	tag, err := s.FindTag(ctx, id)
	if err != nil {
		return model.Tag{}, err
	}
	if tag.UserID != userID {
		return model.Tag{}, ErrNotFound
	}
	return tag, nil
}

// IsNotFound reports whether err means "no such entity for this user"
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
