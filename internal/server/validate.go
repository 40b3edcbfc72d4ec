package server

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/existflow/taskhub/internal/model"
	"github.com/existflow/taskhub/internal/store"
)

// ValidationErrors maps a request field to its messages
type ValidationErrors map[string][]string

// Add records a message for field
func (v ValidationErrors) Add(field, message string) {
	v[field] = append(v[field], message)
}

// Empty reports whether no field failed
func (v ValidationErrors) Empty() bool {
	return len(v) == 0
}

// Error makes ValidationErrors usable as an error value
func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for field, msgs := range v {
		parts = append(parts, field+": "+strings.Join(msgs, ", "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

const (
	msgTitleRequired   = "Task title is required"
	msgTitleTooLong    = "Task title cannot exceed 255 characters"
	msgTitleTaken      = "You already have a task with this title"
	msgProjectMissing  = "Selected project does not exist"
	msgTagTooLong      = "Tag name cannot exceed 50 characters"
	msgDueDateInvalid  = "Due date must be a valid date"
	msgDueDatePast     = "Due date must be today or a future date"
	msgStatusInvalid   = "Status must be one of: todo, in-progress, done"
	msgProjectNameReq  = "Project name is required"
	msgProjectNameLong = "Project name cannot exceed 255 characters"
)

var dueDateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// parseDueDate accepts RFC 3339, a space separated date-time or a bare date.
// Values without a zone are taken as UTC.
func parseDueDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dueDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", raw)
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// trimmed returns nil for nil or blank input, the trimmed value otherwise
func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	s := strings.TrimSpace(*v)
	if s == "" {
		return nil
	}
	return &s
}

func checkTitle(errs ValidationErrors, title *string) string {
	t := trimmed(title)
	if t == nil {
		errs.Add("title", msgTitleRequired)
		return ""
	}
	if utf8.RuneCountInString(*t) > model.MaxTitleLength {
		errs.Add("title", msgTitleTooLong)
	}
	return *t
}

func checkTags(errs ValidationErrors, tags []string) {
	for i, name := range tags {
		if utf8.RuneCountInString(strings.TrimSpace(name)) > model.MaxTagNameLength {
			errs.Add(fmt.Sprintf("tags.%d", i), msgTagTooLong)
		}
	}
}

func checkStatus(errs ValidationErrors, raw *string) *model.Status {
	if raw == nil {
		return nil
	}
	st := model.Status(strings.TrimSpace(*raw))
	if !st.Valid() {
		errs.Add("status", msgStatusInvalid)
		return nil
	}
	return &st
}

// checkProject verifies that a referenced project belongs to the user
func (s *Server) checkProject(ctx context.Context, errs ValidationErrors, userID int64, projectID *int64) error {
	if projectID == nil {
		return nil
	}
	_, err := s.store.OwnedProject(ctx, userID, *projectID)
	if errors.Is(err, store.ErrNotFound) {
		errs.Add("project_id", msgProjectMissing)
		return nil
	}
	return err
}

type createTaskRequest struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	ProjectID   *int64   `json:"project_id"`
	DueDate     *string  `json:"due_date"`
	Status      *string  `json:"status"`
	Tags        []string `json:"tags"`
}

// validateCreate turns a create request into a NewTask. A non-nil error is
// a storage failure, not a validation failure.
func (s *Server) validateCreate(ctx context.Context, userID int64, req createTaskRequest) (model.NewTask, ValidationErrors, error) {
	errs := ValidationErrors{}
	in := model.NewTask{
		UserID:      userID,
		ProjectID:   req.ProjectID,
		Description: trimmed(req.Description),
		Tags:        req.Tags,
	}

	in.Title = checkTitle(errs, req.Title)
	if in.Title != "" {
		taken, err := s.store.TitleTaken(ctx, userID, in.Title, 0)
		if err != nil {
			return in, nil, err
		}
		if taken {
			errs.Add("title", msgTitleTaken)
		}
	}

	if err := s.checkProject(ctx, errs, userID, req.ProjectID); err != nil {
		return in, nil, err
	}

	if due := trimmed(req.DueDate); due != nil {
		t, err := parseDueDate(*due)
		switch {
		case err != nil:
			errs.Add("due_date", msgDueDateInvalid)
		case t.Before(startOfDay(s.now())):
			errs.Add("due_date", msgDueDatePast)
		default:
			in.DueDate = &t
		}
	}

	in.Status = checkStatus(errs, trimmed(req.Status))
	checkTags(errs, req.Tags)

	return in, errs, nil
}

type updateTaskRequest struct {
	Title       model.Optional[*string]  `json:"title"`
	Description model.Optional[*string]  `json:"description"`
	ProjectID   model.Optional[*int64]   `json:"project_id"`
	DueDate     model.Optional[*string]  `json:"due_date"`
	Status      model.Optional[*string]  `json:"status"`
	Tags        model.Optional[[]string] `json:"tags"`
}

// validateUpdate turns an update request into a TaskPatch for the task
// taskID. Only present keys are checked and patched.
func (s *Server) validateUpdate(ctx context.Context, userID, taskID int64, req updateTaskRequest) (model.TaskPatch, ValidationErrors, error) {
	errs := ValidationErrors{}
	var patch model.TaskPatch

	if req.Title.Set {
		title := checkTitle(errs, req.Title.Value)
		if title != "" {
			taken, err := s.store.TitleTaken(ctx, userID, title, taskID)
			if err != nil {
				return patch, nil, err
			}
			if taken {
				errs.Add("title", msgTitleTaken)
			}
			patch.Title = model.Some(title)
		}
	}

	if req.Description.Set {
		patch.Description = model.Some(trimmed(req.Description.Value))
	}

	if req.ProjectID.Set {
		if err := s.checkProject(ctx, errs, userID, req.ProjectID.Value); err != nil {
			return patch, nil, err
		}
		patch.ProjectID = model.Some(req.ProjectID.Value)
	}

	if req.DueDate.Set {
		due := trimmed(req.DueDate.Value)
		if due == nil {
			patch.DueDate = model.Some[*time.Time](nil)
		} else if t, err := parseDueDate(*due); err != nil {
			errs.Add("due_date", msgDueDateInvalid)
		} else {
			patch.DueDate = model.Some(&t)
		}
	}

	if req.Status.Set {
		raw := trimmed(req.Status.Value)
		if raw == nil {
			errs.Add("status", msgStatusInvalid)
		} else if st := checkStatus(errs, raw); st != nil {
			patch.Status = model.Some(*st)
		}
	}

	// a null tag list leaves the associations alone
	if req.Tags.Set && req.Tags.Value != nil {
		checkTags(errs, req.Tags.Value)
		patch.Tags = model.Some(req.Tags.Value)
	}

	return patch, errs, nil
}
