package model

import "time"

// Status is the workflow state of a task
type Status string

// Task statuses
const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in-progress"
	StatusDone       Status = "done"
)

// Statuses lists every valid status in workflow order
var Statuses = []Status{StatusTodo, StatusInProgress, StatusDone}

// Valid reports whether s is one of the known statuses
func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// MaxTitleLength is the longest task title accepted, in characters
const MaxTitleLength = 255

// Task represents a single todo item. Status is nil when the task was
// created without one; that state is distinct from StatusTodo.
type Task struct {
	ID          int64      `json:"id"`
	UserID      int64      `json:"user_id"`
	ProjectID   *int64     `json:"project_id"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	DueDate     *time.Time `json:"due_date"`
	Status      *Status    `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	Project *Project `json:"project"`
	Tags    []Tag    `json:"tags"`
}

// NewTask is the input for creating a task. A nil Tags slice means no tag
// list was supplied; an empty one is a supplied, empty list.
type NewTask struct {
	UserID      int64
	ProjectID   *int64
	Title       string
	Description *string
	DueDate     *time.Time
	Status      *Status
	Tags        []string
}

// TaskPatch is a partial update. Only fields with Set == true change.
// Setting Tags replaces the whole association set.
type TaskPatch struct {
	ProjectID   Optional[*int64]
	Title       Optional[string]
	Description Optional[*string]
	DueDate     Optional[*time.Time]
	Status      Optional[Status]
	Tags        Optional[[]string]
}

// Summary is the per-status task count shown on the dashboard
type Summary struct {
	Total      int `json:"total"`
	Todo       int `json:"todo"`
	InProgress int `json:"in_progress"`
	Done       int `json:"done"`
}
