package store

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/existflow/taskhub/internal/db"
	"github.com/existflow/taskhub/internal/model"
)

// Pagination limits for task listings. MaxPage keeps the row offset well
// inside int64.
const (
	DefaultPerPage = 15
	MaxPerPage     = 100
	MaxPage        = math.MaxInt32
)

// SortField is a task column a listing may be ordered by
type SortField string

// Sortable task fields
const (
	SortDueDate   SortField = "due_date"
	SortCreatedAt SortField = "created_at"
	SortTitle     SortField = "title"
)

// Sort is a field plus direction
type Sort struct {
	Field SortField
	Desc  bool
}

// DefaultSort is newest first
var DefaultSort = Sort{Field: SortCreatedAt, Desc: true}

// String renders the sort in its wire form, e.g. "-created_at"
func (s Sort) String() string {
	if s.Desc {
		return "-" + string(s.Field)
	}
	return string(s.Field)
}

// ParseSort reads a sort token. A leading '-' means descending. Unknown
// fields discard the whole token in favour of DefaultSort.
func ParseSort(token string) Sort {
	sort := Sort{Field: SortField(token)}
	if strings.HasPrefix(token, "-") {
		sort = Sort{Field: SortField(token[1:]), Desc: true}
	}
	switch sort.Field {
	case SortDueDate, SortCreatedAt, SortTitle:
		return sort
	}
	return DefaultSort
}

// TaskQuery is a filtered, sorted, paged task listing request. The zero
// value lists everything with default ordering and page size.
type TaskQuery struct {
	Search         string
	Status         model.Status
	ProjectID      *int64
	WithoutProject bool
	Tags           []string
	Sort           Sort
	Page           int
	PerPage        int
}

// ParseTaskQuery reads the listing parameters from a query string. Invalid
// values are ignored rather than rejected.
func ParseTaskQuery(v url.Values) TaskQuery {
	q := TaskQuery{
		Search: v.Get("search"),
		Status: model.Status(v.Get("status")),
		Sort:   ParseSort(v.Get("sort")),
	}

	switch raw := strings.TrimSpace(v.Get("project_id")); strings.ToLower(raw) {
	case "":
	case "none", "null":
		q.WithoutProject = true
	default:
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil && id > 0 {
			q.ProjectID = &id
		}
	}

	if raw := v.Get("tags"); raw != "" {
		for _, name := range strings.Split(raw, ",") {
			if name = strings.TrimSpace(name); name != "" {
				q.Tags = append(q.Tags, name)
			}
		}
	}

	q.Page, _ = strconv.Atoi(v.Get("page"))
	q.PerPage, _ = strconv.Atoi(v.Get("per_page"))
	return q.normalized()
}

// normalized applies the permissive defaults: unknown statuses and sort
// fields are dropped, the page is at least 1 and the page size is clamped.
func (q TaskQuery) normalized() TaskQuery {
	if q.Status != "" && !q.Status.Valid() {
		q.Status = ""
	}
	if q.Sort.Field == "" {
		q.Sort = DefaultSort
	} else {
		q.Sort = ParseSort(q.Sort.String())
	}
	switch {
	case q.Page < 1:
		q.Page = 1
	case q.Page > MaxPage:
		q.Page = MaxPage
	}
	switch {
	case q.PerPage < 1:
		q.PerPage = DefaultPerPage
	case q.PerPage > MaxPerPage:
		q.PerPage = MaxPerPage
	}
	return q
}

// where builds the filter predicate. The user scope is always the first
// clause and is never dropped.
func (q TaskQuery) where(userID int64) (string, []any) {
	clauses := []string{"t.user_id = ?"}
	args := []any{userID}

	if q.Search != "" {
		pattern := likePattern(q.Search)
		clauses = append(clauses, `(LOWER(t.title) LIKE `+lowerParam+` ESCAPE '\' OR LOWER(t.description) LIKE `+lowerParam+` ESCAPE '\')`)
		args = append(args, pattern, pattern)
	}

	if q.Status != "" {
		clauses = append(clauses, "t.status = ?")
		args = append(args, string(q.Status))
	}

	switch {
	case q.ProjectID != nil:
		clauses = append(clauses, "t.project_id = ?")
		args = append(args, *q.ProjectID)
	case q.WithoutProject:
		clauses = append(clauses, "t.project_id IS NULL")
	}

	if len(q.Tags) > 0 {
		clauses = append(clauses, `EXISTS (
			SELECT 1 FROM task_tag tt
			JOIN tags g ON g.id = tt.tag_id
			WHERE tt.task_id = t.id AND g.user_id = ? AND g.name IN (`+db.Placeholders(len(q.Tags))+`))`)
		args = append(args, userID)
		for _, name := range q.Tags {
			args = append(args, name)
		}
	}

	return strings.Join(clauses, " AND "), args
}

// orderBy renders the ORDER BY list. due_date puts NULLs last in both
// directions, and t.id breaks every tie by insertion order.
func (q TaskQuery) orderBy() string {
	dir := "ASC"
	if q.Sort.Desc {
		dir = "DESC"
	}
	switch q.Sort.Field {
	case SortDueDate:
		return "CASE WHEN t.due_date IS NULL THEN 1 ELSE 0 END, t.due_date " + dir + ", t.id ASC"
	case SortTitle:
		return "t.title " + dir + ", t.id ASC"
	default:
		return "t.created_at " + dir + ", t.id ASC"
	}
}

// ListTasks returns one page of the user's tasks matching q, each with its
// project and tags.
func (s *Store) ListTasks(ctx context.Context, userID int64, q TaskQuery) (model.Page[model.Task], error) {
	q = q.normalized()
	where, args := q.where(userID)

	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks t WHERE `+where, args...).Scan(&total); err != nil {
		return model.Page[model.Task]{}, fmt.Errorf("count tasks: %w", err)
	}

	offset := int64(q.Page-1) * int64(q.PerPage)
	if offset >= total {
		return model.NewPage([]model.Task{}, q.Page, q.PerPage, total), nil
	}

	query := `SELECT ` + taskColumns + ` FROM tasks t WHERE ` + where +
		` ORDER BY ` + q.orderBy() + ` LIMIT ? OFFSET ?`
	pageArgs := append(args, q.PerPage, offset)

	rows, err := s.db.QueryContext(ctx, query, pageArgs...)
	if err != nil {
		return model.Page[model.Task]{}, fmt.Errorf("list tasks: %w", err)
	}
	tasks := make([]model.Task, 0, q.PerPage)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			rows.Close()
			return model.Page[model.Task]{}, err
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return model.Page[model.Task]{}, err
	}
	rows.Close()

	if err := loadRelations(ctx, s.db, tasks); err != nil {
		return model.Page[model.Task]{}, err
	}

	return model.NewPage(tasks, q.Page, q.PerPage, total), nil
}
