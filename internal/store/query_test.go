package store

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"testing"
	"time"

	"github.com/existflow/taskhub/internal/model"
)

func TestParseSort(t *testing.T) {
	cases := map[string]Sort{
		"due_date":    {Field: SortDueDate},
		"-due_date":   {Field: SortDueDate, Desc: true},
		"title":       {Field: SortTitle},
		"-created_at": {Field: SortCreatedAt, Desc: true},
		"priority":    DefaultSort,
		"-":           DefaultSort,
		"":            DefaultSort,
	}
	for token, want := range cases {
		if got := ParseSort(token); got != want {
			t.Fatalf("ParseSort(%q) = %+v, want %+v", token, got, want)
		}
	}
}

func TestParseTaskQuery(t *testing.T) {
	q := ParseTaskQuery(url.Values{
		"search":     {"Report"},
		"status":     {"bogus"},
		"project_id": {"7"},
		"tags":       {" urgent, ,api "},
		"sort":       {"-due_date"},
		"page":       {"0"},
		"per_page":   {"500"},
	})
	if q.Search != "Report" {
		t.Fatalf("search = %q", q.Search)
	}
	if q.Status != "" {
		t.Fatalf("invalid status should be ignored, got %q", q.Status)
	}
	if q.ProjectID == nil || *q.ProjectID != 7 {
		t.Fatalf("project id = %v", q.ProjectID)
	}
	if !sameStrings(q.Tags, []string{"urgent", "api"}) {
		t.Fatalf("tags = %v", q.Tags)
	}
	if q.Sort != (Sort{Field: SortDueDate, Desc: true}) {
		t.Fatalf("sort = %+v", q.Sort)
	}
	if q.Page != 1 || q.PerPage != MaxPerPage {
		t.Fatalf("page = %d per_page = %d", q.Page, q.PerPage)
	}

	q = ParseTaskQuery(url.Values{"project_id": {"none"}, "per_page": {"abc"}, "status": {"in-progress"}})
	if !q.WithoutProject || q.ProjectID != nil {
		t.Fatalf("expected project sentinel, got %+v", q)
	}
	if q.PerPage != DefaultPerPage {
		t.Fatalf("per_page = %d", q.PerPage)
	}
	if q.Status != model.StatusInProgress {
		t.Fatalf("status = %q", q.Status)
	}

	q = ParseTaskQuery(url.Values{"project_id": {"-3"}})
	if q.ProjectID != nil || q.WithoutProject {
		t.Fatalf("non-positive project id should be ignored, got %+v", q)
	}

	q = ParseTaskQuery(url.Values{"page": {fmt.Sprint(math.MaxInt)}, "per_page": {"10"}})
	if q.Page != MaxPage {
		t.Fatalf("huge page should clamp to %d, got %d", MaxPage, q.Page)
	}
	if q.Sort != DefaultSort {
		t.Fatalf("missing sort = %+v", q.Sort)
	}
}

func TestListTasksPagination(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	u := mustUser(t, s, "a@example.com")

	for i := 1; i <= 30; i++ {
		mustTask(t, s, model.NewTask{UserID: u.ID, Title: fmt.Sprintf("Task %02d", i)})
	}

	page, err := s.ListTasks(ctx, u.ID, TaskQuery{Page: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Items) != 15 || page.Total != 30 || page.TotalPages != 2 || page.CurrentPage != 2 || page.PerPage != 15 {
		t.Fatalf("unexpected page: items=%d total=%d pages=%d current=%d", len(page.Items), page.Total, page.TotalPages, page.CurrentPage)
	}
	// newest first: page 2 starts at the 15th newest
	if page.Items[0].Title != "Task 15" {
		t.Fatalf("first item on page 2 = %q", page.Items[0].Title)
	}

	beyond, err := s.ListTasks(ctx, u.ID, TaskQuery{Page: 9})
	if err != nil {
		t.Fatalf("list beyond: %v", err)
	}
	if len(beyond.Items) != 0 || beyond.Total != 30 {
		t.Fatalf("page past the end should be empty with the real total, got %d/%d", len(beyond.Items), beyond.Total)
	}

	huge, err := s.ListTasks(ctx, u.ID, TaskQuery{Page: math.MaxInt, PerPage: 10})
	if err != nil {
		t.Fatalf("list huge page: %v", err)
	}
	if len(huge.Items) != 0 || huge.Total != 30 || huge.CurrentPage != MaxPage {
		t.Fatalf("huge page should be empty, got items=%d total=%d current=%d", len(huge.Items), huge.Total, huge.CurrentPage)
	}
}

func TestListTasksDueDateSortNullsLast(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	u := mustUser(t, s, "a@example.com")

	base := time.Date(2030, 6, 1, 0, 0, 0, 0, time.UTC)
	five := base.AddDate(0, 0, 5)
	one := base.AddDate(0, 0, 1)
	mustTask(t, s, model.NewTask{UserID: u.ID, Title: "five", DueDate: &five})
	mustTask(t, s, model.NewTask{UserID: u.ID, Title: "none"})
	mustTask(t, s, model.NewTask{UserID: u.ID, Title: "one", DueDate: &one})

	titles := func(sort string) []string {
		page, err := s.ListTasks(ctx, u.ID, TaskQuery{Sort: ParseSort(sort)})
		if err != nil {
			t.Fatalf("list %s: %v", sort, err)
		}
		out := make([]string, len(page.Items))
		for i, task := range page.Items {
			out[i] = task.Title
		}
		return out
	}

	if got := titles("due_date"); !sameStrings(got, []string{"one", "five", "none"}) {
		t.Fatalf("ascending = %v", got)
	}
	if got := titles("-due_date"); !sameStrings(got, []string{"five", "one", "none"}) {
		t.Fatalf("descending = %v", got)
	}
	if got := titles("title"); !sameStrings(got, []string{"five", "none", "one"}) {
		t.Fatalf("title = %v", got)
	}
	if got := titles("-created_at"); !sameStrings(got, []string{"one", "none", "five"}) {
		t.Fatalf("created_at desc = %v", got)
	}
}

func TestListTasksFilters(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	u := mustUser(t, s, "a@example.com")
	other := mustUser(t, s, "b@example.com")

	project, _ := s.CreateProject(ctx, u.ID, "Work", nil)
	desc := "Prepare 100% of the numbers"
	mustTask(t, s, model.NewTask{UserID: u.ID, Title: "Quarterly report", ProjectID: &project.ID,
		Status: statusPtr(model.StatusTodo), Tags: []string{"urgent"}})
	mustTask(t, s, model.NewTask{UserID: u.ID, Title: "Budget", Description: &desc,
		Status: statusPtr(model.StatusDone), Tags: []string{"finance"}})
	mustTask(t, s, model.NewTask{UserID: u.ID, Title: "Loose end"})
	mustTask(t, s, model.NewTask{UserID: u.ID, Title: "ÉTÉ plan", Tags: []string{"Été"}})
	mustTask(t, s, model.NewTask{UserID: other.ID, Title: "Foreign report",
		Status: statusPtr(model.StatusTodo), Tags: []string{"urgent"}})

	count := func(q TaskQuery) int64 {
		page, err := s.ListTasks(ctx, u.ID, q)
		if err != nil {
			t.Fatalf("list %+v: %v", q, err)
		}
		for _, task := range page.Items {
			if task.UserID != u.ID {
				t.Fatalf("listing leaked task %d of user %d", task.ID, task.UserID)
			}
		}
		return page.Total
	}

	cases := []struct {
		name string
		q    TaskQuery
		want int64
	}{
		{"all", TaskQuery{}, 4},
		{"search title case-insensitive", TaskQuery{Search: "REPORT"}, 1},
		{"search description", TaskQuery{Search: "numbers"}, 1},
		{"search escapes wildcards", TaskQuery{Search: "100%"}, 1},
		{"search literal underscore", TaskQuery{Search: "_"}, 0},
		{"search non-ascii exact", TaskQuery{Search: "ÉTÉ"}, 1},
		{"search non-ascii folded", TaskQuery{Search: "été"}, 1},
		{"status", TaskQuery{Status: model.StatusTodo}, 1},
		{"invalid status ignored", TaskQuery{Status: "bogus"}, 4},
		{"project", TaskQuery{ProjectID: &project.ID}, 1},
		{"without project", TaskQuery{WithoutProject: true}, 3},
		{"tag", TaskQuery{Tags: []string{"urgent"}}, 1},
		{"any of tags", TaskQuery{Tags: []string{"urgent", "finance"}}, 2},
		{"unknown tag", TaskQuery{Tags: []string{"nope"}}, 0},
		{"combined", TaskQuery{Search: "report", Tags: []string{"finance"}}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := count(tc.q); got != tc.want {
				t.Fatalf("total = %d, want %d", got, tc.want)
			}
		})
	}

	tags, err := s.ListTags(ctx, u.ID, "éT")
	if err != nil {
		t.Fatalf("list tags: %v", err)
	}
	if !sameStrings(tagNames(tags), []string{"Été"}) {
		t.Fatalf("non-ascii tag search = %v", tagNames(tags))
	}
}

func TestListTasksLoadsRelations(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	u := mustUser(t, s, "a@example.com")

	project, _ := s.CreateProject(ctx, u.ID, "Work", nil)
	mustTask(t, s, model.NewTask{UserID: u.ID, Title: "A", ProjectID: &project.ID, Tags: []string{"x", "y"}})
	mustTask(t, s, model.NewTask{UserID: u.ID, Title: "B"})

	page, err := s.ListTasks(ctx, u.ID, TaskQuery{Sort: Sort{Field: SortTitle}})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	a, b := page.Items[0], page.Items[1]
	if a.Project == nil || a.Project.ID != project.ID {
		t.Fatalf("project not attached: %+v", a.Project)
	}
	if !sameStrings(tagNames(a.Tags), []string{"x", "y"}) {
		t.Fatalf("tags = %v", tagNames(a.Tags))
	}
	if b.Project != nil || b.Tags == nil || len(b.Tags) != 0 {
		t.Fatalf("unexpected relations on B: %+v %v", b.Project, b.Tags)
	}
}
