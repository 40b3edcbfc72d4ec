package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/existflow/taskhub/internal/db"
	"github.com/existflow/taskhub/internal/model"
)

// tickingClock returns a strictly increasing time on every call so that
// created_at ordering is deterministic.
func tickingClock() func() time.Time {
	var mu sync.Mutex
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Second)
		return now
	}
}

func setupStore(t *testing.T) *Store {
	t.Helper()
	database, err := db.Open("sqlite", filepath.Join(t.TempDir(), "store.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })
	if err := database.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return New(database, WithClock(tickingClock()))
}

func mustUser(t *testing.T, s *Store, email string) model.User {
	t.Helper()
	u, err := s.CreateUser(context.Background(), "User "+email, email, "hash")
	if err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return u
}

func mustTask(t *testing.T, s *Store, in model.NewTask) model.Task {
	t.Helper()
	task, err := s.CreateTask(context.Background(), in)
	if err != nil {
		t.Fatalf("create task %q: %v", in.Title, err)
	}
	return task
}

func statusPtr(st model.Status) *model.Status { return &st }

func tagNames(tags []model.Tag) []string {
	out := make([]string, len(tags))
	for i, tag := range tags {
		out[i] = tag.Name
	}
	return out
}

func sameStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	u := mustUser(t, s, "Alice@Example.com")
	if u.Email != "alice@example.com" {
		t.Fatalf("expected lower-cased email, got %q", u.Email)
	}
	if _, err := s.CreateUser(ctx, "Other", "alice@example.com", "hash"); !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}

	found, err := s.FindUserByEmail(ctx, " ALICE@example.com ")
	if err != nil {
		t.Fatalf("find by email: %v", err)
	}
	if found.ID != u.ID {
		t.Fatalf("found user %d, want %d", found.ID, u.ID)
	}
	if _, err := s.FindUser(ctx, 9999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSessionLifecycle(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	u := mustUser(t, s, "a@example.com")

	session, err := s.CreateSession(ctx, u.ID, time.Hour)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	got, err := s.FindSession(ctx, session.ID)
	if err != nil {
		t.Fatalf("find session: %v", err)
	}
	if got.UserID != u.ID || got.RevokedAt != nil {
		t.Fatalf("unexpected session: %+v", got)
	}

	if err := s.RevokeSession(ctx, session.ID); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if err := s.RevokeSession(ctx, session.ID); err != nil {
		t.Fatalf("second revoke: %v", err)
	}
	got, err = s.FindSession(ctx, session.ID)
	if err != nil {
		t.Fatalf("find revoked: %v", err)
	}
	if got.RevokedAt == nil || got.IsActive() {
		t.Fatalf("session should be revoked: %+v", got)
	}
}

func TestReconcileTagsIdempotent(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	u := mustUser(t, s, "a@example.com")

	first, err := s.ReconcileTags(ctx, u.ID, []string{"urgent", "urgent", "Urgent "})
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if len(first) != 2 {
		t.Fatalf("expected 2 distinct tags, got %v", first)
	}

	second, err := s.ReconcileTags(ctx, u.ID, []string{" urgent", "Urgent", ""})
	if err != nil {
		t.Fatalf("reconcile again: %v", err)
	}
	if len(second) != 2 || second[0] != first[0] || second[1] != first[1] {
		t.Fatalf("reconcile not idempotent: %v vs %v", first, second)
	}

	tags, err := s.ListTags(ctx, u.ID, "")
	if err != nil {
		t.Fatalf("list tags: %v", err)
	}
	if len(tags) != 2 {
		t.Fatalf("expected 2 stored tags, got %d", len(tags))
	}
}

func TestReconcileTagsRejectsLongNames(t *testing.T) {
	s := setupStore(t)
	u := mustUser(t, s, "a@example.com")

	long := fmt.Sprintf("%051d", 0)
	if _, err := s.ReconcileTags(context.Background(), u.ID, []string{"ok", long}); !errors.Is(err, ErrTagNameTooLong) {
		t.Fatalf("expected ErrTagNameTooLong, got %v", err)
	}
	tags, _ := s.ListTags(context.Background(), u.ID, "")
	if len(tags) != 0 {
		t.Fatalf("no tag should be created on rejection, got %v", tagNames(tags))
	}
}

func TestTagsArePerUser(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	a := mustUser(t, s, "a@example.com")
	b := mustUser(t, s, "b@example.com")

	idsA, err := s.ReconcileTags(ctx, a.ID, []string{"shared"})
	if err != nil {
		t.Fatalf("reconcile a: %v", err)
	}
	idsB, err := s.ReconcileTags(ctx, b.ID, []string{"shared"})
	if err != nil {
		t.Fatalf("reconcile b: %v", err)
	}
	if idsA[0] == idsB[0] {
		t.Fatal("users must not share tag rows")
	}
}

func TestUpdateTaskReplacesTags(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	u := mustUser(t, s, "a@example.com")

	task := mustTask(t, s, model.NewTask{UserID: u.ID, Title: "Write docs", Tags: []string{"a", "b"}})
	if !sameStrings(tagNames(task.Tags), []string{"a", "b"}) {
		t.Fatalf("unexpected tags after create: %v", tagNames(task.Tags))
	}

	updated, err := s.UpdateTask(ctx, task.ID, model.TaskPatch{Tags: model.Some([]string{"b", "c"})})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !sameStrings(tagNames(updated.Tags), []string{"b", "c"}) {
		t.Fatalf("unexpected tags after update: %v", tagNames(updated.Tags))
	}

	all, _ := s.ListTags(ctx, u.ID, "")
	if !sameStrings(tagNames(all), []string{"a", "b", "c"}) {
		t.Fatalf("detached tag should survive, got %v", tagNames(all))
	}

	untouched, err := s.UpdateTask(ctx, task.ID, model.TaskPatch{Title: model.Some("Write more docs")})
	if err != nil {
		t.Fatalf("update title: %v", err)
	}
	if !sameStrings(tagNames(untouched.Tags), []string{"b", "c"}) {
		t.Fatalf("omitted tags must be left alone, got %v", tagNames(untouched.Tags))
	}

	cleared, err := s.UpdateTask(ctx, task.ID, model.TaskPatch{Tags: model.Some([]string{})})
	if err != nil {
		t.Fatalf("clear tags: %v", err)
	}
	if len(cleared.Tags) != 0 {
		t.Fatalf("expected no tags, got %v", tagNames(cleared.Tags))
	}
}

// refuseTagAttach makes every task_tag insert fail, so task writes break
// after the task row and any new tags are already written.
func refuseTagAttach(t *testing.T, s *Store) {
	t.Helper()
	_, err := s.DB().ExecContext(context.Background(), `
		CREATE TRIGGER refuse_attach BEFORE INSERT ON task_tag
		BEGIN SELECT RAISE(ABORT, 'attach refused'); END`)
	if err != nil {
		t.Fatalf("create trigger: %v", err)
	}
}

func TestCreateTaskIsAtomic(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	u := mustUser(t, s, "a@example.com")
	refuseTagAttach(t, s)

	if _, err := s.CreateTask(ctx, model.NewTask{UserID: u.ID, Title: "Draft", Tags: []string{"fresh"}}); err == nil {
		t.Fatal("expected create to fail")
	}

	taken, err := s.TitleTaken(ctx, u.ID, "Draft", 0)
	if err != nil {
		t.Fatalf("title taken: %v", err)
	}
	if taken {
		t.Fatal("failed create left the task row behind")
	}
	tags, _ := s.ListTags(ctx, u.ID, "")
	if len(tags) != 0 {
		t.Fatalf("failed create left tags behind: %v", tagNames(tags))
	}
}

func TestUpdateTaskIsAtomic(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	u := mustUser(t, s, "a@example.com")
	task := mustTask(t, s, model.NewTask{UserID: u.ID, Title: "Original", Tags: []string{"a"}})
	refuseTagAttach(t, s)

	patch := model.TaskPatch{
		Title: model.Some("Renamed"),
		Tags:  model.Some([]string{"b"}),
	}
	if _, err := s.UpdateTask(ctx, task.ID, patch); err == nil {
		t.Fatal("expected update to fail")
	}

	got, err := s.FindTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.Title != "Original" {
		t.Fatalf("title changed to %q", got.Title)
	}
	if !sameStrings(tagNames(got.Tags), []string{"a"}) {
		t.Fatalf("tags = %v, want [a]", tagNames(got.Tags))
	}
	all, _ := s.ListTags(ctx, u.ID, "")
	if !sameStrings(tagNames(all), []string{"a"}) {
		t.Fatalf("failed update left tags behind: %v", tagNames(all))
	}
}

func TestUpdateTaskPartialFields(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	u := mustUser(t, s, "a@example.com")
	project, err := s.CreateProject(ctx, u.ID, "Home", nil)
	if err != nil {
		t.Fatalf("create project: %v", err)
	}

	desc := "first"
	due := time.Date(2030, 1, 2, 0, 0, 0, 0, time.UTC)
	task := mustTask(t, s, model.NewTask{
		UserID: u.ID, ProjectID: &project.ID, Title: "Paint", Description: &desc,
		DueDate: &due, Status: statusPtr(model.StatusTodo),
	})
	if task.Project == nil || task.Project.Name != "Home" {
		t.Fatalf("project not loaded: %+v", task.Project)
	}

	updated, err := s.UpdateTask(ctx, task.ID, model.TaskPatch{
		ProjectID:   model.Some[*int64](nil),
		Description: model.Some[*string](nil),
		Status:      model.Some(model.StatusDone),
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.ProjectID != nil || updated.Project != nil {
		t.Fatal("project should be cleared")
	}
	if updated.Description != nil {
		t.Fatal("description should be cleared")
	}
	if updated.Status == nil || *updated.Status != model.StatusDone {
		t.Fatalf("unexpected status %v", updated.Status)
	}
	if updated.DueDate == nil || !updated.DueDate.Equal(due) {
		t.Fatalf("due date should be untouched, got %v", updated.DueDate)
	}
	if updated.Title != "Paint" {
		t.Fatalf("title should be untouched, got %q", updated.Title)
	}

	if _, err := s.UpdateTask(ctx, 9999, model.TaskPatch{}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTaskWithoutStatusIsNull(t *testing.T) {
	s := setupStore(t)
	u := mustUser(t, s, "a@example.com")

	task := mustTask(t, s, model.NewTask{UserID: u.ID, Title: "Someday"})
	if task.Status != nil {
		t.Fatalf("expected no status, got %v", *task.Status)
	}
	if task.Tags == nil {
		t.Fatal("tags should be an empty list, not nil")
	}
}

func TestTitleUniquePerUser(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	a := mustUser(t, s, "a@example.com")
	b := mustUser(t, s, "b@example.com")

	first := mustTask(t, s, model.NewTask{UserID: a.ID, Title: "Report"})
	if _, err := s.CreateTask(ctx, model.NewTask{UserID: a.ID, Title: "Report"}); !errors.Is(err, ErrDuplicateTitle) {
		t.Fatalf("expected ErrDuplicateTitle, got %v", err)
	}
	mustTask(t, s, model.NewTask{UserID: b.ID, Title: "Report"})

	other := mustTask(t, s, model.NewTask{UserID: a.ID, Title: "Review"})
	if _, err := s.UpdateTask(ctx, other.ID, model.TaskPatch{Title: model.Some("Report")}); !errors.Is(err, ErrDuplicateTitle) {
		t.Fatalf("expected ErrDuplicateTitle on rename, got %v", err)
	}
	if _, err := s.UpdateTask(ctx, first.ID, model.TaskPatch{Title: model.Some("Report")}); err != nil {
		t.Fatalf("keeping own title must succeed: %v", err)
	}

	taken, err := s.TitleTaken(ctx, a.ID, "Report", first.ID)
	if err != nil {
		t.Fatalf("title taken: %v", err)
	}
	if taken {
		t.Fatal("a task's own title must not count as taken")
	}
}

func TestDeleteTaskKeepsTags(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	u := mustUser(t, s, "a@example.com")

	task := mustTask(t, s, model.NewTask{UserID: u.ID, Title: "Temp", Tags: []string{"keep"}})
	deleted, err := s.DeleteTask(ctx, task.ID)
	if err != nil || !deleted {
		t.Fatalf("delete: %v %v", deleted, err)
	}
	if _, err := s.FindTask(ctx, task.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	tags, _ := s.ListTags(ctx, u.ID, "")
	if !sameStrings(tagNames(tags), []string{"keep"}) {
		t.Fatalf("tag should survive task deletion, got %v", tagNames(tags))
	}

	deleted, err = s.DeleteTask(ctx, task.ID)
	if err != nil || deleted {
		t.Fatalf("second delete should report nothing deleted: %v %v", deleted, err)
	}
}

func TestDeleteTagDetachesFromTasks(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	u := mustUser(t, s, "a@example.com")

	task := mustTask(t, s, model.NewTask{UserID: u.ID, Title: "Tagged", Tags: []string{"x", "y"}})
	if _, err := s.DeleteTag(ctx, task.Tags[0].ID); err != nil {
		t.Fatalf("delete tag: %v", err)
	}
	got, err := s.FindTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if !sameStrings(tagNames(got.Tags), []string{"y"}) {
		t.Fatalf("unexpected tags %v", tagNames(got.Tags))
	}
}

func TestDeleteProjectKeepsTasks(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	u := mustUser(t, s, "a@example.com")

	project, err := s.CreateProject(ctx, u.ID, "Garden", nil)
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	task := mustTask(t, s, model.NewTask{UserID: u.ID, ProjectID: &project.ID, Title: "Water"})

	deleted, err := s.DeleteProject(ctx, project.ID)
	if err != nil || !deleted {
		t.Fatalf("delete project: %v %v", deleted, err)
	}
	got, err := s.FindTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("task should survive: %v", err)
	}
	if got.ProjectID != nil {
		t.Fatalf("project reference should be cleared, got %v", *got.ProjectID)
	}
}

func TestProjectCRUD(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	u := mustUser(t, s, "a@example.com")

	desc := "Quarterly numbers"
	p, err := s.CreateProject(ctx, u.ID, "Finance", &desc)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.CreateProject(ctx, u.ID, "Anniversary", nil); err != nil {
		t.Fatalf("create: %v", err)
	}

	list, err := s.ListProjects(ctx, u.ID, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].Name != "Anniversary" {
		t.Fatalf("expected name ordering, got %+v", list)
	}

	found, err := s.ListProjects(ctx, u.ID, "QUARTER")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(found) != 1 || found[0].ID != p.ID {
		t.Fatalf("search by description failed: %+v", found)
	}

	renamed, err := s.UpdateProject(ctx, p.ID, model.ProjectPatch{Name: model.Some("Budget")})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if renamed.Name != "Budget" || renamed.Description == nil || *renamed.Description != desc {
		t.Fatalf("unexpected project after update: %+v", renamed)
	}

	if _, err := s.UpdateProject(ctx, 9999, model.ProjectPatch{Name: model.Some("x")}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestOwnershipGuards(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	a := mustUser(t, s, "a@example.com")
	b := mustUser(t, s, "b@example.com")

	project, _ := s.CreateProject(ctx, a.ID, "Private", nil)
	task := mustTask(t, s, model.NewTask{UserID: a.ID, Title: "Secret", Tags: []string{"mine"}})

	if _, err := s.OwnedTask(ctx, a.ID, task.ID); err != nil {
		t.Fatalf("owner should see task: %v", err)
	}
	if _, err := s.OwnedTask(ctx, b.ID, task.ID); !IsNotFound(err) {
		t.Fatalf("foreign task must look missing, got %v", err)
	}
	if _, err := s.OwnedProject(ctx, b.ID, project.ID); !IsNotFound(err) {
		t.Fatalf("foreign project must look missing, got %v", err)
	}
	if _, err := s.OwnedTag(ctx, b.ID, task.Tags[0].ID); !IsNotFound(err) {
		t.Fatalf("foreign tag must look missing, got %v", err)
	}
	if _, err := s.OwnedTask(ctx, a.ID, 9999); !IsNotFound(err) {
		t.Fatalf("missing task, got %v", err)
	}
}

func TestSummarize(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	u := mustUser(t, s, "a@example.com")
	other := mustUser(t, s, "b@example.com")

	empty, err := s.Summarize(ctx, u.ID)
	if err != nil {
		t.Fatalf("summarize empty: %v", err)
	}
	if empty != (model.Summary{}) {
		t.Fatalf("expected zero summary, got %+v", empty)
	}

	counts := map[model.Status]int{model.StatusTodo: 5, model.StatusInProgress: 3, model.StatusDone: 2}
	n := 0
	for status, c := range counts {
		for i := 0; i < c; i++ {
			n++
			mustTask(t, s, model.NewTask{UserID: u.ID, Title: fmt.Sprintf("task %d", n), Status: statusPtr(status)})
		}
	}
	mustTask(t, s, model.NewTask{UserID: u.ID, Title: "no status"})
	mustTask(t, s, model.NewTask{UserID: other.ID, Title: "foreign", Status: statusPtr(model.StatusTodo)})

	sum, err := s.Summarize(ctx, u.ID)
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	want := model.Summary{Total: 10, Todo: 5, InProgress: 3, Done: 2}
	if sum != want {
		t.Fatalf("summary = %+v, want %+v", sum, want)
	}
}
