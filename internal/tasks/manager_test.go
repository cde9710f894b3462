package tasks

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"agileflow/internal/models"
	"agileflow/internal/storage/memory"
)

type fixture struct {
	store   *memory.Store
	manager *Manager
	project *models.Project
	alice   *models.User
	bob     *models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	ctx := context.Background()
	store := memory.New()

	alice := &models.User{Username: "alice", Email: "alice@example.com", Role: models.RoleMember}
	if err := store.CreateUser(ctx, alice); err != nil {
		t.Fatalf("create user: %v", err)
	}
	bob := &models.User{Username: "bob", Email: "bob@example.com", Role: models.RoleAdmin}
	if err := store.CreateUser(ctx, bob); err != nil {
		t.Fatalf("create user: %v", err)
	}
	project := &models.Project{Name: "Website", WIPLimit: 3}
	if err := store.CreateProject(ctx, project); err != nil {
		t.Fatalf("create project: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &fixture{
		store:   store,
		manager: NewManager(store, store, logger),
		project: project,
		alice:   alice,
		bob:     bob,
	}
}

func ptr[T any](v T) *T { return &v }

func (f *fixture) createTask(t *testing.T, in CreateInput) *models.Task {
	t.Helper()
	task, err := f.manager.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	return task
}

func countTasks(t *testing.T, store *memory.Store) int {
	t.Helper()
	all, err := store.ListTasks(context.Background(), models.TaskFilter{})
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	return len(all)
}

func TestCreateDefaultsToTodoWithProject(t *testing.T) {
	f := newFixture(t)

	task := f.createTask(t, CreateInput{Title: "Design login page", ProjectID: &f.project.ID})

	if task.ID == 0 {
		t.Fatalf("expected generated id")
	}
	if task.Status != models.StatusTodo {
		t.Fatalf("expected status todo, got %q", task.Status)
	}
	if task.Project == nil || task.Project.ID != f.project.ID {
		t.Fatalf("expected project %d, got %+v", f.project.ID, task.Project)
	}
	if task.Assignee != nil || task.AssigneeID != nil {
		t.Fatalf("expected no assignee, got %+v", task.Assignee)
	}
}

func TestCreateWithStatusAndAssignee(t *testing.T) {
	f := newFixture(t)
	due := time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)

	task := f.createTask(t, CreateInput{
		Title:       "Write release notes",
		Description: ptr("for 1.2"),
		DueDate:     "2026-11-01",
		Status:      "ONGOING",
		AssigneeID:  &f.alice.ID,
	})

	if task.Status != models.StatusOngoing {
		t.Fatalf("expected status ongoing, got %q", task.Status)
	}
	if task.Assignee == nil || task.Assignee.ID != f.alice.ID {
		t.Fatalf("expected assignee alice, got %+v", task.Assignee)
	}
	if task.ProjectID != nil {
		t.Fatalf("expected no project, got %d", *task.ProjectID)
	}
	if task.DueDate == nil || !task.DueDate.Equal(due) {
		t.Fatalf("expected due date %s, got %v", due, task.DueDate)
	}
}

func TestCreateFailures(t *testing.T) {
	missing := int64(999)

	tests := []struct {
		name string
		in   CreateInput
		want error
	}{
		{"empty title", CreateInput{Title: "   "}, ErrEmptyTitle},
		{"invalid status", CreateInput{Title: "x", Status: "in_progress"}, ErrInvalidStatus},
		{"missing project", CreateInput{Title: "x", ProjectID: &missing}, ErrProjectNotFound},
		{"missing assignee", CreateInput{Title: "x", AssigneeID: &missing}, ErrUserNotFound},
		{"bad due date", CreateInput{Title: "x", DueDate: "someday"}, ErrInvalidDueDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.manager.Create(context.Background(), tt.in)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if n := countTasks(t, f.store); n != 0 {
				t.Fatalf("expected no stored tasks, got %d", n)
			}
		})
	}
}

func TestFindOneAndRemove(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.createTask(t, CreateInput{Title: "a", ProjectID: &f.project.ID, AssigneeID: &f.bob.ID})

	found, err := f.manager.FindOne(ctx, task.ID)
	if err != nil {
		t.Fatalf("find one: %v", err)
	}
	if found.Project == nil || found.Assignee == nil {
		t.Fatalf("expected relations resolved, got %+v", found)
	}

	if err := f.manager.Remove(ctx, task.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := f.manager.FindOne(ctx, task.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after remove, got %v", err)
	}
	if err := f.manager.Remove(ctx, task.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second remove, got %v", err)
	}
}

func TestUpdateAssigneeThreeWay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.createTask(t, CreateInput{Title: "a", AssigneeID: &f.alice.ID})

	t.Run("omitted keeps assignee", func(t *testing.T) {
		updated, err := f.manager.Update(ctx, task.ID, UpdateInput{})
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		if updated.AssigneeID == nil || *updated.AssigneeID != f.alice.ID {
			t.Fatalf("expected assignee kept, got %v", updated.AssigneeID)
		}
	})

	t.Run("set changes assignee", func(t *testing.T) {
		updated, err := f.manager.Update(ctx, task.ID, UpdateInput{AssigneeID: Set(f.bob.ID)})
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		if updated.Assignee == nil || updated.Assignee.ID != f.bob.ID {
			t.Fatalf("expected bob, got %+v", updated.Assignee)
		}
	})

	t.Run("null clears assignee", func(t *testing.T) {
		updated, err := f.manager.Update(ctx, task.ID, UpdateInput{AssigneeID: Clear[int64]()})
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		if updated.AssigneeID != nil || updated.Assignee != nil {
			t.Fatalf("expected assignee cleared, got %v", updated.AssigneeID)
		}
	})
}

func TestUpdateRelationsAreIndependent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.createTask(t, CreateInput{Title: "a", ProjectID: &f.project.ID, AssigneeID: &f.alice.ID})

	updated, err := f.manager.Update(ctx, task.ID, UpdateInput{ProjectID: Clear[int64]()})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.ProjectID != nil {
		t.Fatalf("expected project cleared")
	}
	if updated.AssigneeID == nil || *updated.AssigneeID != f.alice.ID {
		t.Fatalf("expected assignee untouched, got %v", updated.AssigneeID)
	}
}

func TestUpdateScalars(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.createTask(t, CreateInput{Title: "old", Description: ptr("desc"), DueDate: "2026-06-01"})
	due := time.Date(2026, 12, 24, 0, 0, 0, 0, time.UTC)

	updated, err := f.manager.Update(ctx, task.ID, UpdateInput{
		Title:       Set("  new  "),
		Description: Clear[string](),
		DueDate:     Set("2026-12-24"),
		Status:      Set("done"),
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Title != "new" {
		t.Errorf("expected title new, got %q", updated.Title)
	}
	if updated.Description != nil {
		t.Errorf("expected description cleared, got %q", *updated.Description)
	}
	if updated.DueDate == nil || !updated.DueDate.Equal(due) {
		t.Errorf("expected due date %s, got %v", due, updated.DueDate)
	}
	if updated.Status != models.StatusDone {
		t.Errorf("expected status done, got %q", updated.Status)
	}
}

func TestUpdateFailuresLeaveTaskUntouched(t *testing.T) {
	tests := []struct {
		name string
		in   UpdateInput
		want error
	}{
		{"missing project", UpdateInput{Title: Set("changed"), ProjectID: Set(int64(404))}, ErrProjectNotFound},
		{"missing user", UpdateInput{Title: Set("changed"), AssigneeID: Set(int64(404))}, ErrUserNotFound},
		{"cleared title", UpdateInput{Title: Clear[string]()}, ErrEmptyTitle},
		{"blank title", UpdateInput{Title: Set(" ")}, ErrEmptyTitle},
		{"bad status", UpdateInput{Title: Set("changed"), Status: Set("bogus")}, ErrInvalidStatus},
		{"cleared status", UpdateInput{Status: Clear[string]()}, ErrInvalidStatus},
		{"bad due date", UpdateInput{Title: Set("changed"), DueDate: Set("someday")}, ErrInvalidDueDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			task := f.createTask(t, CreateInput{Title: "original", AssigneeID: &f.alice.ID})

			if _, err := f.manager.Update(ctx, task.ID, tt.in); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}

			stored, err := f.store.GetTask(ctx, task.ID)
			if err != nil {
				t.Fatalf("get task: %v", err)
			}
			if stored.Title != "original" {
				t.Fatalf("expected title unchanged, got %q", stored.Title)
			}
			if stored.AssigneeID == nil || *stored.AssigneeID != f.alice.ID {
				t.Fatalf("expected assignee unchanged")
			}
		})
	}
}

func TestUpdateUnknownTask(t *testing.T) {
	f := newFixture(t)
	if _, err := f.manager.Update(context.Background(), 77, UpdateInput{}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	// The task is looked up before any field is parsed.
	if _, err := f.manager.Update(context.Background(), 77, UpdateInput{DueDate: Set("someday")}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound before due date parsing, got %v", err)
	}
}

func TestBlankDueDateMeansNone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	task := f.createTask(t, CreateInput{Title: "a", DueDate: "  "})
	if task.DueDate != nil {
		t.Fatalf("expected no due date, got %v", task.DueDate)
	}

	if _, err := f.manager.Update(ctx, task.ID, UpdateInput{DueDate: Set("2026-03-01")}); err != nil {
		t.Fatalf("update: %v", err)
	}
	for _, in := range []UpdateInput{{DueDate: Set("")}, {DueDate: Clear[string]()}} {
		if _, err := f.manager.Update(ctx, task.ID, UpdateInput{DueDate: Set("2026-03-01")}); err != nil {
			t.Fatalf("update: %v", err)
		}
		updated, err := f.manager.Update(ctx, task.ID, in)
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		if updated.DueDate != nil {
			t.Fatalf("expected due date cleared by %s, got %v", in.DueDate.State(), updated.DueDate)
		}
	}
}

func TestUpdateStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.createTask(t, CreateInput{Title: "a", ProjectID: &f.project.ID})

	for _, status := range []models.Status{models.StatusDone, models.StatusReady, models.StatusOnHold, models.StatusTodo, models.StatusOngoing} {
		updated, err := f.manager.UpdateStatus(ctx, task.ID, string(status))
		if err != nil {
			t.Fatalf("update status %s: %v", status, err)
		}
		if updated.Status != status {
			t.Fatalf("expected %q, got %q", status, updated.Status)
		}
		if updated.Project == nil || updated.Project.ID != f.project.ID {
			t.Fatalf("status change must not touch the project")
		}
	}
}

func TestUpdateStatusRejectsBogusValue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.createTask(t, CreateInput{Title: "a", Status: "ready"})

	if _, err := f.manager.UpdateStatus(ctx, task.ID, "bogus"); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
	stored, _ := f.store.GetTask(ctx, task.ID)
	if stored.Status != models.StatusReady {
		t.Fatalf("expected status unchanged, got %q", stored.Status)
	}
}

func TestUpdateStatusChecksValueBeforeTask(t *testing.T) {
	f := newFixture(t)
	if _, err := f.manager.UpdateStatus(context.Background(), 404, "bogus"); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
	if _, err := f.manager.UpdateStatus(context.Background(), 404, "done"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAssignTask(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.createTask(t, CreateInput{Title: "a", AssigneeID: &f.alice.ID})

	for i := 0; i < 2; i++ {
		assigned, err := f.manager.AssignTask(ctx, task.ID, f.bob.ID)
		if err != nil {
			t.Fatalf("assign: %v", err)
		}
		if assigned.Assignee == nil || assigned.Assignee.ID != f.bob.ID {
			t.Fatalf("expected bob, got %+v", assigned.Assignee)
		}
	}
}

func TestAssignTaskFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.createTask(t, CreateInput{Title: "a", AssigneeID: &f.alice.ID})

	if _, err := f.manager.AssignTask(ctx, task.ID, 42); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	stored, _ := f.store.GetTask(ctx, task.ID)
	if stored.AssigneeID == nil || *stored.AssigneeID != f.alice.ID {
		t.Fatalf("expected assignee unchanged")
	}

	if _, err := f.manager.AssignTask(ctx, 404, f.bob.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUnassignTaskIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.createTask(t, CreateInput{Title: "a", AssigneeID: &f.alice.ID, ProjectID: &f.project.ID})

	for i := 0; i < 2; i++ {
		unassigned, err := f.manager.UnassignTask(ctx, task.ID)
		if err != nil {
			t.Fatalf("unassign #%d: %v", i+1, err)
		}
		if unassigned.AssigneeID != nil {
			t.Fatalf("expected no assignee")
		}
		if unassigned.ProjectID == nil {
			t.Fatalf("unassign must not touch the project")
		}
	}

	if _, err := f.manager.UnassignTask(ctx, 404); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
