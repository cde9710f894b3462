package tasks

import (
	"context"
	"errors"
	"testing"

	"agileflow/internal/models"
)

// nilRepository returns nil slices and counts list calls.
type nilRepository struct {
	lists int
}

func (r *nilRepository) GetTask(context.Context, int64) (*models.Task, error) { return nil, nil }
func (r *nilRepository) SaveTask(context.Context, *models.Task) error        { return nil }
func (r *nilRepository) DeleteTask(context.Context, int64) (int64, error)    { return 0, nil }
func (r *nilRepository) ListTasks(context.Context, models.TaskFilter) ([]models.Task, error) {
	r.lists++
	return nil, nil
}

type emptyGateway struct{}

func (emptyGateway) FindProjectByID(context.Context, int64) (*models.Project, error) { return nil, nil }
func (emptyGateway) FindUserByID(context.Context, int64) (*models.User, error)       { return nil, nil }

func TestFindUnassignedNeverNil(t *testing.T) {
	m := NewManager(&nilRepository{}, emptyGateway{}, nil)

	tasks, err := m.FindUnassigned(context.Background())
	if err != nil {
		t.Fatalf("find unassigned: %v", err)
	}
	if tasks == nil {
		t.Fatalf("expected empty slice, got nil")
	}
	if len(tasks) != 0 {
		t.Fatalf("expected no tasks, got %d", len(tasks))
	}
}

func TestFindByProjectRejectsMalformedID(t *testing.T) {
	repo := &nilRepository{}
	m := NewManager(repo, emptyGateway{}, nil)

	for _, raw := range []string{"abc", "", "0", "-3", "1.5"} {
		_, err := m.FindByProject(context.Background(), raw)
		if !errors.Is(err, ErrInvalidIdentifier) {
			t.Fatalf("%q: expected ErrInvalidIdentifier, got %v", raw, err)
		}
		var idErr *InvalidIdentifierError
		if !errors.As(err, &idErr) || idErr.Raw != raw {
			t.Fatalf("%q: expected raw value in error, got %v", raw, err)
		}
	}
	if _, err := m.FindByAssignee(context.Background(), "abc"); !errors.Is(err, ErrInvalidIdentifier) {
		t.Fatalf("expected ErrInvalidIdentifier, got %v", err)
	}
	if repo.lists != 0 {
		t.Fatalf("store must not be queried for malformed ids, got %d calls", repo.lists)
	}
}

func TestQueries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	inProject := f.createTask(t, CreateInput{Title: "in project", ProjectID: &f.project.ID, AssigneeID: &f.alice.ID})
	loose := f.createTask(t, CreateInput{Title: "loose"})
	bobs := f.createTask(t, CreateInput{Title: "bob's", ProjectID: &f.project.ID, AssigneeID: &f.bob.ID})

	all, err := f.manager.FindAll(ctx)
	if err != nil {
		t.Fatalf("find all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 tasks, got %d", len(all))
	}
	if all[0].Project == nil || all[0].Assignee == nil {
		t.Fatalf("expected relations resolved on find all")
	}

	byProject, err := f.manager.FindByProject(ctx, "1")
	if err != nil {
		t.Fatalf("find by project: %v", err)
	}
	if got := ids(byProject); !equalIDs(got, []int64{inProject.ID, bobs.ID}) {
		t.Fatalf("unexpected project tasks %v", got)
	}
	for _, task := range byProject {
		if task.Assignee == nil {
			t.Fatalf("expected assignee resolved on task %d", task.ID)
		}
	}

	byAssignee, err := f.manager.FindByAssignee(ctx, " 2 ")
	if err != nil {
		t.Fatalf("find by assignee: %v", err)
	}
	if got := ids(byAssignee); !equalIDs(got, []int64{bobs.ID}) {
		t.Fatalf("unexpected assignee tasks %v", got)
	}
	if byAssignee[0].Project == nil {
		t.Fatalf("expected project resolved")
	}

	unassigned, err := f.manager.FindUnassigned(ctx)
	if err != nil {
		t.Fatalf("find unassigned: %v", err)
	}
	if got := ids(unassigned); !equalIDs(got, []int64{loose.ID}) {
		t.Fatalf("unexpected unassigned tasks %v", got)
	}
}

func TestFindByProjectUnknownIsEmpty(t *testing.T) {
	f := newFixture(t)
	tasks, err := f.manager.FindByProject(context.Background(), "999")
	if err != nil {
		t.Fatalf("find by project: %v", err)
	}
	if tasks == nil || len(tasks) != 0 {
		t.Fatalf("expected empty slice, got %v", tasks)
	}
}

func ids(tasks []models.Task) []int64 {
	out := make([]int64, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.ID)
	}
	return out
}

func equalIDs(a, b []int64) bool {
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
