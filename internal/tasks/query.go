package tasks

import (
	"context"
	"fmt"

	"agileflow/internal/models"
)

type relations uint8

const (
	withProject relations = 1 << iota
	withAssignee
)

// FindAll returns every task with project and assignee resolved.
func (m *Manager) FindAll(ctx context.Context) ([]models.Task, error) {
	return m.list(ctx, models.TaskFilter{}, withProject|withAssignee)
}

// FindByProject returns the tasks of one project. The raw id is validated
// before the store is queried.
func (m *Manager) FindByProject(ctx context.Context, rawProjectID string) ([]models.Task, error) {
	projectID, err := ParseID(rawProjectID)
	if err != nil {
		return nil, err
	}
	return m.list(ctx, models.TaskFilter{ProjectID: &projectID}, withProject|withAssignee)
}

// FindByAssignee returns the tasks assigned to one user.
func (m *Manager) FindByAssignee(ctx context.Context, rawUserID string) ([]models.Task, error) {
	userID, err := ParseID(rawUserID)
	if err != nil {
		return nil, err
	}
	return m.list(ctx, models.TaskFilter{AssigneeID: &userID}, withProject)
}

// FindUnassigned returns tasks without an assignee. The result is never nil.
func (m *Manager) FindUnassigned(ctx context.Context) ([]models.Task, error) {
	return m.list(ctx, models.TaskFilter{Unassigned: true}, withProject)
}

func (m *Manager) list(ctx context.Context, filter models.TaskFilter, rel relations) ([]models.Task, error) {
	found, err := m.repo.ListTasks(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	result := make([]models.Task, 0, len(found))
	r := m.newResolver()
	for i := range found {
		task := found[i]
		if !filter.Matches(task) {
			continue
		}
		task.Project = nil
		task.Assignee = nil
		if err := r.hydrate(ctx, &task, rel); err != nil {
			return nil, err
		}
		result = append(result, task)
	}
	return result, nil
}

// resolver memoises gateway lookups for the duration of one call.
type resolver struct {
	gateway  Gateway
	projects map[int64]*models.Project
	users    map[int64]*models.User
}

func (m *Manager) newResolver() *resolver {
	return &resolver{
		gateway:  m.gateway,
		projects: map[int64]*models.Project{},
		users:    map[int64]*models.User{},
	}
}

// hydrate fills in the requested relations. A reference whose target has
// vanished is left unresolved.
func (r *resolver) hydrate(ctx context.Context, task *models.Task, rel relations) error {
	if rel&withProject != 0 && task.ProjectID != nil {
		id := *task.ProjectID
		project, ok := r.projects[id]
		if !ok {
			var err error
			project, err = r.gateway.FindProjectByID(ctx, id)
			if err != nil {
				return fmt.Errorf("lookup project %d: %w", id, err)
			}
			r.projects[id] = project
		}
		task.Project = project
	}
	if rel&withAssignee != 0 && task.AssigneeID != nil {
		id := *task.AssigneeID
		user, ok := r.users[id]
		if !ok {
			var err error
			user, err = r.gateway.FindUserByID(ctx, id)
			if err != nil {
				return fmt.Errorf("lookup user %d: %w", id, err)
			}
			r.users[id] = user
		}
		task.Assignee = user
	}
	return nil
}
