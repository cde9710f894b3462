// Package tasks owns the task lifecycle: creation, updates, status changes,
// assignment and the read-side projections used by the board.
//
// The manager talks to storage only through Repository and Gateway, and
// re-resolves project and user references on every call.
package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"agileflow/internal/models"
)

// Gateway resolves the entities a task can reference.
// Both methods return nil, nil when the id does not exist.
type Gateway interface {
	FindProjectByID(ctx context.Context, id int64) (*models.Project, error)
	FindUserByID(ctx context.Context, id int64) (*models.User, error)
}

// Repository persists task records.
type Repository interface {
	// GetTask returns nil, nil when the id does not exist.
	GetTask(ctx context.Context, id int64) (*models.Task, error)
	// SaveTask inserts t when t.ID is zero and updates it otherwise,
	// refreshing the id and timestamps in place.
	SaveTask(ctx context.Context, t *models.Task) error
	// DeleteTask returns the number of removed rows.
	DeleteTask(ctx context.Context, id int64) (int64, error)
	ListTasks(ctx context.Context, filter models.TaskFilter) ([]models.Task, error)
}

// Manager orchestrates task mutations and queries.
type Manager struct {
	repo    Repository
	gateway Gateway
	logger  *slog.Logger
}

// NewManager wires a manager to its collaborators.
func NewManager(repo Repository, gateway Gateway, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{repo: repo, gateway: gateway, logger: logger}
}

// CreateInput carries the fields of a new task. Nil pointers and empty
// strings are treated as omitted. DueDate is parsed with ParseDueDate.
type CreateInput struct {
	Title       string
	Description *string
	DueDate     string
	Status      string
	ProjectID   *int64
	AssigneeID  *int64
}

// UpdateInput carries a partial update. Every field distinguishes between
// unchanged, cleared and set. Setting DueDate to an empty string clears it.
type UpdateInput struct {
	Title       Field[string]
	Description Field[string]
	DueDate     Field[string]
	Status      Field[string]
	ProjectID   Field[int64]
	AssigneeID  Field[int64]
}

// Create validates the input, resolves its references and stores a new task.
// Nothing is stored when any check fails.
func (m *Manager) Create(ctx context.Context, in CreateInput) (*models.Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, ErrEmptyTitle
	}

	status := models.StatusTodo
	if in.Status != "" {
		parsed, err := models.ParseStatus(in.Status)
		if err != nil {
			return nil, err
		}
		status = parsed
	}

	due, err := parseOptionalDueDate(in.DueDate)
	if err != nil {
		return nil, err
	}

	task := &models.Task{
		Title:       title,
		Description: in.Description,
		DueDate:     due,
		Status:      status,
	}

	if in.ProjectID != nil {
		project, err := m.resolveProject(ctx, *in.ProjectID)
		if err != nil {
			return nil, err
		}
		task.ProjectID = &project.ID
		task.Project = project
	}
	if in.AssigneeID != nil {
		user, err := m.resolveUser(ctx, *in.AssigneeID)
		if err != nil {
			return nil, err
		}
		task.AssigneeID = &user.ID
		task.Assignee = user
	}

	if err := m.repo.SaveTask(ctx, task); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}

	m.logger.Info("task created",
		slog.Int64("task_id", task.ID),
		slog.String("status", string(task.Status)),
	)
	return task, nil
}

// FindOne returns a task with its project and assignee resolved.
func (m *Manager) FindOne(ctx context.Context, id int64) (*models.Task, error) {
	task, err := m.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := m.newResolver().hydrate(ctx, task, withProject|withAssignee); err != nil {
		return nil, err
	}
	return task, nil
}

// Update applies a partial update in one read-modify-write and returns the
// reloaded task. All validation and reference resolution happens before the
// write, so a failed update leaves the stored task untouched.
func (m *Manager) Update(ctx context.Context, id int64, in UpdateInput) (*models.Task, error) {
	task, err := m.load(ctx, id)
	if err != nil {
		return nil, err
	}

	switch in.Title.State() {
	case FieldCleared:
		return nil, ErrEmptyTitle
	case FieldSet:
		title, _ := in.Title.Value()
		title = strings.TrimSpace(title)
		if title == "" {
			return nil, ErrEmptyTitle
		}
		task.Title = title
	}

	switch in.Description.State() {
	case FieldCleared:
		task.Description = nil
	case FieldSet:
		description, _ := in.Description.Value()
		task.Description = &description
	}

	switch in.DueDate.State() {
	case FieldCleared:
		task.DueDate = nil
	case FieldSet:
		raw, _ := in.DueDate.Value()
		due, err := parseOptionalDueDate(raw)
		if err != nil {
			return nil, err
		}
		task.DueDate = due
	}

	switch in.Status.State() {
	case FieldCleared:
		return nil, fmt.Errorf("%w: null", ErrInvalidStatus)
	case FieldSet:
		raw, _ := in.Status.Value()
		status, err := models.ParseStatus(raw)
		if err != nil {
			return nil, err
		}
		task.Status = status
	}

	switch in.ProjectID.State() {
	case FieldCleared:
		task.ProjectID = nil
	case FieldSet:
		projectID, _ := in.ProjectID.Value()
		project, err := m.resolveProject(ctx, projectID)
		if err != nil {
			return nil, err
		}
		task.ProjectID = &project.ID
	}

	switch in.AssigneeID.State() {
	case FieldCleared:
		task.AssigneeID = nil
	case FieldSet:
		userID, _ := in.AssigneeID.Value()
		user, err := m.resolveUser(ctx, userID)
		if err != nil {
			return nil, err
		}
		task.AssigneeID = &user.ID
	}

	if err := m.repo.SaveTask(ctx, task); err != nil {
		return nil, fmt.Errorf("update task %d: %w", id, err)
	}

	m.logger.Info("task updated", slog.Int64("task_id", id))
	return m.FindOne(ctx, id)
}

// Remove deletes a task.
func (m *Manager) Remove(ctx context.Context, id int64) error {
	affected, err := m.repo.DeleteTask(ctx, id)
	if err != nil {
		return fmt.Errorf("delete task %d: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	m.logger.Info("task removed", slog.Int64("task_id", id))
	return nil
}

// UpdateStatus moves a task to another column. The incoming value is
// checked before the task is read.
func (m *Manager) UpdateStatus(ctx context.Context, id int64, raw string) (*models.Task, error) {
	status, err := models.ParseStatus(raw)
	if err != nil {
		return nil, err
	}

	task, err := m.load(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := task.Status
	task.Status = status

	if err := m.repo.SaveTask(ctx, task); err != nil {
		return nil, fmt.Errorf("update task %d status: %w", id, err)
	}

	m.logger.Info("task status changed",
		slog.Int64("task_id", id),
		slog.String("from", string(previous)),
		slog.String("to", string(status)),
	)
	if err := m.newResolver().hydrate(ctx, task, withProject|withAssignee); err != nil {
		return nil, err
	}
	return task, nil
}

// AssignTask sets the assignee, replacing any previous one.
func (m *Manager) AssignTask(ctx context.Context, taskID, userID int64) (*models.Task, error) {
	task, err := m.load(ctx, taskID)
	if err != nil {
		return nil, err
	}
	user, err := m.resolveUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	task.AssigneeID = &user.ID

	if err := m.repo.SaveTask(ctx, task); err != nil {
		return nil, fmt.Errorf("assign task %d: %w", taskID, err)
	}

	m.logger.Info("task assigned", slog.Int64("task_id", taskID), slog.Int64("user_id", userID))
	r := m.newResolver()
	r.users[user.ID] = user
	if err := r.hydrate(ctx, task, withProject|withAssignee); err != nil {
		return nil, err
	}
	return task, nil
}

// UnassignTask clears the assignee. Unassigning an unassigned task is a no-op
// that still succeeds.
func (m *Manager) UnassignTask(ctx context.Context, taskID int64) (*models.Task, error) {
	task, err := m.load(ctx, taskID)
	if err != nil {
		return nil, err
	}
	task.AssigneeID = nil

	if err := m.repo.SaveTask(ctx, task); err != nil {
		return nil, fmt.Errorf("unassign task %d: %w", taskID, err)
	}

	m.logger.Info("task unassigned", slog.Int64("task_id", taskID))
	if err := m.newResolver().hydrate(ctx, task, withProject); err != nil {
		return nil, err
	}
	return task, nil
}

// parseOptionalDueDate maps a blank value to no due date.
func parseOptionalDueDate(raw string) (*time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	due, err := ParseDueDate(raw)
	if err != nil {
		return nil, err
	}
	return &due, nil
}

func (m *Manager) load(ctx context.Context, id int64) (*models.Task, error) {
	task, err := m.repo.GetTask(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get task %d: %w", id, err)
	}
	if task == nil {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	task.Project = nil
	task.Assignee = nil
	return task, nil
}

func (m *Manager) resolveProject(ctx context.Context, id int64) (*models.Project, error) {
	project, err := m.gateway.FindProjectByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("lookup project %d: %w", id, err)
	}
	if project == nil {
		return nil, fmt.Errorf("%w: %d", ErrProjectNotFound, id)
	}
	return project, nil
}

func (m *Manager) resolveUser(ctx context.Context, id int64) (*models.User, error) {
	user, err := m.gateway.FindUserByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("lookup user %d: %w", id, err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: %d", ErrUserNotFound, id)
	}
	return user, nil
}
