package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"agileflow/internal/models"
)

const taskColumns = `id, title, description, status, due_date, project_id, assignee_id, created_at, updated_at`

func scanTask(row pgx.Row) (models.Task, error) {
	var t models.Task
	err := row.Scan(&t.ID, &t.Title, &t.Description, &t.Status, &t.DueDate, &t.ProjectID, &t.AssigneeID, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

// GetTask retrieves a single task; nil when absent.
func (s *Store) GetTask(ctx context.Context, id int64) (*models.Task, error) {
	t, err := scanTask(s.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task %d: %w", id, err)
	}
	return &t, nil
}

// SaveTask inserts a task when it has no id yet and updates it otherwise.
func (s *Store) SaveTask(ctx context.Context, t *models.Task) error {
	now := s.now()
	if t.ID == 0 {
		err := s.pool.QueryRow(ctx, `
			INSERT INTO tasks (title, description, status, due_date, project_id, assignee_id, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
			RETURNING id, created_at, updated_at`,
			t.Title, t.Description, t.Status, t.DueDate, t.ProjectID, t.AssigneeID, now).
			Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
		if err != nil {
			return fmt.Errorf("create task: %w", err)
		}
		return nil
	}

	err := s.pool.QueryRow(ctx, `
		UPDATE tasks SET title = $1, description = $2, status = $3, due_date = $4, project_id = $5, assignee_id = $6, updated_at = $7
		WHERE id = $8
		RETURNING created_at, updated_at`,
		t.Title, t.Description, t.Status, t.DueDate, t.ProjectID, t.AssigneeID, now, t.ID).
		Scan(&t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("update task: %w: %d", models.ErrTaskNotFound, t.ID)
	}
	if err != nil {
		return fmt.Errorf("update task %d: %w", t.ID, err)
	}
	return nil
}

// DeleteTask removes a task and reports the affected row count.
func (s *Store) DeleteTask(ctx context.Context, id int64) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("delete task %d: %w", id, err)
	}
	return tag.RowsAffected(), nil
}

// ListTasks returns tasks matching filter ordered by id.
func (s *Store) ListTasks(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE TRUE`
	var args []any
	if filter.ProjectID != nil {
		args = append(args, *filter.ProjectID)
		query += fmt.Sprintf(` AND project_id = $%d`, len(args))
	}
	if filter.AssigneeID != nil {
		args = append(args, *filter.AssigneeID)
		query += fmt.Sprintf(` AND assignee_id = $%d`, len(args))
	}
	if filter.Unassigned {
		query += ` AND assignee_id IS NULL`
	}
	query += ` ORDER BY id`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}
