package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"agileflow/internal/models"
)

const taskColumns = `id, title, description, status, due_date, project_id, assignee_id, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (models.Task, error) {
	var t models.Task
	err := row.Scan(&t.ID, &t.Title, &t.Description, &t.Status, &t.DueDate, &t.ProjectID, &t.AssigneeID, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

// GetTask retrieves a task by id; nil when absent.
func (s *Store) GetTask(ctx context.Context, id int64) (*models.Task, error) {
	t, err := scanTask(s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return &t, nil
}

// SaveTask inserts a new task or updates an existing one.
func (s *Store) SaveTask(ctx context.Context, t *models.Task) error {
	now := s.now()
	if t.ID == 0 {
		res, err := s.db.ExecContext(ctx, `INSERT INTO tasks(title, description, status, due_date, project_id, assignee_id, created_at, updated_at)
            VALUES(?, ?, ?, ?, ?, ?, ?, ?)`,
			t.Title, t.Description, t.Status, t.DueDate, t.ProjectID, t.AssigneeID, now, now)
		if err != nil {
			return fmt.Errorf("insert task: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("task id: %w", err)
		}
		t.ID = id
		t.CreatedAt = now
		t.UpdatedAt = now
		return nil
	}

	res, err := s.db.ExecContext(ctx, `UPDATE tasks SET title = ?, description = ?, status = ?, due_date = ?, project_id = ?, assignee_id = ?, updated_at = ?
        WHERE id = ?`,
		t.Title, t.Description, t.Status, t.DueDate, t.ProjectID, t.AssigneeID, now, t.ID)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("update task: %w: %d", models.ErrTaskNotFound, t.ID)
	}
	t.UpdatedAt = now
	return nil
}

// DeleteTask removes a task by id and reports how many rows went away.
func (s *Store) DeleteTask(ctx context.Context, id int64) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return 0, fmt.Errorf("delete task: %w", err)
	}
	return res.RowsAffected()
}

// ListTasks returns tasks matching the filter ordered by id.
func (s *Store) ListTasks(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE 1=1`
	var args []any
	if filter.ProjectID != nil {
		query += ` AND project_id = ?`
		args = append(args, *filter.ProjectID)
	}
	if filter.AssigneeID != nil {
		query += ` AND assignee_id = ?`
		args = append(args, *filter.AssigneeID)
	}
	if filter.Unassigned {
		query += ` AND assignee_id IS NULL`
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, args...)
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
