package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"agileflow/internal/models"
)

const projectColumns = `id, name, description, color, start_date, wip_limit, created_at, updated_at`

func scanProject(row rowScanner) (models.Project, error) {
	var p models.Project
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Color, &p.StartDate, &p.WIPLimit, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// ListProjects returns every project with its team, ordered by id.
func (s *Store) ListProjects(ctx context.Context) ([]models.Project, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	projects := []models.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	// Members are loaded after the cursor is released; the pool holds one connection.
	for i := range projects {
		members, err := loadMembers(ctx, s.db, projects[i].ID)
		if err != nil {
			return nil, err
		}
		projects[i].Members = members
	}
	return projects, nil
}

// FindProjectByID returns a project with its team or nil when absent.
func (s *Store) FindProjectByID(ctx context.Context, id int64) (*models.Project, error) {
	p, err := scanProject(s.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	if p.Members, err = loadMembers(ctx, s.db, id); err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateProject inserts a project together with its team.
func (s *Store) CreateProject(ctx context.Context, p *models.Project) error {
	now := s.now()
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `INSERT INTO projects(name, description, color, start_date, wip_limit, created_at, updated_at)
            VALUES(?, ?, ?, ?, ?, ?, ?)`,
			p.Name, p.Description, p.Color, p.StartDate, p.WIPLimit, now, now)
		if isUniqueViolation(err) {
			return fmt.Errorf("insert project: %w: %q", models.ErrProjectNameTaken, p.Name)
		}
		if err != nil {
			return fmt.Errorf("insert project: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("project id: %w", err)
		}
		p.ID = id
		return replaceMembers(ctx, tx, id, p.MemberIDs())
	})
	if err != nil {
		return err
	}
	p.CreatedAt = now
	p.UpdatedAt = now
	p.Members, err = loadMembers(ctx, s.db, p.ID)
	return err
}

// UpdateProject rewrites the project row and its team.
func (s *Store) UpdateProject(ctx context.Context, p *models.Project) error {
	now := s.now()
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE projects SET name = ?, description = ?, color = ?, start_date = ?, wip_limit = ?, updated_at = ?
            WHERE id = ?`,
			p.Name, p.Description, p.Color, p.StartDate, p.WIPLimit, now, p.ID)
		if isUniqueViolation(err) {
			return fmt.Errorf("update project: %w: %q", models.ErrProjectNameTaken, p.Name)
		}
		if err != nil {
			return fmt.Errorf("update project: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return fmt.Errorf("update project: %w: %d", models.ErrProjectNotFound, p.ID)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM project_members WHERE project_id = ?`, p.ID); err != nil {
			return fmt.Errorf("clear members: %w", err)
		}
		return replaceMembers(ctx, tx, p.ID, p.MemberIDs())
	})
	if err != nil {
		return err
	}
	p.UpdatedAt = now
	p.Members, err = loadMembers(ctx, s.db, p.ID)
	return err
}

// DeleteProject removes a project. The foreign key detaches its tasks.
func (s *Store) DeleteProject(ctx context.Context, id int64) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return 0, fmt.Errorf("delete project: %w", err)
	}
	return res.RowsAffected()
}

func replaceMembers(ctx context.Context, exec executor, projectID int64, userIDs []int64) error {
	for _, userID := range userIDs {
		if _, err := exec.ExecContext(ctx,
			`INSERT OR IGNORE INTO project_members(project_id, user_id) VALUES(?, ?)`, projectID, userID); err != nil {
			return fmt.Errorf("add member %d: %w", userID, err)
		}
	}
	return nil
}

func loadMembers(ctx context.Context, exec executor, projectID int64) ([]models.User, error) {
	rows, err := exec.QueryContext(ctx, `SELECT u.id, u.username, u.email, u.password_hash, u.role, u.created_at
        FROM project_members pm JOIN users u ON u.id = pm.user_id
        WHERE pm.project_id = ? ORDER BY u.id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("load members: %w", err)
	}
	defer rows.Close()

	members := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, u)
	}
	return members, rows.Err()
}
