package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"agileflow/internal/models"
)

const projectColumns = `id, name, description, color, start_date, wip_limit, created_at, updated_at`

func scanProject(row pgx.Row) (models.Project, error) {
	var p models.Project
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Color, &p.StartDate, &p.WIPLimit, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// ListProjects returns every project with its team.
func (s *Store) ListProjects(ctx context.Context) ([]models.Project, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	projects, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Project, error) {
		return scanProject(row)
	})
	if err != nil {
		return nil, fmt.Errorf("scan projects: %w", err)
	}
	for i := range projects {
		if projects[i].Members, err = loadMembers(ctx, s.pool, projects[i].ID); err != nil {
			return nil, err
		}
	}
	return projects, nil
}

// FindProjectByID returns a project with its team or nil when absent.
func (s *Store) FindProjectByID(ctx context.Context, id int64) (*models.Project, error) {
	p, err := scanProject(s.pool.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get project %d: %w", id, err)
	}
	if p.Members, err = loadMembers(ctx, s.pool, id); err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateProject inserts a project and its team in one transaction.
func (s *Store) CreateProject(ctx context.Context, p *models.Project) error {
	now := s.now()
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO projects (name, description, color, start_date, wip_limit, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $6)
			RETURNING id`,
			p.Name, p.Description, p.Color, p.StartDate, p.WIPLimit, now).Scan(&p.ID)
		if isUniqueViolation(err) {
			return fmt.Errorf("create project: %w: %q", models.ErrProjectNameTaken, p.Name)
		}
		if err != nil {
			return fmt.Errorf("create project: %w", err)
		}
		return addMembers(ctx, tx, p.ID, p.MemberIDs())
	})
	if err != nil {
		return err
	}
	p.CreatedAt = now
	p.UpdatedAt = now
	p.Members, err = loadMembers(ctx, s.pool, p.ID)
	return err
}

// UpdateProject rewrites the project and replaces its team.
func (s *Store) UpdateProject(ctx context.Context, p *models.Project) error {
	now := s.now()
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE projects SET name = $1, description = $2, color = $3, start_date = $4, wip_limit = $5, updated_at = $6
			WHERE id = $7`,
			p.Name, p.Description, p.Color, p.StartDate, p.WIPLimit, now, p.ID)
		if isUniqueViolation(err) {
			return fmt.Errorf("update project %d: %w: %q", p.ID, models.ErrProjectNameTaken, p.Name)
		}
		if err != nil {
			return fmt.Errorf("update project %d: %w", p.ID, err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("update project: %w: %d", models.ErrProjectNotFound, p.ID)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM project_members WHERE project_id = $1`, p.ID); err != nil {
			return fmt.Errorf("clear members: %w", err)
		}
		return addMembers(ctx, tx, p.ID, p.MemberIDs())
	})
	if err != nil {
		return err
	}
	p.UpdatedAt = now
	p.Members, err = loadMembers(ctx, s.pool, p.ID)
	return err
}

// DeleteProject removes a project; ON DELETE SET NULL detaches its tasks.
func (s *Store) DeleteProject(ctx context.Context, id int64) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("delete project %d: %w", id, err)
	}
	return tag.RowsAffected(), nil
}

func addMembers(ctx context.Context, q querier, projectID int64, userIDs []int64) error {
	if len(userIDs) == 0 {
		return nil
	}
	_, err := q.Exec(ctx, `
		INSERT INTO project_members (project_id, user_id)
		SELECT $1, unnest($2::bigint[])
		ON CONFLICT DO NOTHING`, projectID, userIDs)
	if err != nil {
		return fmt.Errorf("add members: %w", err)
	}
	return nil
}

func loadMembers(ctx context.Context, q querier, projectID int64) ([]models.User, error) {
	rows, err := q.Query(ctx, `
		SELECT u.id, u.username, u.email, u.password_hash, u.role, u.created_at
		FROM project_members pm JOIN users u ON u.id = pm.user_id
		WHERE pm.project_id = $1 ORDER BY u.id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("load members: %w", err)
	}
	members, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.User, error) {
		return scanUser(row)
	})
	if err != nil {
		return nil, fmt.Errorf("scan members: %w", err)
	}
	return members, nil
}
