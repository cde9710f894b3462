package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"agileflow/internal/models"
)

const userColumns = `id, username, email, password_hash, role, created_at`

func scanUser(row rowScanner) (models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt)
	return u, err
}

func (s *Store) findUser(ctx context.Context, where string, arg any) (*models.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE `+where, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// FindUserByID returns a user or nil when absent.
func (s *Store) FindUserByID(ctx context.Context, id int64) (*models.User, error) {
	return s.findUser(ctx, `id = ?`, id)
}

// FindUserByEmail relies on the NOCASE collation of the email column.
func (s *Store) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findUser(ctx, `email = ?`, email)
}

// ListUsers returns users with role, or every user when role is empty.
func (s *Store) ListUsers(ctx context.Context, role models.Role) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users`
	var args []any
	if role != "" {
		query += ` WHERE role = ?`
		args = append(args, role)
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// CreateUser inserts a user.
func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	now := s.now()
	res, err := s.db.ExecContext(ctx, `INSERT INTO users(username, email, password_hash, role, created_at) VALUES(?, ?, ?, ?, ?)`,
		u.Username, u.Email, u.PasswordHash, u.Role, now)
	if isUniqueViolation(err) {
		return fmt.Errorf("insert user: %w: %s", models.ErrEmailTaken, u.Email)
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("user id: %w", err)
	}
	u.ID = id
	u.CreatedAt = now
	return nil
}

// UpdateUser rewrites the mutable columns of a user.
func (s *Store) UpdateUser(ctx context.Context, u *models.User) error {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET username = ?, email = ?, password_hash = ?, role = ? WHERE id = ?`,
		u.Username, u.Email, u.PasswordHash, u.Role, u.ID)
	if isUniqueViolation(err) {
		return fmt.Errorf("update user: %w: %s", models.ErrEmailTaken, u.Email)
	}
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("update user: %w: %d", models.ErrUserNotFound, u.ID)
	}
	return nil
}

// DeleteUser removes a user. Foreign keys unassign its tasks and drop its
// team memberships.
func (s *Store) DeleteUser(ctx context.Context, id int64) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return 0, fmt.Errorf("delete user: %w", err)
	}
	return res.RowsAffected()
}
