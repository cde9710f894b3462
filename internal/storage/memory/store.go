// Package memory is a map-backed store used by tests and the in-process
// demo mode. It mirrors the relational behaviour of the SQL stores:
// deleting a user unassigns its tasks and deleting a project detaches them.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"agileflow/internal/models"
)

type projectRow struct {
	project models.Project
	members []int64
}

// Store keeps every entity in memory.
type Store struct {
	mu       sync.RWMutex
	seq      map[string]int64
	tasks    map[int64]models.Task
	projects map[int64]projectRow
	users    map[int64]models.User
	now      func() time.Time
}

// New returns an empty store.
func New() *Store {
	return &Store{
		seq:      map[string]int64{},
		tasks:    map[int64]models.Task{},
		projects: map[int64]projectRow{},
		users:    map[int64]models.User{},
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Ping always succeeds.
func (s *Store) Ping(ctx context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() error { return nil }

// id hands out ids per table, like AUTOINCREMENT.
func (s *Store) id(table string) int64 {
	s.seq[table]++
	return s.seq[table]
}

// GetTask returns a copy of a task or nil when absent.
func (s *Store) GetTask(ctx context.Context, id int64) (*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tasks[id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

// SaveTask inserts or updates a task.
func (s *Store) SaveTask(ctx context.Context, t *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.ProjectID != nil {
		if _, ok := s.projects[*t.ProjectID]; !ok {
			return fmt.Errorf("save task: %w: %d", models.ErrProjectNotFound, *t.ProjectID)
		}
	}
	if t.AssigneeID != nil {
		if _, ok := s.users[*t.AssigneeID]; !ok {
			return fmt.Errorf("save task: %w: %d", models.ErrUserNotFound, *t.AssigneeID)
		}
	}

	now := s.now()
	if t.ID == 0 {
		t.ID = s.id("tasks")
		t.CreatedAt = now
	} else {
		existing, ok := s.tasks[t.ID]
		if !ok {
			return fmt.Errorf("save task: %w: %d", models.ErrTaskNotFound, t.ID)
		}
		t.CreatedAt = existing.CreatedAt
	}
	t.UpdatedAt = now

	stored := *t
	stored.Project = nil
	stored.Assignee = nil
	s.tasks[t.ID] = stored
	return nil
}

// DeleteTask removes a task.
func (s *Store) DeleteTask(ctx context.Context, id int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[id]; !ok {
		return 0, nil
	}
	delete(s.tasks, id)
	return 1, nil
}

// ListTasks returns matching tasks ordered by id.
func (s *Store) ListTasks(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var tasks []models.Task
	for _, t := range s.tasks {
		if filter.Matches(t) {
			tasks = append(tasks, t)
		}
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })
	return tasks, nil
}

// FindProjectByID returns a project with its members or nil when absent.
func (s *Store) FindProjectByID(ctx context.Context, id int64) (*models.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.projects[id]
	if !ok {
		return nil, nil
	}
	p := s.materialize(row)
	return &p, nil
}

// ListProjects returns every project ordered by id.
func (s *Store) ListProjects(ctx context.Context) ([]models.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	projects := make([]models.Project, 0, len(s.projects))
	for _, row := range s.projects {
		projects = append(projects, s.materialize(row))
	}
	sort.Slice(projects, func(i, j int) bool { return projects[i].ID < projects[j].ID })
	return projects, nil
}

// CreateProject stores a new project and its members.
func (s *Store) CreateProject(ctx context.Context, p *models.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.projects {
		if strings.EqualFold(existing.project.Name, p.Name) {
			return fmt.Errorf("insert project: %w: %q", models.ErrProjectNameTaken, p.Name)
		}
	}
	members, err := s.memberIDs(p.Members)
	if err != nil {
		return err
	}

	now := s.now()
	p.ID = s.id("projects")
	p.CreatedAt = now
	p.UpdatedAt = now
	s.projects[p.ID] = projectRow{project: *p, members: members}
	*p = s.materialize(s.projects[p.ID])
	return nil
}

// UpdateProject replaces the stored project, members included.
func (s *Store) UpdateProject(ctx context.Context, p *models.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.projects[p.ID]
	if !ok {
		return fmt.Errorf("update project: %w: %d", models.ErrProjectNotFound, p.ID)
	}
	for id, other := range s.projects {
		if id != p.ID && strings.EqualFold(other.project.Name, p.Name) {
			return fmt.Errorf("update project: %w: %q", models.ErrProjectNameTaken, p.Name)
		}
	}
	members, err := s.memberIDs(p.Members)
	if err != nil {
		return err
	}

	p.CreatedAt = existing.project.CreatedAt
	p.UpdatedAt = s.now()
	s.projects[p.ID] = projectRow{project: *p, members: members}
	*p = s.materialize(s.projects[p.ID])
	return nil
}

// DeleteProject removes a project and detaches its tasks.
func (s *Store) DeleteProject(ctx context.Context, id int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projects[id]; !ok {
		return 0, nil
	}
	delete(s.projects, id)
	for taskID, t := range s.tasks {
		if t.ProjectID != nil && *t.ProjectID == id {
			t.ProjectID = nil
			s.tasks[taskID] = t
		}
	}
	return 1, nil
}

// FindUserByID returns a user or nil when absent.
func (s *Store) FindUserByID(ctx context.Context, id int64) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

// FindUserByEmail matches emails case-insensitively.
func (s *Store) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, nil
}

// ListUsers returns users with the given role, or all users for an empty role.
func (s *Store) ListUsers(ctx context.Context, role models.Role) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := []models.User{}
	for _, u := range s.users {
		if role == "" || u.Role == role {
			users = append(users, u)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

// CreateUser stores a new user. Emails are unique.
func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return fmt.Errorf("insert user: %w: %s", models.ErrEmailTaken, u.Email)
		}
	}
	u.ID = s.id("users")
	u.CreatedAt = s.now()
	s.users[u.ID] = *u
	return nil
}

// UpdateUser replaces a stored user.
func (s *Store) UpdateUser(ctx context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.users[u.ID]
	if !ok {
		return fmt.Errorf("update user: %w: %d", models.ErrUserNotFound, u.ID)
	}
	for id, other := range s.users {
		if id != u.ID && strings.EqualFold(other.Email, u.Email) {
			return fmt.Errorf("update user: %w: %s", models.ErrEmailTaken, u.Email)
		}
	}
	u.CreatedAt = existing.CreatedAt
	s.users[u.ID] = *u
	return nil
}

// DeleteUser removes a user, unassigns its tasks and drops it from teams.
func (s *Store) DeleteUser(ctx context.Context, id int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return 0, nil
	}
	delete(s.users, id)
	for taskID, t := range s.tasks {
		if t.AssigneeID != nil && *t.AssigneeID == id {
			t.AssigneeID = nil
			s.tasks[taskID] = t
		}
	}
	for projectID, row := range s.projects {
		kept := row.members[:0:0]
		for _, m := range row.members {
			if m != id {
				kept = append(kept, m)
			}
		}
		row.members = kept
		s.projects[projectID] = row
	}
	return 1, nil
}

func (s *Store) memberIDs(members []models.User) ([]int64, error) {
	ids := make([]int64, 0, len(members))
	seen := map[int64]bool{}
	for _, m := range members {
		if _, ok := s.users[m.ID]; !ok {
			return nil, fmt.Errorf("project member: %w: %d", models.ErrUserNotFound, m.ID)
		}
		if !seen[m.ID] {
			seen[m.ID] = true
			ids = append(ids, m.ID)
		}
	}
	return ids, nil
}

// materialize must be called with the lock held.
func (s *Store) materialize(row projectRow) models.Project {
	p := row.project
	p.Members = make([]models.User, 0, len(row.members))
	for _, id := range row.members {
		if u, ok := s.users[id]; ok {
			p.Members = append(p.Members, u)
		}
	}
	return p
}
