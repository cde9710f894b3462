// Package projects manages kanban projects and their teams.
package projects

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"agileflow/internal/models"
)

var (
	// ErrNotFound is returned when a project id does not exist.
	ErrNotFound = models.ErrProjectNotFound

	// ErrUserNotFound is returned when a team member id does not exist.
	ErrUserNotFound = models.ErrUserNotFound

	// ErrNameTaken is returned when another project already uses the name.
	// Names are compared case-insensitively.
	ErrNameTaken = models.ErrProjectNameTaken

	// ErrInvalidInput is returned for missing names or bad WIP limits.
	ErrInvalidInput = errors.New("invalid project input")
)

// palette holds the colours handed out to projects created without one.
var palette = []string{
	"#2563eb", // blue-600
	"#7c3aed", // violet-600
	"#dc2626", // red-600
	"#059669", // green-600
	"#ea580c", // orange-600
	"#d97706", // amber-600
	"#0ea5e9", // sky-500
}

// Store persists projects.
type Store interface {
	ListProjects(ctx context.Context) ([]models.Project, error)
	FindProjectByID(ctx context.Context, id int64) (*models.Project, error)
	CreateProject(ctx context.Context, p *models.Project) error
	UpdateProject(ctx context.Context, p *models.Project) error
	DeleteProject(ctx context.Context, id int64) (int64, error)
	FindUserByID(ctx context.Context, id int64) (*models.User, error)
}

// Service implements project operations.
type Service struct {
	store  Store
	logger *slog.Logger
}

// NewService wires a project service.
func NewService(store Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger}
}

// Input is the payload for creating or replacing a project.
type Input struct {
	Name        string
	Description string
	Color       string
	StartDate   *time.Time
	WIPLimit    int
	Team        []int64
}

// List returns every project with its team.
func (s *Service) List(ctx context.Context) ([]models.Project, error) {
	projects, err := s.store.ListProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	if projects == nil {
		projects = []models.Project{}
	}
	return projects, nil
}

// Get returns one project.
func (s *Service) Get(ctx context.Context, id int64) (*models.Project, error) {
	project, err := s.store.FindProjectByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get project %d: %w", id, err)
	}
	if project == nil {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return project, nil
}

// Create stores a new project. A missing colour is picked from the palette
// and a zero WIP limit falls back to the default.
func (s *Service) Create(ctx context.Context, in Input) (*models.Project, error) {
	project := &models.Project{}
	if err := s.apply(ctx, project, in); err != nil {
		return nil, err
	}
	if err := s.store.CreateProject(ctx, project); err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	s.logger.Info("project created", slog.Int64("project_id", project.ID), slog.String("name", project.Name))
	return project, nil
}

// Update replaces the fields and team of a project.
func (s *Service) Update(ctx context.Context, id int64, in Input) (*models.Project, error) {
	project, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Color == "" {
		in.Color = project.Color
	}
	if err := s.apply(ctx, project, in); err != nil {
		return nil, err
	}
	if err := s.store.UpdateProject(ctx, project); err != nil {
		return nil, fmt.Errorf("update project %d: %w", id, err)
	}
	s.logger.Info("project updated", slog.Int64("project_id", id))
	return project, nil
}

// Delete removes a project. Its tasks stay on the board without a project.
func (s *Service) Delete(ctx context.Context, id int64) error {
	affected, err := s.store.DeleteProject(ctx, id)
	if err != nil {
		return fmt.Errorf("delete project %d: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	s.logger.Info("project deleted", slog.Int64("project_id", id))
	return nil
}

func (s *Service) apply(ctx context.Context, project *models.Project, in Input) error {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return fmt.Errorf("%w: project name must not be empty", ErrInvalidInput)
	}
	wip := in.WIPLimit
	if wip == 0 {
		wip = models.DefaultWIPLimit
	}
	if wip < 1 {
		return fmt.Errorf("%w: wip limit must be at least 1, got %d", ErrInvalidInput, in.WIPLimit)
	}
	if err := s.checkName(ctx, name, project.ID); err != nil {
		return err
	}

	members := make([]models.User, 0, len(in.Team))
	seen := map[int64]bool{}
	for _, id := range in.Team {
		if seen[id] {
			continue
		}
		seen[id] = true
		user, err := s.store.FindUserByID(ctx, id)
		if err != nil {
			return fmt.Errorf("lookup user %d: %w", id, err)
		}
		if user == nil {
			return fmt.Errorf("%w: %d", ErrUserNotFound, id)
		}
		members = append(members, *user)
	}

	color := strings.TrimSpace(in.Color)
	if color == "" {
		color = randomPaletteColor()
	}

	project.Name = name
	project.Description = strings.TrimSpace(in.Description)
	project.Color = color
	project.StartDate = in.StartDate
	project.WIPLimit = wip
	project.Members = members
	return nil
}

// checkName rejects a name already used by a project other than selfID.
func (s *Service) checkName(ctx context.Context, name string, selfID int64) error {
	projects, err := s.store.ListProjects(ctx)
	if err != nil {
		return fmt.Errorf("lookup project name: %w", err)
	}
	for _, p := range projects {
		if p.ID != selfID && strings.EqualFold(p.Name, name) {
			return fmt.Errorf("%w: %q", ErrNameTaken, name)
		}
	}
	return nil
}

func randomPaletteColor() string {
	return palette[rand.IntN(len(palette))]
}
