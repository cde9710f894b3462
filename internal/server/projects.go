package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"agileflow/internal/projects"
	"agileflow/internal/tasks"
)

type projectRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description string  `json:"description"`
	Color       string  `json:"color"`
	StartDate   *string `json:"startDate"`
	WIPLimit    int     `json:"wipLimit"`
	Team        []int64 `json:"team"`
}

func (r projectRequest) input() (projects.Input, error) {
	in := projects.Input{
		Name:        r.Name,
		Description: r.Description,
		Color:       r.Color,
		WIPLimit:    r.WIPLimit,
		Team:        r.Team,
	}
	for _, id := range r.Team {
		if err := tasks.ValidateID(id); err != nil {
			return in, err
		}
	}
	if r.StartDate != nil && *r.StartDate != "" {
		start, err := tasks.ParseDueDate(*r.StartDate)
		if err != nil {
			return in, fmt.Errorf("%w: invalid start date %q", projects.ErrInvalidInput, *r.StartDate)
		}
		in.StartDate = &start
	}
	return in, nil
}

// handleListProjects returns all available projects.
func (s *Server) handleListProjects(c *gin.Context) {
	list, err := s.svc.Projects.List(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, list)
}

func (s *Server) handleGetProject(c *gin.Context) {
	id, ok := s.parseID(c, "id")
	if !ok {
		return
	}
	project, err := s.svc.Projects.Get(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, project)
}

// handleCreateProject creates a new project with its team.
func (s *Server) handleCreateProject(c *gin.Context) {
	in, ok := s.bindProject(c)
	if !ok {
		return
	}
	project, err := s.svc.Projects.Create(c.Request.Context(), in)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, project)
}

// handleUpdateProject replaces the fields and team of a project.
func (s *Server) handleUpdateProject(c *gin.Context) {
	id, ok := s.parseID(c, "id")
	if !ok {
		return
	}
	in, ok := s.bindProject(c)
	if !ok {
		return
	}
	project, err := s.svc.Projects.Update(c.Request.Context(), id, in)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, project)
}

// handleDeleteProject removes a project; its tasks stay without a project.
func (s *Server) handleDeleteProject(c *gin.Context) {
	id, ok := s.parseID(c, "id")
	if !ok {
		return
	}
	if err := s.svc.Projects.Delete(c.Request.Context(), id); err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"status": "deleted"})
}

func (s *Server) bindProject(c *gin.Context) (projects.Input, bool) {
	var req projectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return projects.Input{}, false
	}
	in, err := req.input()
	if err != nil {
		s.respondError(c, err)
		return projects.Input{}, false
	}
	return in, true
}

