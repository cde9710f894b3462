package server

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"agileflow/internal/models"
	"agileflow/internal/tasks"
)

type createTaskRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Status      string  `json:"status"`
	DueDate     *string `json:"dueDate"`
	ProjectID   *int64  `json:"projectId"`
	AssigneeID  *int64  `json:"assigneeId"`
}

func (r createTaskRequest) input() (tasks.CreateInput, error) {
	in := tasks.CreateInput{
		Title:       r.Title,
		Description: r.Description,
		Status:      r.Status,
		ProjectID:   r.ProjectID,
		AssigneeID:  r.AssigneeID,
	}
	if r.DueDate != nil {
		in.DueDate = *r.DueDate
	}
	for _, id := range []*int64{r.ProjectID, r.AssigneeID} {
		if id == nil {
			continue
		}
		if err := tasks.ValidateID(*id); err != nil {
			return in, err
		}
	}
	return in, nil
}

// updateTaskRequest tells an omitted key apart from an explicit null.
type updateTaskRequest struct {
	Title       tasks.Field[string] `json:"title"`
	Description tasks.Field[string] `json:"description"`
	Status      tasks.Field[string] `json:"status"`
	DueDate     tasks.Field[string] `json:"dueDate"`
	ProjectID   tasks.Field[int64]  `json:"projectId"`
	AssigneeID  tasks.Field[int64]  `json:"assigneeId"`
}

func (r updateTaskRequest) input() (tasks.UpdateInput, error) {
	for _, f := range []tasks.Field[int64]{r.ProjectID, r.AssigneeID} {
		if id, ok := f.Value(); ok {
			if err := tasks.ValidateID(id); err != nil {
				return tasks.UpdateInput{}, err
			}
		}
	}
	return tasks.UpdateInput{
		Title:       r.Title,
		Description: r.Description,
		Status:      r.Status,
		DueDate:     r.DueDate,
		ProjectID:   r.ProjectID,
		AssigneeID:  r.AssigneeID,
	}, nil
}

type statusRequest struct {
	Status string `json:"status"`
}

type assignRequest struct {
	UserID *int64 `json:"userId" binding:"required"`
}

// handleListTasks returns every task, or one project's tasks with ?projectId=.
func (s *Server) handleListTasks(c *gin.Context) {
	var (
		list []models.Task
		err  error
	)
	if raw := c.Query("projectId"); raw != "" {
		list, err = s.svc.Tasks.FindByProject(c.Request.Context(), raw)
	} else {
		list, err = s.svc.Tasks.FindAll(c.Request.Context())
	}
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, list)
}

func (s *Server) handleUnassignedTasks(c *gin.Context) {
	list, err := s.svc.Tasks.FindUnassigned(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, list)
}

func (s *Server) handleTasksByProject(c *gin.Context) {
	s.tasksByProject(c, c.Param("projectId"))
}

func (s *Server) handleProjectTasks(c *gin.Context) {
	s.tasksByProject(c, c.Param("id"))
}

func (s *Server) tasksByProject(c *gin.Context, raw string) {
	list, err := s.svc.Tasks.FindByProject(c.Request.Context(), raw)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, list)
}

func (s *Server) handleTasksByAssignee(c *gin.Context) {
	list, err := s.svc.Tasks.FindByAssignee(c.Request.Context(), c.Param("userId"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, list)
}

// handleCreateTasks accepts a single task object or an array of them. An
// array is created in order and stops at the first failure.
func (s *Server) handleCreateTasks(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		s.respondError(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	if trimmed := bytes.TrimSpace(body); len(trimmed) > 0 && trimmed[0] == '[' {
		var reqs []createTaskRequest
		if err := binding.JSON.BindBody(body, &reqs); err != nil {
			s.respondError(c, fmt.Errorf("%w: %v", errBadRequest, err))
			return
		}
		created := make([]models.Task, 0, len(reqs))
		for i, req := range reqs {
			task, err := s.createTask(c, req)
			if err != nil {
				s.respondError(c, fmt.Errorf("task %d: %w", i, err))
				return
			}
			created = append(created, *task)
		}
		respondSuccess(c, http.StatusCreated, created)
		return
	}

	var req createTaskRequest
	if err := binding.JSON.BindBody(body, &req); err != nil {
		s.respondError(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	task, err := s.createTask(c, req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, task)
}

func (s *Server) createTask(c *gin.Context, req createTaskRequest) (*models.Task, error) {
	in, err := req.input()
	if err != nil {
		return nil, err
	}
	return s.svc.Tasks.Create(c.Request.Context(), in)
}

func (s *Server) handleGetTask(c *gin.Context) {
	id, ok := s.parseID(c, "id")
	if !ok {
		return
	}
	task, err := s.svc.Tasks.FindOne(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, task)
}

// handleUpdateTask applies a partial update; null clears a field.
func (s *Server) handleUpdateTask(c *gin.Context) {
	id, ok := s.parseID(c, "id")
	if !ok {
		return
	}

	var req updateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	in, err := req.input()
	if err != nil {
		s.respondError(c, err)
		return
	}

	task, err := s.svc.Tasks.Update(c.Request.Context(), id, in)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, task)
}

// handleDeleteTask removes a task completely.
func (s *Server) handleDeleteTask(c *gin.Context) {
	id, ok := s.parseID(c, "id")
	if !ok {
		return
	}
	if err := s.svc.Tasks.Remove(c.Request.Context(), id); err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"status": "deleted"})
}

func (s *Server) handleUpdateStatus(c *gin.Context) {
	id, ok := s.parseID(c, "id")
	if !ok {
		return
	}
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	task, err := s.svc.Tasks.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, task)
}

func (s *Server) handleAssignTask(c *gin.Context) {
	id, ok := s.parseID(c, "id")
	if !ok {
		return
	}
	var req assignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	if err := tasks.ValidateID(*req.UserID); err != nil {
		s.respondError(c, err)
		return
	}
	task, err := s.svc.Tasks.AssignTask(c.Request.Context(), id, *req.UserID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, task)
}

func (s *Server) handleUnassignTask(c *gin.Context) {
	id, ok := s.parseID(c, "id")
	if !ok {
		return
	}
	task, err := s.svc.Tasks.UnassignTask(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, task)
}
