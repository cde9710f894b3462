// Package server exposes the board over a JSON HTTP API built on gin.
package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"agileflow/internal/auth"
	"agileflow/internal/projects"
	"agileflow/internal/tasks"
	"agileflow/internal/users"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services are the domain services the handlers call into.
type Services struct {
	Tasks    *tasks.Manager
	Projects *projects.Service
	Users    *users.Service
	Tokens   *auth.Tokens
	// Store is optional; when set /healthz pings it.
	Store Pinger
}

// Options tune the HTTP surface.
type Options struct {
	StaticDir    string
	CORSOrigin   string
	RequireToken bool
}

// Server provides HTTP handlers for the agile board backend.
type Server struct {
	engine *gin.Engine
	svc    Services
	logger *slog.Logger
	opts   Options
}

// New constructs the HTTP server with routes and middleware configured.
func New(svc Services, logger *slog.Logger, opts Options) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.LoggerWithWriter(gin.DefaultWriter, "/api"))

	srv := &Server{
		engine: router,
		svc:    svc,
		logger: logger,
		opts:   opts,
	}
	router.Use(srv.requestID)
	if opts.CORSOrigin != "" {
		router.Use(srv.cors)
	}

	srv.registerRoutes()
	return srv
}

// Engine exposes the underlying Gin engine.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// registerRoutes wires all API and static handlers together.
func (s *Server) registerRoutes() {
	api := s.engine.Group("/api")
	api.GET("/healthz", s.handleHealth)

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", s.handleRegister)
		authGroup.POST("/login", s.handleLogin)
		authGroup.POST("/forgot-password", s.handleForgotPassword)
	}

	protected := api.Group("")
	if s.opts.RequireToken {
		protected.Use(s.requireToken)
	}

	usersGroup := protected.Group("/users")
	{
		usersGroup.GET("", s.handleListUsers)
		usersGroup.POST("", s.handleCreateUser)
		usersGroup.GET(":id", s.handleGetUser)
		usersGroup.PATCH(":id", s.handleUpdateUser)
		usersGroup.DELETE(":id", s.handleDeleteUser)
	}

	projectsGroup := protected.Group("/projects")
	{
		projectsGroup.GET("", s.handleListProjects)
		projectsGroup.POST("", s.handleCreateProject)
		projectsGroup.GET(":id", s.handleGetProject)
		projectsGroup.PUT(":id", s.handleUpdateProject)
		projectsGroup.DELETE(":id", s.handleDeleteProject)
		projectsGroup.GET(":id/tasks", s.handleProjectTasks)
	}

	tasksGroup := protected.Group("/tasks")
	{
		tasksGroup.GET("", s.handleListTasks)
		tasksGroup.POST("", s.handleCreateTasks)
		tasksGroup.GET("unassigned", s.handleUnassignedTasks)
		tasksGroup.GET("project/:projectId", s.handleTasksByProject)
		tasksGroup.GET("assignee/:userId", s.handleTasksByAssignee)
		tasksGroup.GET(":id", s.handleGetTask)
		tasksGroup.PUT(":id", s.handleUpdateTask)
		tasksGroup.DELETE(":id", s.handleDeleteTask)
		tasksGroup.PUT(":id/status", s.handleUpdateStatus)
		tasksGroup.PUT(":id/assign", s.handleAssignTask)
		tasksGroup.PUT(":id/unassign", s.handleUnassignTask)
	}

	s.mountStatic()
}

// handleHealth provides a basic readiness endpoint.
func (s *Server) handleHealth(c *gin.Context) {
	if s.svc.Store != nil {
		if err := s.svc.Store.Ping(c.Request.Context()); err != nil {
			s.logger.Error("health check failed", slog.String("error", err.Error()))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// parseID converts a path parameter to a positive int64, answering 400 otherwise.
func (s *Server) parseID(c *gin.Context, name string) (int64, bool) {
	id, err := tasks.ParseID(c.Param(name))
	if err != nil {
		s.respondError(c, err)
		return 0, false
	}
	return id, true
}

// respondError logs the error and returns a JSON payload with the mapped status.
func (s *Server) respondError(c *gin.Context, err error) {
	status := statusFor(err)
	attrs := []any{
		slog.String("path", c.FullPath()),
		slog.String("request_id", c.GetString(requestIDKey)),
		slog.Int("status", status),
		slog.String("error", err.Error()),
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", attrs...)
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}
	s.logger.Info("request rejected", attrs...)
	c.JSON(status, gin.H{"error": err.Error()})
}

// respondSuccess writes payload as JSON, or only the status when payload is nil.
func respondSuccess(c *gin.Context, status int, payload any) {
	if payload == nil {
		c.Status(status)
		return
	}
	c.JSON(status, payload)
}
