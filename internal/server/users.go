package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"agileflow/internal/users"
)

type createUserRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role"`
}

// updateUserRequest leaves empty fields unchanged.
type updateUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" binding:"required"`
}

func (s *Server) handleRegister(c *gin.Context) {
	s.createUser(c)
}

func (s *Server) handleCreateUser(c *gin.Context) {
	s.createUser(c)
}

func (s *Server) createUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	user, err := s.svc.Users.Create(c.Request.Context(), users.CreateInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, user)
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	result, err := s.svc.Users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, result)
}

// handleForgotPassword resets the password and hands the new one back.
func (s *Server) handleForgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	password, err := s.svc.Users.ForgotPassword(c.Request.Context(), req.Email)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"newPassword": password})
}

// handleListUsers lists every user, or only those holding ?role=.
func (s *Server) handleListUsers(c *gin.Context) {
	ctx := c.Request.Context()
	if role, ok := c.GetQuery("role"); ok {
		list, err := s.svc.Users.FindByRole(ctx, role)
		if err != nil {
			s.respondError(c, err)
			return
		}
		respondSuccess(c, http.StatusOK, list)
		return
	}
	list, err := s.svc.Users.List(ctx)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, list)
}

func (s *Server) handleGetUser(c *gin.Context) {
	id, ok := s.parseID(c, "id")
	if !ok {
		return
	}
	user, err := s.svc.Users.Get(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, user)
}

func (s *Server) handleUpdateUser(c *gin.Context) {
	id, ok := s.parseID(c, "id")
	if !ok {
		return
	}
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	user, err := s.svc.Users.Update(c.Request.Context(), id, users.UpdateInput{
		Username: req.Username,
		Email:    req.Email,
		Role:     req.Role,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, user)
}

// handleDeleteUser removes a user; their tasks become unassigned.
func (s *Server) handleDeleteUser(c *gin.Context) {
	id, ok := s.parseID(c, "id")
	if !ok {
		return
	}
	if err := s.svc.Users.Delete(c.Request.Context(), id); err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"status": "deleted"})
}
