package server

import (
	"errors"
	"net/http"

	"agileflow/internal/auth"
	"agileflow/internal/models"
	"agileflow/internal/projects"
	"agileflow/internal/tasks"
	"agileflow/internal/users"
)

var (
	errBadRequest   = errors.New("bad request")
	errUnauthorized = errors.New("missing or malformed bearer token")
)

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, tasks.ErrInvalidIdentifier),
		errors.Is(err, models.ErrInvalidStatus),
		errors.Is(err, tasks.ErrEmptyTitle),
		errors.Is(err, tasks.ErrInvalidDueDate),
		errors.Is(err, users.ErrInvalidInput),
		errors.Is(err, users.ErrInvalidRole),
		errors.Is(err, projects.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrTaskNotFound),
		errors.Is(err, models.ErrProjectNotFound),
		errors.Is(err, models.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, users.ErrEmailTaken),
		errors.Is(err, projects.ErrNameTaken):
		return http.StatusConflict
	case errors.Is(err, users.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, errUnauthorized):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
