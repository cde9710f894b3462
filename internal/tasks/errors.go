package tasks

import (
	"errors"
	"fmt"

	"agileflow/internal/models"
)

var (
	// ErrInvalidIdentifier is returned when an id is not a positive integer.
	ErrInvalidIdentifier = errors.New("invalid identifier")

	// ErrInvalidStatus is returned when a status is outside the board set.
	ErrInvalidStatus = models.ErrInvalidStatus

	// ErrNotFound is returned when a task id does not exist.
	ErrNotFound = models.ErrTaskNotFound

	// ErrProjectNotFound is returned when a referenced project does not exist.
	ErrProjectNotFound = models.ErrProjectNotFound

	// ErrUserNotFound is returned when a referenced user does not exist.
	ErrUserNotFound = models.ErrUserNotFound

	// ErrEmptyTitle is returned when a task title is empty or cleared.
	ErrEmptyTitle = errors.New("title cannot be empty")

	// ErrInvalidDueDate is returned when a due date cannot be parsed.
	ErrInvalidDueDate = errors.New("invalid due date")
)

// InvalidIdentifierError keeps the raw value that failed to parse.
type InvalidIdentifierError struct {
	Raw string
}

func (e *InvalidIdentifierError) Error() string {
	return fmt.Sprintf("%s: %q", ErrInvalidIdentifier, e.Raw)
}

// Is lets errors.Is match ErrInvalidIdentifier.
func (e *InvalidIdentifierError) Is(target error) bool {
	return target == ErrInvalidIdentifier
}
