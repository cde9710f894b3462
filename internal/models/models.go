package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Status is the board column a task currently sits in.
type Status string

const (
	StatusTodo    Status = "todo"
	StatusReady   Status = "ready"
	StatusOngoing Status = "ongoing"
	StatusOnHold  Status = "onhold"
	StatusDone    Status = "done"
)

var (
	// ErrInvalidStatus is returned when a value is not one of the board statuses.
	ErrInvalidStatus = errors.New("invalid status")

	// ErrTaskNotFound is returned when a task id does not exist.
	ErrTaskNotFound = errors.New("task not found")

	// ErrProjectNotFound is returned when a referenced project does not exist.
	ErrProjectNotFound = errors.New("project not found")

	// ErrUserNotFound is returned when a referenced user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrEmailTaken is returned when another account already uses an email.
	ErrEmailTaken = errors.New("email already exists")

	// ErrProjectNameTaken is returned when another project already has the name.
	ErrProjectNameTaken = errors.New("project name already exists")
)

// ValidStatuses returns every status in board order.
func ValidStatuses() []Status {
	return []Status{StatusTodo, StatusReady, StatusOngoing, StatusOnHold, StatusDone}
}

// IsValid reports whether s is one of the board statuses.
func (s Status) IsValid() bool {
	for _, valid := range ValidStatuses() {
		if s == valid {
			return true
		}
	}
	return false
}

// Title is the column heading shown on the board.
func (s Status) Title() string {
	switch s {
	case StatusTodo:
		return "Tasks"
	case StatusReady:
		return "Ready"
	case StatusOngoing:
		return "On Going"
	case StatusOnHold:
		return "On Hold"
	case StatusDone:
		return "Done"
	default:
		return string(s)
	}
}

// ParseStatus accepts any casing and returns the canonical status.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	if !s.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
	}
	return s, nil
}

// Role is the permission level of a user.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// IsValid reports whether r is a known role.
func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleMember
}

// DefaultWIPLimit is used when a project is created without a limit.
const DefaultWIPLimit = 5

// User is a team member who can own tasks.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Project describes a kanban project that groups multiple tasks.
type Project struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Color       string     `json:"color"`
	StartDate   *time.Time `json:"startDate,omitempty"`
	WIPLimit    int        `json:"wipLimit"`
	Members     []User     `json:"members"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// MemberIDs lists the ids of the project team.
func (p Project) MemberIDs() []int64 {
	ids := make([]int64, 0, len(p.Members))
	for _, m := range p.Members {
		ids = append(ids, m.ID)
	}
	return ids
}

// Task represents a single card on the board.
//
// ProjectID and AssigneeID are the stored references; Project and Assignee
// are filled in by the lifecycle manager when a read asks for them.
type Task struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Status      Status     `json:"status"`
	DueDate     *time.Time `json:"dueDate"`
	ProjectID   *int64     `json:"projectId"`
	AssigneeID  *int64     `json:"assigneeId"`
	Project     *Project   `json:"project,omitempty"`
	Assignee    *User      `json:"assignee,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// TaskFilter narrows ListTasks. A zero filter matches every task.
type TaskFilter struct {
	ProjectID  *int64
	AssigneeID *int64
	Unassigned bool
}

// Matches reports whether t passes the filter.
func (f TaskFilter) Matches(t Task) bool {
	if f.ProjectID != nil && (t.ProjectID == nil || *t.ProjectID != *f.ProjectID) {
		return false
	}
	if f.AssigneeID != nil && (t.AssigneeID == nil || *t.AssigneeID != *f.AssigneeID) {
		return false
	}
	if f.Unassigned && t.AssigneeID != nil {
		return false
	}
	return true
}
