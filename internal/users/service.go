// Package users manages team accounts: registration, login, profile
// changes and password resets.
package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"agileflow/internal/auth"
	"agileflow/internal/models"
)

var (
	// ErrNotFound is returned when a user id does not exist.
	ErrNotFound = models.ErrUserNotFound

	// ErrEmailTaken is returned when another account already uses the email.
	ErrEmailTaken = models.ErrEmailTaken

	// ErrInvalidCredentials covers both unknown emails and wrong passwords.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidRole is returned for roles other than admin and member.
	ErrInvalidRole = errors.New("invalid role")

	// ErrInvalidInput is returned when required fields are missing or malformed.
	ErrInvalidInput = errors.New("invalid user input")
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 6

// ResetPasswordLength is the length of passwords generated by ForgotPassword.
const ResetPasswordLength = 12

// Store persists users.
type Store interface {
	CreateUser(ctx context.Context, u *models.User) error
	FindUserByID(ctx context.Context, id int64) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context, role models.Role) ([]models.User, error)
	UpdateUser(ctx context.Context, u *models.User) error
	DeleteUser(ctx context.Context, id int64) (int64, error)
}

// TokenIssuer signs login tokens.
type TokenIssuer interface {
	Issue(user models.User) (string, error)
}

// Service implements the user operations.
type Service struct {
	store  Store
	tokens TokenIssuer
	logger *slog.Logger
}

// NewService wires a user service. tokens may be nil when logins are not
// needed, in which case Login returns an empty token.
func NewService(store Store, tokens TokenIssuer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, tokens: tokens, logger: logger}
}

// CreateInput is used by both registration and admin-side creation.
type CreateInput struct {
	Username string
	Email    string
	Password string
	Role     string
}

// UpdateInput replaces the profile fields of a user. Empty fields are kept.
type UpdateInput struct {
	Username string
	Email    string
	Role     string
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	User  models.User `json:"user"`
	Token string      `json:"token"`
}

// Create registers a new account with a hashed password.
func (s *Service) Create(ctx context.Context, in CreateInput) (*models.User, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrInvalidInput)
	}
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	if len(in.Password) < MinPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, MinPasswordLength)
	}
	role, err := parseRole(in.Role, models.RoleMember)
	if err != nil {
		return nil, err
	}

	if existing, err := s.store.FindUserByEmail(ctx, email); err != nil {
		return nil, fmt.Errorf("lookup email: %w", err)
	} else if existing != nil {
		return nil, fmt.Errorf("%w: %s", ErrEmailTaken, email)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{Username: username, Email: email, PasswordHash: hash, Role: role}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.logger.Info("user created", slog.Int64("user_id", user.ID), slog.String("role", string(role)))
	return user, nil
}

// Login checks credentials and issues a token.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.store.FindUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, fmt.Errorf("lookup email: %w", err)
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if err := auth.CheckPassword(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	result := &LoginResult{User: *user}
	if s.tokens != nil {
		token, err := s.tokens.Issue(*user)
		if err != nil {
			return nil, err
		}
		result.Token = token
	}
	s.logger.Info("user logged in", slog.Int64("user_id", user.ID))
	return result, nil
}

// ForgotPassword replaces the password of the account with a generated one
// and returns the new plaintext password.
func (s *Service) ForgotPassword(ctx context.Context, email string) (string, error) {
	user, err := s.store.FindUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return "", fmt.Errorf("lookup email: %w", err)
	}
	if user == nil {
		return "", fmt.Errorf("%w: %s", ErrNotFound, email)
	}

	password, err := auth.RandomPassword(ResetPasswordLength)
	if err != nil {
		return "", err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return "", err
	}
	user.PasswordHash = hash
	if err := s.store.UpdateUser(ctx, user); err != nil {
		return "", fmt.Errorf("reset password: %w", err)
	}
	s.logger.Info("password reset", slog.Int64("user_id", user.ID))
	return password, nil
}

// Get returns one user.
func (s *Service) Get(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.store.FindUserByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return user, nil
}

// List returns every user.
func (s *Service) List(ctx context.Context) ([]models.User, error) {
	users, err := s.store.ListUsers(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	if users == nil {
		users = []models.User{}
	}
	return users, nil
}

// FindByRole returns the users holding role.
func (s *Service) FindByRole(ctx context.Context, rawRole string) ([]models.User, error) {
	role := models.Role(strings.ToLower(strings.TrimSpace(rawRole)))
	if !role.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, rawRole)
	}
	users, err := s.store.ListUsers(ctx, role)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	if users == nil {
		users = []models.User{}
	}
	return users, nil
}

// Update changes username, email or role.
func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (*models.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if username := strings.TrimSpace(in.Username); username != "" {
		user.Username = username
	}
	if in.Email != "" {
		email, err := normalizeEmail(in.Email)
		if err != nil {
			return nil, err
		}
		if email != user.Email {
			existing, err := s.store.FindUserByEmail(ctx, email)
			if err != nil {
				return nil, fmt.Errorf("lookup email: %w", err)
			}
			if existing != nil && existing.ID != id {
				return nil, fmt.Errorf("%w: %s", ErrEmailTaken, email)
			}
			user.Email = email
		}
	}
	if in.Role != "" {
		role, err := parseRole(in.Role, user.Role)
		if err != nil {
			return nil, err
		}
		user.Role = role
	}

	if err := s.store.UpdateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("update user %d: %w", id, err)
	}
	s.logger.Info("user updated", slog.Int64("user_id", id))
	return user, nil
}

// Delete removes a user. Their tasks become unassigned.
func (s *Service) Delete(ctx context.Context, id int64) error {
	affected, err := s.store.DeleteUser(ctx, id)
	if err != nil {
		return fmt.Errorf("delete user %d: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	s.logger.Info("user deleted", slog.Int64("user_id", id))
	return nil
}

var validate = validator.New()

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if err := validate.Var(email, "required,email"); err != nil {
		return "", fmt.Errorf("%w: invalid email %q", ErrInvalidInput, raw)
	}
	return email, nil
}

func parseRole(raw string, fallback models.Role) (models.Role, error) {
	if strings.TrimSpace(raw) == "" {
		return fallback, nil
	}
	role := models.Role(strings.ToLower(strings.TrimSpace(raw)))
	if !role.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, raw)
	}
	return role, nil
}
