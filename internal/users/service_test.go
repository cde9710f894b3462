package users

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"agileflow/internal/auth"
	"agileflow/internal/models"
	"agileflow/internal/storage/memory"
)

func newService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	store := memory.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(store, auth.NewTokens("secret", time.Hour), logger), store
}

func TestCreateHashesPassword(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	user, err := svc.Create(ctx, CreateInput{Username: "ana", Email: "Ana@Example.com", Password: "hunter22"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if user.Email != "ana@example.com" {
		t.Fatalf("expected normalized email, got %q", user.Email)
	}
	if user.Role != models.RoleMember {
		t.Fatalf("expected default member role, got %q", user.Role)
	}

	stored, _ := store.FindUserByID(ctx, user.ID)
	if stored.PasswordHash == "hunter22" {
		t.Fatalf("password stored in plaintext")
	}
	if err := auth.CheckPassword(stored.PasswordHash, "hunter22"); err != nil {
		t.Fatalf("stored hash does not match: %v", err)
	}
}

func TestCreateValidation(t *testing.T) {
	tests := []struct {
		name string
		in   CreateInput
		want error
	}{
		{"missing username", CreateInput{Email: "a@b.co", Password: "123456"}, ErrInvalidInput},
		{"bad email", CreateInput{Username: "a", Email: "nope", Password: "123456"}, ErrInvalidInput},
		{"display name email", CreateInput{Username: "a", Email: "Ann <a@b.co>", Password: "123456"}, ErrInvalidInput},
		{"short password", CreateInput{Username: "a", Email: "a@b.co", Password: "123"}, ErrInvalidInput},
		{"bad role", CreateInput{Username: "a", Email: "a@b.co", Password: "123456", Role: "owner"}, ErrInvalidRole},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newService(t)
			if _, err := svc.Create(context.Background(), tt.in); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestCreateDuplicateEmail(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, CreateInput{Username: "a", Email: "a@b.co", Password: "123456"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(ctx, CreateInput{Username: "b", Email: "A@B.CO", Password: "123456"}); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestLogin(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	if _, err := svc.Create(ctx, CreateInput{Username: "a", Email: "a@b.co", Password: "123456", Role: "admin"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	result, err := svc.Login(ctx, "a@b.co", "123456")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if result.Token == "" {
		t.Fatalf("expected token")
	}
	if result.User.Role != models.RoleAdmin {
		t.Fatalf("expected admin, got %q", result.User.Role)
	}

	if _, err := svc.Login(ctx, "a@b.co", "wrong!"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for wrong password, got %v", err)
	}
	if _, err := svc.Login(ctx, "nobody@b.co", "123456"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
}

func TestForgotPassword(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	if _, err := svc.Create(ctx, CreateInput{Username: "a", Email: "a@b.co", Password: "123456"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	fresh, err := svc.ForgotPassword(ctx, "a@b.co")
	if err != nil {
		t.Fatalf("forgot password: %v", err)
	}
	if len(fresh) != ResetPasswordLength {
		t.Fatalf("expected %d characters, got %q", ResetPasswordLength, fresh)
	}
	if _, err := svc.Login(ctx, "a@b.co", "123456"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("old password should stop working, got %v", err)
	}
	if _, err := svc.Login(ctx, "a@b.co", fresh); err != nil {
		t.Fatalf("new password should work: %v", err)
	}

	if _, err := svc.ForgotPassword(ctx, "ghost@b.co"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFindByRoleUpdateDelete(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	admin, _ := svc.Create(ctx, CreateInput{Username: "root", Email: "root@b.co", Password: "123456", Role: "admin"})
	member, _ := svc.Create(ctx, CreateInput{Username: "m", Email: "m@b.co", Password: "123456"})

	members, err := svc.FindByRole(ctx, "member")
	if err != nil {
		t.Fatalf("find by role: %v", err)
	}
	if len(members) != 1 || members[0].ID != member.ID {
		t.Fatalf("unexpected members %+v", members)
	}
	if _, err := svc.FindByRole(ctx, ""); !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}

	if _, err := svc.Update(ctx, member.ID, UpdateInput{Email: "root@b.co"}); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
	updated, err := svc.Update(ctx, member.ID, UpdateInput{Username: "maria", Role: "admin"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Username != "maria" || updated.Role != models.RoleAdmin || updated.Email != "m@b.co" {
		t.Fatalf("unexpected update result %+v", updated)
	}

	if err := svc.Delete(ctx, admin.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.Delete(ctx, admin.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.Get(ctx, admin.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
