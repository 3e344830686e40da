package service

import (
	"context"
	"errors"
	"testing"

	"github.com/HarishKumar-005/Phantom-Crowd-sub000/internal/domain/entity"
)

// Mock du repo utilisateurs
type mockUserRepo struct {
	users map[string]*entity.User // par username
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: map[string]*entity.User{}}
}

func (m *mockUserRepo) Create(ctx context.Context, user *entity.User) error {
	if _, ok := m.users[user.Username]; ok {
		return errors.New("username already taken")
	}
	m.users[user.Username] = user
	return nil
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

func (m *mockUserRepo) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	return m.users[username], nil
}

func (m *mockUserRepo) UpdateLastLogin(ctx context.Context, id string) error {
	return nil
}

func TestAuthDegradedModeRefusesCleanly(t *testing.T) {
	ctx := context.Background()
	// Base injoignable au démarrage: le service est construit sans repo
	s := NewAuthService(nil, "test-secret")

	if _, err := s.Register(ctx, "inspector", "password123", entity.RoleAuthority); !errors.Is(err, ErrUserStoreUnavailable) {
		t.Errorf("Register without user store: got %v, want ErrUserStoreUnavailable", err)
	}
	if _, err := s.Login(ctx, "inspector", "password123"); !errors.Is(err, ErrUserStoreUnavailable) {
		t.Errorf("Login without user store: got %v, want ErrUserStoreUnavailable", err)
	}
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	s := NewAuthService(newMockUserRepo(), "test-secret")

	user, err := s.Register(ctx, "inspector", "password123", "")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if user.Role != entity.RoleAuthority {
		t.Errorf("expected default role authority, got %s", user.Role)
	}
	if user.PasswordHash == "password123" {
		t.Error("password stored in clear")
	}

	token, err := s.Login(ctx, "inspector", "password123")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	claims, err := s.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	if sub, _ := (*claims)["sub"].(string); sub != user.ID {
		t.Errorf("token sub = %q, want %q", sub, user.ID)
	}
	if role, _ := (*claims)["role"].(string); role != string(entity.RoleAuthority) {
		t.Errorf("token role = %q, want authority", role)
	}

	if _, err := s.Login(ctx, "inspector", "wrong-password"); err == nil {
		t.Error("wrong password must not log in")
	}
}
