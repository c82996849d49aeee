package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yuwei031/SubForge/internal/app/model"
	"github.com/yuwei031/SubForge/internal/app/repository"
)

type mockUserRepo struct {
	users map[string]*model.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: map[string]*model.User{}}
}

func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error {
	for _, u := range m.users {
		if u.Email == user.Email {
			return repository.ErrEmailTaken
		}
	}
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *user
	return &cp, nil
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockUserRepo) List(ctx context.Context) ([]model.User, error) {
	var result []model.User
	for _, u := range m.users {
		result = append(result, *u)
	}
	return result, nil
}

func (m *mockUserRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	user, ok := m.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	user.PasswordHash = passwordHash
	return nil
}

func (m *mockUserRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.users[id]; !ok {
		return repository.ErrUserNotFound
	}
	delete(m.users, id)
	return nil
}

type mockSettingRepo struct {
	values map[string]string
}

func newMockSettingRepo() *mockSettingRepo {
	return &mockSettingRepo{values: map[string]string{}}
}

func (m *mockSettingRepo) Get(ctx context.Context, key string) (string, error) {
	value, ok := m.values[key]
	if !ok {
		return "", repository.ErrSettingNotFound
	}
	return value, nil
}

func (m *mockSettingRepo) Set(ctx context.Context, key, value string) error {
	m.values[key] = value
	return nil
}

func newAuth(users *mockUserRepo, settings *mockSettingRepo) AuthService {
	return NewAuthService(AuthDeps{
		Users:    users,
		Settings: settings,
		Secret:   []byte("test-secret"),
		TokenTTL: time.Hour,
	})
}

func TestAuthService_Register_FirstUserIsAdmin(t *testing.T) {
	svc := newAuth(newMockUserRepo(), newMockSettingRepo())

	first, err := svc.Register(context.Background(), "a@example.com", "pw123456", "pw123456")
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if first.Role != model.RoleAdmin {
		t.Errorf("first user role = %q, want admin", first.Role)
	}

	second, err := svc.Register(context.Background(), "b@example.com", "pw123456", "pw123456")
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if second.Role != model.RoleUser {
		t.Errorf("second user role = %q, want user", second.Role)
	}
}

func TestAuthService_Register_PasswordMismatch(t *testing.T) {
	svc := newAuth(newMockUserRepo(), newMockSettingRepo())
	_, err := svc.Register(context.Background(), "a@example.com", "one", "two")
	if !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("expected ErrPasswordMismatch, got %v", err)
	}
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	svc := newAuth(newMockUserRepo(), newMockSettingRepo())
	if _, err := svc.Register(context.Background(), "a@example.com", "pw", "pw"); err != nil {
		t.Fatal(err)
	}
	_, err := svc.Register(context.Background(), "a@example.com", "pw", "pw")
	if !errors.Is(err, repository.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestAuthService_Register_Disabled(t *testing.T) {
	settings := newMockSettingRepo()
	settings.values[model.SettingRegistrationEnabled] = "false"

	svc := newAuth(newMockUserRepo(), settings)
	_, err := svc.Register(context.Background(), "a@example.com", "pw", "pw")
	if !errors.Is(err, ErrRegistrationDisabled) {
		t.Fatalf("expected ErrRegistrationDisabled, got %v", err)
	}
}

func TestAuthService_LoginAndParseToken(t *testing.T) {
	svc := newAuth(newMockUserRepo(), newMockSettingRepo())
	user, err := svc.Register(context.Background(), "a@example.com", "pw123456", "pw123456")
	if err != nil {
		t.Fatal(err)
	}

	token, logged, err := svc.Login(context.Background(), "a@example.com", "pw123456")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if logged.ID != user.ID {
		t.Error("login returned a different user")
	}

	claims, err := svc.ParseToken(context.Background(), token)
	if err != nil {
		t.Fatalf("ParseToken returned error: %v", err)
	}
	if claims.Subject != user.ID {
		t.Errorf("claims subject = %q, want %q", claims.Subject, user.ID)
	}
	if claims.Role != model.RoleAdmin {
		t.Errorf("claims role = %q, want admin", claims.Role)
	}
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	svc := newAuth(newMockUserRepo(), newMockSettingRepo())
	if _, err := svc.Register(context.Background(), "a@example.com", "pw123456", "pw123456"); err != nil {
		t.Fatal(err)
	}

	_, _, err := svc.Login(context.Background(), "a@example.com", "nope")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	_, _, err = svc.Login(context.Background(), "unknown@example.com", "pw123456")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown email must look like a wrong password, got %v", err)
	}
}

func TestAuthService_ParseToken_Garbage(t *testing.T) {
	svc := newAuth(newMockUserRepo(), newMockSettingRepo())
	if _, err := svc.ParseToken(context.Background(), "not-a-jwt"); err == nil {
		t.Fatal("expected error for malformed token")
	}
}

func TestAuthService_ChangePassword(t *testing.T) {
	svc := newAuth(newMockUserRepo(), newMockSettingRepo())
	user, err := svc.Register(context.Background(), "a@example.com", "old-pw", "old-pw")
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.ChangePassword(context.Background(), user.ID, "wrong", "new-pw", "new-pw"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if err := svc.ChangePassword(context.Background(), user.ID, "old-pw", "new-pw", "new-pw"); err != nil {
		t.Fatalf("ChangePassword returned error: %v", err)
	}

	if _, _, err := svc.Login(context.Background(), "a@example.com", "old-pw"); !errors.Is(err, ErrInvalidCredentials) {
		t.Error("old password must stop working")
	}
	if _, _, err := svc.Login(context.Background(), "a@example.com", "new-pw"); err != nil {
		t.Errorf("new password must work: %v", err)
	}
}
