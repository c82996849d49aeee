package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/yuwei031/SubForge/internal/app/model"
	"github.com/yuwei031/SubForge/internal/app/repository"
	"golang.org/x/crypto/bcrypt"
)

// ErrSelfDelete guards an admin against removing their own account.
var ErrSelfDelete = errors.New("you cannot delete your own account")

// AdminService covers the user-management surface restricted to admins.
type AdminService interface {
	ListUsers(ctx context.Context) ([]model.User, error)
	CreateUser(ctx context.Context, email, password string) (*model.User, error)
	DeleteUser(ctx context.Context, callerID, userID string) error
	SetUserPassword(ctx context.Context, userID, password string) error
	SetRegistrationEnabled(ctx context.Context, enabled bool) error
}

type adminService struct {
	users    repository.UserRepository
	settings repository.SettingRepository
}

// NewAdminService returns the admin implementation.
func NewAdminService(users repository.UserRepository, settings repository.SettingRepository) AdminService {
	return &adminService{users: users, settings: settings}
}

func (s *adminService) ListUsers(ctx context.Context) ([]model.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (s *adminService) CreateUser(ctx context.Context, email, password string) (*model.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		Role:         model.RoleUser,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func (s *adminService) DeleteUser(ctx context.Context, callerID, userID string) error {
	if callerID == userID {
		return ErrSelfDelete
	}
	if err := s.users.Delete(ctx, userID); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

func (s *adminService) SetUserPassword(ctx context.Context, userID, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, userID, string(hash)); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

func (s *adminService) SetRegistrationEnabled(ctx context.Context, enabled bool) error {
	if err := s.settings.Set(ctx, model.SettingRegistrationEnabled, strconv.FormatBool(enabled)); err != nil {
		return fmt.Errorf("save setting: %w", err)
	}
	return nil
}
