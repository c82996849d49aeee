package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/yuwei031/SubForge/internal/app/model"
	"github.com/yuwei031/SubForge/internal/app/repository"
)

// BackendURLService manages the registered converter backends.
type BackendURLService interface {
	Create(ctx context.Context, userID, name, url string) (*model.BackendURL, error)
	List(ctx context.Context, userID string) ([]model.BackendURL, error)
	Delete(ctx context.Context, userID, id string) error
}

type backendURLService struct {
	repo repository.BackendURLRepository
}

// NewBackendURLService returns a service backed by the given repository.
func NewBackendURLService(repo repository.BackendURLRepository) BackendURLService {
	return &backendURLService{repo: repo}
}

func (s *backendURLService) Create(ctx context.Context, userID, name, url string) (*model.BackendURL, error) {
	backend := &model.BackendURL{
		ID:      uuid.NewString(),
		UserID:  userID,
		Name:    name,
		URL:     url,
		Enabled: true,
	}
	if err := s.repo.Create(ctx, backend); err != nil {
		return nil, fmt.Errorf("create backend url: %w", err)
	}
	return backend, nil
}

func (s *backendURLService) List(ctx context.Context, userID string) ([]model.BackendURL, error) {
	backends, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list backend urls: %w", err)
	}
	return backends, nil
}

func (s *backendURLService) Delete(ctx context.Context, userID, id string) error {
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		return fmt.Errorf("delete backend url: %w", err)
	}
	return nil
}

// RemoteConfigService manages saved remote rule-set URLs.
type RemoteConfigService interface {
	Create(ctx context.Context, userID, name, url string) (*model.RemoteConfig, error)
	List(ctx context.Context, userID string) ([]model.RemoteConfig, error)
	Delete(ctx context.Context, userID, id string) error
}

type remoteConfigService struct {
	repo repository.RemoteConfigRepository
}

// NewRemoteConfigService returns a service backed by the given repository.
func NewRemoteConfigService(repo repository.RemoteConfigRepository) RemoteConfigService {
	return &remoteConfigService{repo: repo}
}

func (s *remoteConfigService) Create(ctx context.Context, userID, name, url string) (*model.RemoteConfig, error) {
	rc := &model.RemoteConfig{
		ID:      uuid.NewString(),
		UserID:  userID,
		Name:    name,
		URL:     url,
		Enabled: true,
	}
	if err := s.repo.Create(ctx, rc); err != nil {
		return nil, fmt.Errorf("create remote config: %w", err)
	}
	return rc, nil
}

func (s *remoteConfigService) List(ctx context.Context, userID string) ([]model.RemoteConfig, error) {
	configs, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list remote configs: %w", err)
	}
	return configs, nil
}

func (s *remoteConfigService) Delete(ctx context.Context, userID, id string) error {
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		return fmt.Errorf("delete remote config: %w", err)
	}
	return nil
}
