package repository

import (
	"context"
	"errors"

	"github.com/yuwei031/SubForge/internal/app/model"
	"gorm.io/gorm"
)

// ErrBackendURLNotFound signals that the requested backend entry does not exist.
var ErrBackendURLNotFound = errors.New("backend url not found")

// BackendURLRepository defines the data access contract for converter backends.
type BackendURLRepository interface {
	Create(ctx context.Context, backend *model.BackendURL) error
	ListByUser(ctx context.Context, userID string) ([]model.BackendURL, error)
	Delete(ctx context.Context, userID, id string) error
}

type backendURLRepository struct {
	db *gorm.DB
}

// NewBackendURLRepository returns a GORM-backed BackendURLRepository.
func NewBackendURLRepository(db *gorm.DB) BackendURLRepository {
	return &backendURLRepository{db: db}
}

func (r *backendURLRepository) Create(ctx context.Context, backend *model.BackendURL) error {
	return r.db.WithContext(ctx).Create(backend).Error
}

func (r *backendURLRepository) ListByUser(ctx context.Context, userID string) ([]model.BackendURL, error) {
	var result []model.BackendURL
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&result).Error; err != nil {
		return nil, err
	}
	return result, nil
}

func (r *backendURLRepository) Delete(ctx context.Context, userID, id string) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&model.BackendURL{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrBackendURLNotFound
	}
	return nil
}
