package repository

import (
	"context"
	"errors"

	"github.com/yuwei031/SubForge/internal/app/model"
	"gorm.io/gorm"
)

// ErrRemoteConfigNotFound signals that the requested rule-set entry does not exist.
var ErrRemoteConfigNotFound = errors.New("remote config not found")

// RemoteConfigRepository defines the data access contract for saved rule-set URLs.
type RemoteConfigRepository interface {
	Create(ctx context.Context, rc *model.RemoteConfig) error
	ListByUser(ctx context.Context, userID string) ([]model.RemoteConfig, error)
	Delete(ctx context.Context, userID, id string) error
}

type remoteConfigRepository struct {
	db *gorm.DB
}

// NewRemoteConfigRepository returns a GORM-backed RemoteConfigRepository.
func NewRemoteConfigRepository(db *gorm.DB) RemoteConfigRepository {
	return &remoteConfigRepository{db: db}
}

func (r *remoteConfigRepository) Create(ctx context.Context, rc *model.RemoteConfig) error {
	return r.db.WithContext(ctx).Create(rc).Error
}

func (r *remoteConfigRepository) ListByUser(ctx context.Context, userID string) ([]model.RemoteConfig, error) {
	var result []model.RemoteConfig
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&result).Error; err != nil {
		return nil, err
	}
	return result, nil
}

func (r *remoteConfigRepository) Delete(ctx context.Context, userID, id string) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&model.RemoteConfig{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRemoteConfigNotFound
	}
	return nil
}
