package repository

import (
	"context"
	"errors"
	"time"

	"github.com/yuwei031/SubForge/internal/app/model"
	"gorm.io/gorm"
)

var (
	// ErrConfigNotFound signals that the requested generated config does not exist.
	ErrConfigNotFound = errors.New("generated config not found")
	// ErrVersionConflict signals that a concurrent refresh won the
	// compare-and-swap on the same record.
	ErrVersionConflict = errors.New("generated config was modified concurrently")
)

// GeneratedConfigRepository defines the data access contract for stored
// conversion records.
type GeneratedConfigRepository interface {
	Create(ctx context.Context, cfg *model.GeneratedConfig) error
	GetByID(ctx context.Context, id string) (*model.GeneratedConfig, error)
	GetForUser(ctx context.Context, userID, id string) (*model.GeneratedConfig, error)
	ListByUser(ctx context.Context, userID string) ([]model.GeneratedConfig, error)
	ListIDs(ctx context.Context) ([]string, error)
	ReplaceArtifact(ctx context.Context, cfg *model.GeneratedConfig, filename string, params model.GenerateParams) error
	Delete(ctx context.Context, userID, id string) error
}

type generatedConfigRepository struct {
	db *gorm.DB
}

// NewGeneratedConfigRepository returns a GORM-backed GeneratedConfigRepository.
func NewGeneratedConfigRepository(db *gorm.DB) GeneratedConfigRepository {
	return &generatedConfigRepository{db: db}
}

func (r *generatedConfigRepository) Create(ctx context.Context, cfg *model.GeneratedConfig) error {
	return r.db.WithContext(ctx).Create(cfg).Error
}

func (r *generatedConfigRepository) GetByID(ctx context.Context, id string) (*model.GeneratedConfig, error) {
	var cfg model.GeneratedConfig
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&cfg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}
	return &cfg, nil
}

func (r *generatedConfigRepository) GetForUser(ctx context.Context, userID, id string) (*model.GeneratedConfig, error) {
	var cfg model.GeneratedConfig
	if err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&cfg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}
	return &cfg, nil
}

func (r *generatedConfigRepository) ListByUser(ctx context.Context, userID string) ([]model.GeneratedConfig, error) {
	var result []model.GeneratedConfig
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&result).Error; err != nil {
		return nil, err
	}
	return result, nil
}

func (r *generatedConfigRepository) ListIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := r.db.WithContext(ctx).
		Model(&model.GeneratedConfig{}).
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// ReplaceArtifact swaps in the freshly generated artifact. The version
// predicate makes concurrent refreshes of the same record fail loudly instead
// of silently overwriting each other.
func (r *generatedConfigRepository) ReplaceArtifact(ctx context.Context, cfg *model.GeneratedConfig, filename string, params model.GenerateParams) error {
	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&model.GeneratedConfig{}).
		Where("id = ? AND version = ?", cfg.ID, cfg.Version).
		Updates(map[string]interface{}{
			"filename":   filename,
			"params":     params,
			"created_at": now,
			"version":    cfg.Version + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrVersionConflict
	}

	cfg.Filename = filename
	cfg.Params = params
	cfg.CreatedAt = now
	cfg.Version++
	return nil
}

func (r *generatedConfigRepository) Delete(ctx context.Context, userID, id string) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&model.GeneratedConfig{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrConfigNotFound
	}
	return nil
}
