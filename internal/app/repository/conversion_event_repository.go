package repository

import (
	"context"

	"github.com/yuwei031/SubForge/internal/app/model"
	"gorm.io/gorm"
)

// ConversionEventRepository stores pipeline audit events.
type ConversionEventRepository interface {
	Create(ctx context.Context, event *model.ConversionEvent) error
	ListRecent(ctx context.Context, limit int) ([]model.ConversionEvent, error)
}

type conversionEventRepository struct {
	db *gorm.DB
}

// NewConversionEventRepository returns a GORM-backed ConversionEventRepository.
func NewConversionEventRepository(db *gorm.DB) ConversionEventRepository {
	return &conversionEventRepository{db: db}
}

func (r *conversionEventRepository) Create(ctx context.Context, event *model.ConversionEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *conversionEventRepository) ListRecent(ctx context.Context, limit int) ([]model.ConversionEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	var result []model.ConversionEvent
	if err := r.db.WithContext(ctx).
		Order("timestamp DESC").
		Limit(limit).
		Find(&result).Error; err != nil {
		return nil, err
	}
	return result, nil
}
