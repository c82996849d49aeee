package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/yuwei031/SubForge/internal/app/model"
	"github.com/yuwei031/SubForge/internal/app/repository"
	"github.com/yuwei031/SubForge/internal/converter"
	"github.com/yuwei031/SubForge/internal/http/util"
	infraprom "github.com/yuwei031/SubForge/internal/infra/prometheus"
	"github.com/yuwei031/SubForge/internal/infra/storage"
	"go.uber.org/zap"
)

// ErrInvalidParams signals generation input that must be rejected before any
// network call: no subscription urls, or corrupted stored parameters on
// refresh.
var ErrInvalidParams = errors.New("invalid generation parameters")

const artifactContentType = "text/plain; charset=utf-8"

// Fetcher performs the outbound conversion call. *converter.Client satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, requestURL string) (string, error)
}

// GeneratorService owns the conversion pipeline: build request, fetch,
// store artifact, manage the record.
type GeneratorService interface {
	Generate(ctx context.Context, userID string, params model.GenerateParams) (*model.GeneratedConfig, error)
	Refresh(ctx context.Context, userID, id string) (*model.GeneratedConfig, error)
	Delete(ctx context.Context, userID, id string) error
	List(ctx context.Context, userID string) ([]model.GeneratedConfig, error)
}

// GeneratorDeps bundles the pipeline's collaborators. Events, Metrics and
// Filter are optional; the pipeline works without them.
type GeneratorDeps struct {
	Logger  *zap.Logger
	Configs repository.GeneratedConfigRepository
	Store   storage.ObjectStore
	Fetcher Fetcher
	Events  *ConversionPublisher
	Metrics *infraprom.Metrics
	Filter  *IDFilter
}

type generatorService struct {
	logger  *zap.Logger
	configs repository.GeneratedConfigRepository
	store   storage.ObjectStore
	fetcher Fetcher
	events  *ConversionPublisher
	metrics *infraprom.Metrics
	filter  *IDFilter
}

// NewGeneratorService returns the pipeline implementation.
func NewGeneratorService(deps GeneratorDeps) GeneratorService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &generatorService{
		logger:  logger,
		configs: deps.Configs,
		store:   deps.Store,
		fetcher: deps.Fetcher,
		events:  deps.Events,
		metrics: deps.Metrics,
		filter:  deps.Filter,
	}
}

func (s *generatorService) Generate(ctx context.Context, userID string, params model.GenerateParams) (*model.GeneratedConfig, error) {
	if len(params.URLs) == 0 {
		return nil, fmt.Errorf("%w: at least one subscription url is required", ErrInvalidParams)
	}
	if params.BackendURL == "" || params.Target == "" {
		return nil, fmt.Errorf("%w: backend url and target are required", ErrInvalidParams)
	}

	content, err := s.fetchContent(ctx, params)
	if err != nil {
		s.record(model.ConversionActionGenerate, "", params.BackendURL, model.ConversionOutcomeError)
		return nil, err
	}

	cfg := &model.GeneratedConfig{
		ID:       uuid.NewString(),
		UserID:   userID,
		Token:    util.NewShareToken(),
		Filename: util.NewObjectKey(params.Target),
		Target:   params.Target,
		Params:   params,
		Name:     params.Filename,
		Version:  1,
	}

	if err := s.store.Upload(ctx, cfg.Filename, []byte(content), artifactContentType); err != nil {
		s.record(model.ConversionActionGenerate, cfg.ID, params.BackendURL, model.ConversionOutcomeError)
		return nil, fmt.Errorf("upload artifact: %w", err)
	}

	if err := s.configs.Create(ctx, cfg); err != nil {
		// Compensate so no object is left without a row.
		if rmErr := s.store.Remove(ctx, cfg.Filename); rmErr != nil {
			s.logger.Error("failed to clean up artifact after insert failure",
				zap.String("filename", cfg.Filename), zap.Error(rmErr))
		}
		s.record(model.ConversionActionGenerate, cfg.ID, params.BackendURL, model.ConversionOutcomeError)
		return nil, fmt.Errorf("save record: %w", err)
	}

	if s.filter != nil {
		s.filter.Add(cfg.ID)
	}
	s.record(model.ConversionActionGenerate, cfg.ID, params.BackendURL, model.ConversionOutcomeOK)

	return cfg, nil
}

func (s *generatorService) Refresh(ctx context.Context, userID, id string) (*model.GeneratedConfig, error) {
	cfg, err := s.configs.GetForUser(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("load record: %w", err)
	}

	// Rows written before the params column was mandatory may be incomplete.
	params := cfg.Params
	if params.BackendURL == "" || params.Target == "" || len(params.URLs) == 0 {
		return nil, fmt.Errorf("%w: stored parameters are incomplete", ErrInvalidParams)
	}

	content, err := s.fetchContent(ctx, params)
	if err != nil {
		s.record(model.ConversionActionRefresh, cfg.ID, params.BackendURL, model.ConversionOutcomeError)
		return nil, err
	}

	// Never overwrite the old object in place; a concurrent public download
	// must keep seeing a complete file.
	oldFilename := cfg.Filename
	newFilename := util.NewObjectKey(params.Target)

	if err := s.store.Upload(ctx, newFilename, []byte(content), artifactContentType); err != nil {
		s.record(model.ConversionActionRefresh, cfg.ID, params.BackendURL, model.ConversionOutcomeError)
		return nil, fmt.Errorf("upload artifact: %w", err)
	}

	if err := s.configs.ReplaceArtifact(ctx, cfg, newFilename, params); err != nil {
		// The row still points at the old artifact, so the new upload is the
		// orphan to clean up.
		if rmErr := s.store.Remove(ctx, newFilename); rmErr != nil {
			s.logger.Error("failed to clean up artifact after update failure",
				zap.String("filename", newFilename), zap.Error(rmErr))
		}
		s.record(model.ConversionActionRefresh, cfg.ID, params.BackendURL, model.ConversionOutcomeError)
		return nil, fmt.Errorf("update record: %w", err)
	}

	// The row already points at the new artifact; the old object is a
	// best-effort delete.
	if err := s.store.Remove(ctx, oldFilename); err != nil {
		s.logger.Warn("failed to delete previous artifact",
			zap.String("filename", oldFilename), zap.Error(err))
	}

	s.record(model.ConversionActionRefresh, cfg.ID, params.BackendURL, model.ConversionOutcomeOK)

	return cfg, nil
}

func (s *generatorService) Delete(ctx context.Context, userID, id string) error {
	cfg, err := s.configs.GetForUser(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("load record: %w", err)
	}

	// Object removal is best-effort; the row delete is what the user sees.
	if err := s.store.Remove(ctx, cfg.Filename); err != nil {
		s.logger.Warn("failed to delete artifact",
			zap.String("filename", cfg.Filename), zap.Error(err))
	}

	if err := s.configs.Delete(ctx, userID, id); err != nil {
		return fmt.Errorf("delete record: %w", err)
	}

	s.record(model.ConversionActionDelete, id, cfg.Params.BackendURL, model.ConversionOutcomeOK)
	return nil
}

func (s *generatorService) List(ctx context.Context, userID string) ([]model.GeneratedConfig, error) {
	configs, err := s.configs.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return configs, nil
}

func (s *generatorService) fetchContent(ctx context.Context, params model.GenerateParams) (string, error) {
	requestURL := converter.BuildRequestURL(params)
	content, err := s.fetcher.Fetch(ctx, requestURL)
	if err != nil {
		return "", fmt.Errorf("fetch conversion: %w", err)
	}
	return content, nil
}

func (s *generatorService) record(action, configID, backend, outcome string) {
	if s.metrics != nil {
		s.metrics.ConversionsTotal.WithLabelValues(action, outcome).Inc()
	}
	if s.events != nil {
		if err := s.events.Publish(configID, action, converter.NormalizeBackend(backend), outcome); err != nil {
			s.logger.Error("failed to publish conversion event",
				zap.String("action", action), zap.Error(err))
		}
	}
}
