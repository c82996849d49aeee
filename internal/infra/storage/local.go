package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/yuwei031/SubForge/config"
	"go.uber.org/zap"
)

// LocalStore keeps artifacts as files under one directory. Intended for
// single-node deployments and tests.
type LocalStore struct {
	basePath string
	log      *zap.Logger
}

// NewLocalStore creates the base directory if needed.
func NewLocalStore(cfg config.LocalConfig, log *zap.Logger) (*LocalStore, error) {
	basePath := cfg.Path
	if basePath == "" {
		basePath = "data/configs"
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create local directory: %w", err)
	}
	return &LocalStore{basePath: basePath, log: log}, nil
}

func (l *LocalStore) Upload(ctx context.Context, key string, content []byte, contentType string) error {
	// O_EXCL gives the no-overwrite guarantee atomically.
	file, err := os.OpenFile(l.path(key), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return ErrObjectExists
		}
		return fmt.Errorf("storage: create %s: %w", key, err)
	}
	defer file.Close()

	if _, err := file.Write(content); err != nil {
		return fmt.Errorf("storage: write %s: %w", key, err)
	}
	return nil
}

func (l *LocalStore) Download(ctx context.Context, key string) ([]byte, error) {
	body, err := os.ReadFile(l.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("storage: read %s: %w", key, err)
	}
	return body, nil
}

func (l *LocalStore) Remove(ctx context.Context, keys ...string) error {
	var errs []error
	for _, key := range keys {
		if key == "" {
			continue
		}
		if err := os.Remove(l.path(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
			l.log.Warn("failed to delete object", zap.String("key", key), zap.Error(err))
			errs = append(errs, fmt.Errorf("delete %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}

// path confines keys to the base directory; object keys are generated flat
// names, so Base strips anything suspicious.
func (l *LocalStore) path(key string) string {
	return filepath.Join(l.basePath, filepath.Base(key))
}
