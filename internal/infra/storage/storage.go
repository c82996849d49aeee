package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/yuwei031/SubForge/config"
	"go.uber.org/zap"
)

var (
	// ErrObjectExists signals an upload under a key that is already taken.
	// Generated artifacts are immutable; replacement always uses a new key.
	ErrObjectExists = errors.New("object already exists")
	// ErrObjectNotFound signals a download of a missing object.
	ErrObjectNotFound = errors.New("object not found")
)

// ObjectStore persists generated artifacts as uniquely named text objects.
type ObjectStore interface {
	// Upload stores content under key. It fails with ErrObjectExists when the
	// key is taken; overwriting in place is never allowed.
	Upload(ctx context.Context, key string, content []byte, contentType string) error
	// Download returns the object bytes or ErrObjectNotFound.
	Download(ctx context.Context, key string) ([]byte, error)
	// Remove deletes the given objects best-effort; missing keys are not an
	// error, other failures are collected and returned.
	Remove(ctx context.Context, keys ...string) error
}

// New selects the object store backend from config.
func New(ctx context.Context, cfg config.StorageConfig, log *zap.Logger) (ObjectStore, error) {
	switch cfg.Driver {
	case "s3":
		return NewS3Store(ctx, cfg.S3, log)
	case "local", "":
		return NewLocalStore(cfg.Local, log)
	default:
		return nil, fmt.Errorf("storage: unknown driver %q", cfg.Driver)
	}
}
