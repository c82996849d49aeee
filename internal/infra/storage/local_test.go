package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/yuwei031/SubForge/config"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T) *LocalStore {
	t.Helper()
	store, err := NewLocalStore(config.LocalConfig{Path: t.TempDir()}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewLocalStore error: %v", err)
	}
	return store
}

func TestLocalStore_UploadDownload(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Upload(ctx, "abc.yaml", []byte("proxies: []"), "text/plain; charset=utf-8"); err != nil {
		t.Fatalf("Upload error: %v", err)
	}

	body, err := store.Download(ctx, "abc.yaml")
	if err != nil {
		t.Fatalf("Download error: %v", err)
	}
	if string(body) != "proxies: []" {
		t.Errorf("body = %q", body)
	}
}

func TestLocalStore_UploadRejectsOverwrite(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Upload(ctx, "dup.txt", []byte("one"), "text/plain"); err != nil {
		t.Fatalf("first Upload error: %v", err)
	}
	err := store.Upload(ctx, "dup.txt", []byte("two"), "text/plain")
	if !errors.Is(err, ErrObjectExists) {
		t.Fatalf("expected ErrObjectExists, got %v", err)
	}

	// The original content must be untouched.
	body, _ := store.Download(ctx, "dup.txt")
	if string(body) != "one" {
		t.Errorf("body = %q, want original content", body)
	}
}

func TestLocalStore_DownloadMissing(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Download(context.Background(), "missing.txt")
	if !errors.Is(err, ErrObjectNotFound) {
		t.Fatalf("expected ErrObjectNotFound, got %v", err)
	}
}

func TestLocalStore_RemoveBestEffort(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Upload(ctx, "gone.txt", []byte("x"), "text/plain"); err != nil {
		t.Fatalf("Upload error: %v", err)
	}

	// Removing a mix of present and absent keys must not fail.
	if err := store.Remove(ctx, "gone.txt", "never-existed.txt", ""); err != nil {
		t.Fatalf("Remove error: %v", err)
	}

	if _, err := store.Download(ctx, "gone.txt"); !errors.Is(err, ErrObjectNotFound) {
		t.Fatalf("object should be gone, got %v", err)
	}
}
