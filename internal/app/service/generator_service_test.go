package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/yuwei031/SubForge/internal/app/model"
	"github.com/yuwei031/SubForge/internal/app/repository"
	"github.com/yuwei031/SubForge/internal/infra/storage"
)

type mockConfigRepo struct {
	rows     map[string]*model.GeneratedConfig
	createFn func(ctx context.Context, cfg *model.GeneratedConfig) error
	casErr   error
}

func newMockConfigRepo() *mockConfigRepo {
	return &mockConfigRepo{rows: map[string]*model.GeneratedConfig{}}
}

func (m *mockConfigRepo) Create(ctx context.Context, cfg *model.GeneratedConfig) error {
	if m.createFn != nil {
		return m.createFn(ctx, cfg)
	}
	cp := *cfg
	m.rows[cfg.ID] = &cp
	return nil
}

func (m *mockConfigRepo) GetByID(ctx context.Context, id string) (*model.GeneratedConfig, error) {
	cfg, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrConfigNotFound
	}
	cp := *cfg
	return &cp, nil
}

func (m *mockConfigRepo) GetForUser(ctx context.Context, userID, id string) (*model.GeneratedConfig, error) {
	cfg, ok := m.rows[id]
	if !ok || cfg.UserID != userID {
		return nil, repository.ErrConfigNotFound
	}
	cp := *cfg
	return &cp, nil
}

func (m *mockConfigRepo) ListByUser(ctx context.Context, userID string) ([]model.GeneratedConfig, error) {
	var result []model.GeneratedConfig
	for _, cfg := range m.rows {
		if cfg.UserID == userID {
			result = append(result, *cfg)
		}
	}
	return result, nil
}

func (m *mockConfigRepo) ListIDs(ctx context.Context) ([]string, error) {
	var ids []string
	for id := range m.rows {
		ids = append(ids, id)
	}
	return ids, nil
}

func (m *mockConfigRepo) ReplaceArtifact(ctx context.Context, cfg *model.GeneratedConfig, filename string, params model.GenerateParams) error {
	if m.casErr != nil {
		return m.casErr
	}
	stored, ok := m.rows[cfg.ID]
	if !ok || stored.Version != cfg.Version {
		return repository.ErrVersionConflict
	}
	stored.Filename = filename
	stored.Params = params
	stored.Version++
	cfg.Filename = filename
	cfg.Params = params
	cfg.Version++
	return nil
}

func (m *mockConfigRepo) Delete(ctx context.Context, userID, id string) error {
	cfg, ok := m.rows[id]
	if !ok || cfg.UserID != userID {
		return repository.ErrConfigNotFound
	}
	delete(m.rows, id)
	return nil
}

type mockStore struct {
	objects   map[string][]byte
	uploadErr error
	removed   []string
}

func newMockStore() *mockStore {
	return &mockStore{objects: map[string][]byte{}}
}

func (m *mockStore) Upload(ctx context.Context, key string, content []byte, contentType string) error {
	if m.uploadErr != nil {
		return m.uploadErr
	}
	if _, ok := m.objects[key]; ok {
		return storage.ErrObjectExists
	}
	m.objects[key] = content
	return nil
}

func (m *mockStore) Download(ctx context.Context, key string) ([]byte, error) {
	body, ok := m.objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return body, nil
}

func (m *mockStore) Remove(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		m.removed = append(m.removed, key)
		delete(m.objects, key)
	}
	return nil
}

type mockFetcher struct {
	content string
	err     error
	calls   []string
}

func (m *mockFetcher) Fetch(ctx context.Context, requestURL string) (string, error) {
	m.calls = append(m.calls, requestURL)
	if m.err != nil {
		return "", m.err
	}
	return m.content, nil
}

func validParams() model.GenerateParams {
	return model.GenerateParams{
		BackendURL: "http://conv.example.com/sub",
		Target:     "clash",
		URLs:       []string{"https://a", "https://b"},
	}
}

func newPipeline(repo *mockConfigRepo, store *mockStore, fetcher *mockFetcher) GeneratorService {
	return NewGeneratorService(GeneratorDeps{
		Configs: repo,
		Store:   store,
		Fetcher: fetcher,
	})
}

func TestGeneratorService_Generate(t *testing.T) {
	repo := newMockConfigRepo()
	store := newMockStore()
	fetcher := &mockFetcher{content: "proxies: []"}

	svc := newPipeline(repo, store, fetcher)
	cfg, err := svc.Generate(context.Background(), "user-1", validParams())
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	if cfg.ID == "" || cfg.Token == "" {
		t.Fatal("expected id and token to be assigned")
	}
	if cfg.Token == cfg.ID {
		t.Error("token must be independent from id")
	}
	if !strings.HasSuffix(cfg.Filename, ".yaml") {
		t.Errorf("clash target should store .yaml, got %q", cfg.Filename)
	}

	body, err := store.Download(context.Background(), cfg.Filename)
	if err != nil {
		t.Fatalf("stored object missing: %v", err)
	}
	if string(body) != "proxies: []" {
		t.Errorf("stored body = %q", body)
	}
	if _, ok := repo.rows[cfg.ID]; !ok {
		t.Error("record not inserted")
	}
}

func TestGeneratorService_Generate_EmptyURLsNeverFetches(t *testing.T) {
	fetcher := &mockFetcher{content: "x"}
	svc := newPipeline(newMockConfigRepo(), newMockStore(), fetcher)

	params := validParams()
	params.URLs = nil
	_, err := svc.Generate(context.Background(), "user-1", params)
	if !errors.Is(err, ErrInvalidParams) {
		t.Fatalf("expected ErrInvalidParams, got %v", err)
	}
	if len(fetcher.calls) != 0 {
		t.Fatalf("no HTTP call may happen for empty urls, got %d", len(fetcher.calls))
	}
}

func TestGeneratorService_Generate_FetchFailurePersistsNothing(t *testing.T) {
	repo := newMockConfigRepo()
	store := newMockStore()
	fetcher := &mockFetcher{err: errors.New("boom")}

	svc := newPipeline(repo, store, fetcher)
	if _, err := svc.Generate(context.Background(), "user-1", validParams()); err == nil {
		t.Fatal("expected error")
	}
	if len(store.objects) != 0 {
		t.Error("nothing may be uploaded after a failed fetch")
	}
	if len(repo.rows) != 0 {
		t.Error("no row may be created after a failed fetch")
	}
}

func TestGeneratorService_Generate_UploadFailureCreatesNoRow(t *testing.T) {
	repo := newMockConfigRepo()
	store := newMockStore()
	store.uploadErr = errors.New("bucket unavailable")

	svc := newPipeline(repo, store, &mockFetcher{content: "x"})
	if _, err := svc.Generate(context.Background(), "user-1", validParams()); err == nil {
		t.Fatal("expected error")
	}
	if len(repo.rows) != 0 {
		t.Error("no row may exist for content that was never stored")
	}
}

func TestGeneratorService_Generate_InsertFailureCompensates(t *testing.T) {
	repo := newMockConfigRepo()
	repo.createFn = func(ctx context.Context, cfg *model.GeneratedConfig) error {
		return errors.New("db write failed")
	}
	store := newMockStore()

	svc := newPipeline(repo, store, &mockFetcher{content: "x"})
	if _, err := svc.Generate(context.Background(), "user-1", validParams()); err == nil {
		t.Fatal("expected error")
	}
	if len(store.objects) != 0 {
		t.Error("uploaded object must be removed when the insert fails")
	}
}

func TestGeneratorService_Refresh(t *testing.T) {
	repo := newMockConfigRepo()
	store := newMockStore()
	fetcher := &mockFetcher{content: "new content"}
	svc := newPipeline(repo, store, fetcher)

	seed := &model.GeneratedConfig{
		ID: "cfg-1", UserID: "user-1", Token: "secret", Filename: "old.yaml",
		Target: "clash", Params: validParams(), Version: 1,
	}
	repo.rows[seed.ID] = seed
	store.objects["old.yaml"] = []byte("old content")

	refreshed, err := svc.Refresh(context.Background(), "user-1", "cfg-1")
	if err != nil {
		t.Fatalf("Refresh returned error: %v", err)
	}

	if refreshed.ID != "cfg-1" || refreshed.Token != "secret" {
		t.Error("refresh must keep id and token stable")
	}
	if refreshed.Filename == "old.yaml" {
		t.Error("refresh must rotate the object name")
	}
	if _, err := store.Download(context.Background(), "old.yaml"); !errors.Is(err, storage.ErrObjectNotFound) {
		t.Error("old object must be removed after refresh")
	}
	body, err := store.Download(context.Background(), refreshed.Filename)
	if err != nil {
		t.Fatalf("new object missing: %v", err)
	}
	if string(body) != "new content" {
		t.Errorf("new object body = %q", body)
	}
}

func TestGeneratorService_Refresh_NotFound(t *testing.T) {
	svc := newPipeline(newMockConfigRepo(), newMockStore(), &mockFetcher{})
	_, err := svc.Refresh(context.Background(), "user-1", "missing")
	if !errors.Is(err, repository.ErrConfigNotFound) {
		t.Fatalf("expected ErrConfigNotFound, got %v", err)
	}
}

func TestGeneratorService_Refresh_InvalidStoredParams(t *testing.T) {
	repo := newMockConfigRepo()
	fetcher := &mockFetcher{content: "x"}
	repo.rows["cfg-1"] = &model.GeneratedConfig{
		ID: "cfg-1", UserID: "user-1", Filename: "old.txt",
		Params: model.GenerateParams{Target: "v2ray"}, Version: 1,
	}

	svc := newPipeline(repo, newMockStore(), fetcher)
	_, err := svc.Refresh(context.Background(), "user-1", "cfg-1")
	if !errors.Is(err, ErrInvalidParams) {
		t.Fatalf("expected ErrInvalidParams, got %v", err)
	}
	if len(fetcher.calls) != 0 {
		t.Error("corrupted rows must be rejected before any fetch")
	}
}

func TestGeneratorService_Refresh_VersionConflictCleansUp(t *testing.T) {
	repo := newMockConfigRepo()
	repo.casErr = repository.ErrVersionConflict
	store := newMockStore()
	repo.rows["cfg-1"] = &model.GeneratedConfig{
		ID: "cfg-1", UserID: "user-1", Filename: "old.yaml",
		Target: "clash", Params: validParams(), Version: 1,
	}
	store.objects["old.yaml"] = []byte("old content")

	svc := newPipeline(repo, store, &mockFetcher{content: "new"})
	_, err := svc.Refresh(context.Background(), "user-1", "cfg-1")
	if !errors.Is(err, repository.ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict, got %v", err)
	}

	// The losing upload is the orphan; the record's artifact must survive.
	if _, err := store.Download(context.Background(), "old.yaml"); err != nil {
		t.Error("current artifact must not be deleted on a lost race")
	}
	if len(store.objects) != 1 {
		t.Errorf("losing upload must be cleaned up, %d objects left", len(store.objects))
	}
}

func TestGeneratorService_Delete(t *testing.T) {
	repo := newMockConfigRepo()
	store := newMockStore()
	repo.rows["cfg-1"] = &model.GeneratedConfig{
		ID: "cfg-1", UserID: "user-1", Filename: "a.yaml", Params: validParams(),
	}
	store.objects["a.yaml"] = []byte("x")

	svc := newPipeline(repo, store, &mockFetcher{})
	if err := svc.Delete(context.Background(), "user-1", "cfg-1"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if len(repo.rows) != 0 {
		t.Error("row must be deleted")
	}
	if len(store.objects) != 0 {
		t.Error("object must be deleted")
	}
}

func TestGeneratorService_Delete_OwnershipEnforced(t *testing.T) {
	repo := newMockConfigRepo()
	repo.rows["cfg-1"] = &model.GeneratedConfig{
		ID: "cfg-1", UserID: "user-1", Filename: "a.yaml", Params: validParams(),
	}

	svc := newPipeline(repo, newMockStore(), &mockFetcher{})
	err := svc.Delete(context.Background(), "someone-else", "cfg-1")
	if !errors.Is(err, repository.ErrConfigNotFound) {
		t.Fatalf("foreign rows must look like they do not exist, got %v", err)
	}
}
