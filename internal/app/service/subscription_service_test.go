package service

import (
	"context"
	"errors"
	"testing"

	"github.com/yuwei031/SubForge/internal/app/model"
	"github.com/yuwei031/SubForge/internal/app/repository"
)

type mockSubscriptionRepo struct {
	subs map[string]*model.Subscription
}

func newMockSubscriptionRepo() *mockSubscriptionRepo {
	return &mockSubscriptionRepo{subs: map[string]*model.Subscription{}}
}

func (m *mockSubscriptionRepo) Create(ctx context.Context, sub *model.Subscription) error {
	cp := *sub
	m.subs[sub.ID] = &cp
	return nil
}

func (m *mockSubscriptionRepo) GetByID(ctx context.Context, id string) (*model.Subscription, error) {
	sub, ok := m.subs[id]
	if !ok {
		return nil, repository.ErrSubscriptionNotFound
	}
	cp := *sub
	return &cp, nil
}

func (m *mockSubscriptionRepo) ListByUser(ctx context.Context, userID string) ([]model.Subscription, error) {
	var result []model.Subscription
	for _, sub := range m.subs {
		if sub.UserID == userID {
			result = append(result, *sub)
		}
	}
	return result, nil
}

func (m *mockSubscriptionRepo) UpdateURL(ctx context.Context, id, url string) error {
	sub, ok := m.subs[id]
	if !ok {
		return repository.ErrSubscriptionNotFound
	}
	sub.URL = url
	return nil
}

func (m *mockSubscriptionRepo) Delete(ctx context.Context, userID, id string) error {
	sub, ok := m.subs[id]
	if !ok || sub.UserID != userID {
		return repository.ErrSubscriptionNotFound
	}
	delete(m.subs, id)
	return nil
}

func TestSubscriptionService_Create_URLSource(t *testing.T) {
	repo := newMockSubscriptionRepo()
	svc := NewSubscriptionService(repo)

	sub, err := svc.Create(context.Background(), CreateSubscriptionInput{
		UserID: "user-1",
		Name:   "airport",
		URL:    "https://example.com/sub",
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if sub.URL != "https://example.com/sub" {
		t.Errorf("url changed to %q", sub.URL)
	}
	if !sub.Enabled {
		t.Error("new subscriptions start enabled")
	}
}

func TestSubscriptionService_Create_InlineContent(t *testing.T) {
	repo := newMockSubscriptionRepo()
	svc := NewSubscriptionService(repo)

	sub, err := svc.Create(context.Background(), CreateSubscriptionInput{
		UserID:  "user-1",
		Name:    "pasted nodes",
		Content: "ss://abc\nvmess://def",
		BaseURL: "https://dash.example.com",
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	want := "https://dash.example.com/api/raw/" + sub.ID
	if sub.URL != want {
		t.Errorf("inline subscription url = %q, want %q", sub.URL, want)
	}
	stored, err := repo.GetByID(context.Background(), sub.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.URL != want {
		t.Errorf("stored url = %q, want %q", stored.URL, want)
	}
	if stored.Content != "ss://abc\nvmess://def" {
		t.Errorf("stored content = %q", stored.Content)
	}
}

func TestSubscriptionService_Delete_OwnershipEnforced(t *testing.T) {
	repo := newMockSubscriptionRepo()
	svc := NewSubscriptionService(repo)

	sub, err := svc.Create(context.Background(), CreateSubscriptionInput{
		UserID: "user-1", Name: "mine", URL: "https://example.com/sub",
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.Delete(context.Background(), "user-2", sub.ID); !errors.Is(err, repository.ErrSubscriptionNotFound) {
		t.Fatalf("foreign rows must look like they do not exist, got %v", err)
	}
	if err := svc.Delete(context.Background(), "user-1", sub.ID); err != nil {
		t.Fatalf("owner delete failed: %v", err)
	}
}
