package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/yuwei031/SubForge/internal/app/model"
	"github.com/yuwei031/SubForge/internal/app/repository"
)

// SubscriptionService manages a user's subscription sources.
type SubscriptionService interface {
	Create(ctx context.Context, input CreateSubscriptionInput) (*model.Subscription, error)
	List(ctx context.Context, userID string) ([]model.Subscription, error)
	Delete(ctx context.Context, userID, id string) error
}

// CreateSubscriptionInput captures data required to register a source.
// BaseURL is the externally visible address of this service, used to mint the
// raw link for inline content.
type CreateSubscriptionInput struct {
	UserID  string
	Name    string
	URL     string
	Content string
	BaseURL string
}

type subscriptionService struct {
	repo repository.SubscriptionRepository
}

// NewSubscriptionService returns a service backed by the given repository.
func NewSubscriptionService(repo repository.SubscriptionRepository) SubscriptionService {
	return &subscriptionService{repo: repo}
}

func (s *subscriptionService) Create(ctx context.Context, input CreateSubscriptionInput) (*model.Subscription, error) {
	sub := &model.Subscription{
		ID:      uuid.NewString(),
		UserID:  input.UserID,
		Name:    input.Name,
		URL:     input.URL,
		Content: input.Content,
		Enabled: true,
	}

	if err := s.repo.Create(ctx, sub); err != nil {
		return nil, fmt.Errorf("create subscription: %w", err)
	}

	// Inline content is served from this service's own raw endpoint; the
	// record's URL points back at it so clients can subscribe as usual.
	if input.Content != "" {
		rawURL := fmt.Sprintf("%s/api/raw/%s", input.BaseURL, sub.ID)
		if err := s.repo.UpdateURL(ctx, sub.ID, rawURL); err != nil {
			return nil, fmt.Errorf("set raw link: %w", err)
		}
		sub.URL = rawURL
	}

	return sub, nil
}

func (s *subscriptionService) List(ctx context.Context, userID string) ([]model.Subscription, error) {
	subs, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	return subs, nil
}

func (s *subscriptionService) Delete(ctx context.Context, userID, id string) error {
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	return nil
}
