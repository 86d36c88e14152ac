// AngelaMos | 2026
// service.go

package subscription

import (
	"context"
	"fmt"

	"github.com/carterperez-dev/research-portal/internal/core"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Subscribe(
	ctx context.Context,
	userID, researchLineID string,
) (*Subscription, error) {
	if userID == "" {
		return nil, fmt.Errorf("subscribe: %w", core.ErrUnauthorized)
	}
	return s.repo.Upsert(ctx, userID, researchLineID)
}

// Unsubscribe is a no-op for a pair that was never subscribed.
func (s *Service) Unsubscribe(
	ctx context.Context,
	userID, researchLineID string,
) (*Subscription, error) {
	if userID == "" {
		return nil, fmt.Errorf("unsubscribe: %w", core.ErrUnauthorized)
	}
	return s.repo.Deactivate(ctx, userID, researchLineID)
}

func (s *Service) IsActive(
	ctx context.Context,
	userID, researchLineID string,
) (bool, error) {
	if userID == "" {
		return false, nil
	}
	return s.repo.IsActive(ctx, userID, researchLineID)
}

func (s *Service) ListForUser(ctx context.Context, userID string) ([]ActiveLine, error) {
	lines, err := s.repo.ListActiveForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if lines == nil {
		lines = []ActiveLine{}
	}
	return lines, nil
}
