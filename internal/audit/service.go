// AngelaMos | 2026
// service.go

package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// Service appends audit entries. Record never fails the caller's mutation;
// write errors are logged at error level.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

func (s *Service) Record(ctx context.Context, entry Entry) {
	details := entry.Details
	if details == nil {
		details = map[string]any{}
	}

	raw, err := json.Marshal(details)
	if err != nil {
		s.logger.ErrorContext(ctx, "audit details not encodable",
			"action", entry.Action,
			"error", err,
		)
		raw = []byte("{}")
	}

	log := &Log{
		ID:         uuid.New().String(),
		ActorID:    entry.ActorID,
		Action:     entry.Action,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Details:    raw,
	}

	if err := s.repo.Insert(ctx, log); err != nil {
		s.logger.ErrorContext(ctx, "audit log write failed",
			"actor_id", entry.ActorID,
			"action", entry.Action,
			"entity_type", entry.EntityType,
			"entity_id", entry.EntityID,
			"error", err,
		)
	}
}

func (s *Service) List(
	ctx context.Context,
	params ListParams,
) ([]Log, int, error) {
	logs, total, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, 0, fmt.Errorf("list audit logs: %w", err)
	}
	return logs, total, nil
}
