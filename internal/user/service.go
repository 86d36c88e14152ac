// AngelaMos | 2026
// service.go

package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/carterperez-dev/research-portal/internal/audit"
	"github.com/carterperez-dev/research-portal/internal/core"
	"github.com/carterperez-dev/research-portal/internal/middleware"
)

type Auditor interface {
	Record(ctx context.Context, entry audit.Entry)
}

type Service struct {
	repo    Repository
	auditor Auditor
	logger  *slog.Logger
	now     func() time.Time
}

func NewService(repo Repository, auditor Auditor, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:    repo,
		auditor: auditor,
		logger:  logger,
		now:     time.Now,
	}
}

// Resolve returns the stored profile for the principal, creating it on
// first sight. Email and an empty display name are reconciled with the
// token; a stored display name is never overwritten.
func (s *Service) Resolve(
	ctx context.Context,
	principal *middleware.Principal,
) (*User, error) {
	if principal == nil || principal.UserID == "" {
		return nil, fmt.Errorf("resolve profile: %w", core.ErrUnauthorized)
	}

	existing, err := s.repo.GetByID(ctx, principal.UserID)
	if err == nil {
		s.reconcile(ctx, existing, principal)
		return existing, nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return nil, fmt.Errorf("resolve profile: %w", err)
	}

	created := &User{
		ID:        principal.UserID,
		Email:     principal.Email,
		Role:      RoleUser,
		Tier:      TierFree,
		CreatedAt: principal.CreatedAt,
	}
	if name := strings.TrimSpace(principal.DisplayName); name != "" {
		created.DisplayName = &name
	}

	err = s.repo.Create(ctx, created)
	if err == nil {
		return created, nil
	}
	if !errors.Is(err, core.ErrDuplicateKey) {
		return nil, fmt.Errorf("resolve profile: %w", err)
	}

	raced, err := s.repo.GetByID(ctx, principal.UserID)
	if err != nil {
		return nil, fmt.Errorf("resolve profile after conflict: %w", err)
	}
	return raced, nil
}

func (s *Service) reconcile(ctx context.Context, u *User, p *middleware.Principal) {
	email := u.Email
	emailDrift := p.Email != "" && p.Email != u.Email
	if emailDrift {
		email = p.Email
	}

	var name *string
	if trimmed := strings.TrimSpace(p.DisplayName); trimmed != "" &&
		(u.DisplayName == nil || *u.DisplayName == "") {
		name = &trimmed
	}

	if !emailDrift && name == nil {
		return
	}

	if err := s.repo.SyncIdentity(ctx, u.ID, email, name); err != nil {
		s.logger.WarnContext(ctx, "profile drift not persisted",
			"user_id", u.ID,
			"error", err,
		)
		return
	}

	u.Email = email
	if name != nil {
		u.DisplayName = name
	}
}

// Fallback builds an in-memory profile for a principal whose stored profile
// could not be read or created. It carries the lowest privileges.
func (s *Service) Fallback(principal *middleware.Principal) *User {
	createdAt := principal.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.now().UTC()
	}

	u := &User{
		ID:        principal.UserID,
		Email:     principal.Email,
		Role:      RoleUser,
		Tier:      TierFree,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
		Transient: true,
	}
	if name := strings.TrimSpace(principal.DisplayName); name != "" {
		u.DisplayName = &name
	}
	return u
}

func (s *Service) GetUser(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListUsers(
	ctx context.Context,
	params ListUsersParams,
) ([]User, int, error) {
	return s.repo.List(ctx, params)
}

func (s *Service) UpdateMe(
	ctx context.Context,
	userID string,
	req UpdateUserRequest,
) (*User, error) {
	if userID == "" {
		return nil, fmt.Errorf("update me: %w", core.ErrUnauthorized)
	}
	return s.repo.UpdateDisplayName(ctx, userID, trimName(req.DisplayName))
}

func (s *Service) UpdateUser(
	ctx context.Context,
	actorID, id string,
	req UpdateUserRequest,
) (*User, error) {
	name := trimName(req.DisplayName)

	updated, err := s.repo.UpdateDisplayName(ctx, id, name)
	if err != nil {
		return nil, err
	}

	s.audit(ctx, actorID, audit.ActionUpdateUser, id, map[string]any{
		"display_name": name,
	})
	return updated, nil
}

func (s *Service) UpdateUserRole(
	ctx context.Context,
	actorID, id, role string,
) (*User, error) {
	if role != RoleUser && role != RoleAdmin {
		return nil, core.NewValidationError("role", "invalid role %q", role)
	}

	updated, err := s.repo.UpdateRole(ctx, id, role)
	if err != nil {
		return nil, err
	}

	s.audit(ctx, actorID, audit.ActionUpdateUserRole, id, map[string]any{
		"role": role,
	})
	return updated, nil
}

func (s *Service) UpdateUserTier(
	ctx context.Context,
	actorID, id, tier string,
) (*User, error) {
	if tier != TierFree && tier != TierMember {
		return nil, core.NewValidationError("tier", "invalid tier %q", tier)
	}

	updated, err := s.repo.UpdateTier(ctx, id, tier)
	if err != nil {
		return nil, err
	}

	s.audit(ctx, actorID, audit.ActionUpdateUserTier, id, map[string]any{
		"tier": tier,
	})
	return updated, nil
}

func (s *Service) audit(
	ctx context.Context,
	actorID, action, userID string,
	details map[string]any,
) {
	if s.auditor == nil {
		return
	}
	s.auditor.Record(ctx, audit.Entry{
		ActorID:    actorID,
		Action:     action,
		EntityType: audit.EntityUser,
		EntityID:   userID,
		Details:    details,
	})
}

func trimName(name *string) *string {
	if name == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*name)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
