// AngelaMos | 2026
// service.go

package researchline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/carterperez-dev/research-portal/internal/audit"
	"github.com/carterperez-dev/research-portal/internal/core"
	"github.com/carterperez-dev/research-portal/internal/revalidate"
)

type Auditor interface {
	Record(ctx context.Context, entry audit.Entry)
}

type Invalidator interface {
	Trigger(ctx context.Context, target revalidate.Target)
}

type Service struct {
	repo        Repository
	auditor     Auditor
	invalidator Invalidator
	logger      *slog.Logger
}

func NewService(
	repo Repository,
	auditor Auditor,
	invalidator Invalidator,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:        repo,
		auditor:     auditor,
		invalidator: invalidator,
		logger:      logger,
	}
}

func (s *Service) List(ctx context.Context, includeInactive bool) ([]ResearchLine, error) {
	return s.repo.List(ctx, includeInactive)
}

func (s *Service) ListSlugs(ctx context.Context) ([]string, error) {
	return s.repo.ListSlugs(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (*ResearchLine, error) {
	return s.repo.GetByID(ctx, id)
}

// GetBySlug hides inactive lines unless includeInactive is set.
func (s *Service) GetBySlug(
	ctx context.Context,
	slug string,
	includeInactive bool,
) (*ResearchLine, error) {
	line, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !line.IsActive && !includeInactive {
		return nil, fmt.Errorf("get research line %s: %w", slug, core.ErrNotFound)
	}
	return line, nil
}

func (s *Service) ActiveLineID(ctx context.Context, slug string) (string, error) {
	line, err := s.GetBySlug(ctx, slug, false)
	if err != nil {
		return "", err
	}
	return line.ID, nil
}

// Page loads a line with its releases. Drafts are included only with
// includeHidden, which also exposes inactive lines.
func (s *Service) Page(ctx context.Context, slug string, includeHidden bool) (*Page, error) {
	line, err := s.GetBySlug(ctx, slug, includeHidden)
	if err != nil {
		return nil, err
	}

	releases, err := s.repo.ListReleases(ctx, line.ID, includeHidden)
	if err != nil {
		return nil, err
	}
	if releases == nil {
		releases = []ReleaseSummary{}
	}

	return &Page{Line: ToLineResponse(line), Releases: releases}, nil
}

func (s *Service) Create(
	ctx context.Context,
	actorID string,
	req CreateRequest,
) (*ResearchLine, error) {
	if err := req.normalize(); err != nil {
		return nil, err
	}

	line := &ResearchLine{
		Title:       req.Title,
		Slug:        req.Slug,
		Description: req.Description,
		IsActive:    true,
	}
	if req.IsActive != nil {
		line.IsActive = *req.IsActive
	}

	if err := s.repo.Create(ctx, line); err != nil {
		return nil, err
	}

	s.audit(ctx, actorID, audit.ActionCreateResearchLine, line.ID, map[string]any{
		"title":       line.Title,
		"slug":        line.Slug,
		"description": line.Description,
		"is_active":   line.IsActive,
	})
	s.invalidate(ctx, line.Slug)

	return line, nil
}

func (s *Service) Update(
	ctx context.Context,
	actorID, id string,
	req UpdateRequest,
) (*ResearchLine, error) {
	if err := req.normalize(); err != nil {
		return nil, err
	}

	line, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	previousSlug := line.Slug

	details := map[string]any{}
	if req.Title != nil {
		line.Title = *req.Title
		details["title"] = line.Title
	}
	if req.Slug != nil {
		line.Slug = *req.Slug
		details["slug"] = line.Slug
	}
	if req.Description != nil {
		line.Description = *req.Description
		details["description"] = line.Description
	}

	if err := s.repo.Update(ctx, line); err != nil {
		return nil, err
	}

	if previousSlug != line.Slug {
		details["previous_slug"] = previousSlug
		s.invalidate(ctx, previousSlug)
	}
	s.audit(ctx, actorID, audit.ActionUpdateResearchLine, line.ID, details)
	s.invalidate(ctx, line.Slug)

	return line, nil
}

func (s *Service) Delete(ctx context.Context, actorID, id string) error {
	line, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.audit(ctx, actorID, audit.ActionDeleteResearchLine, id, map[string]any{
		"title": line.Title,
		"slug":  line.Slug,
	})
	s.invalidate(ctx, line.Slug)

	return nil
}

func (s *Service) SetActive(
	ctx context.Context,
	actorID, id string,
	active bool,
) (*ResearchLine, error) {
	line, err := s.repo.SetActive(ctx, id, active)
	if err != nil {
		return nil, err
	}

	action := audit.ActionDeactivateResearchLine
	if active {
		action = audit.ActionActivateResearchLine
	}
	s.audit(ctx, actorID, action, line.ID, map[string]any{
		"slug":      line.Slug,
		"is_active": active,
	})
	s.invalidate(ctx, line.Slug)

	return line, nil
}

func (s *Service) audit(
	ctx context.Context,
	actorID, action, lineID string,
	details map[string]any,
) {
	if s.auditor == nil {
		return
	}
	s.auditor.Record(ctx, audit.Entry{
		ActorID:    actorID,
		Action:     action,
		EntityType: audit.EntityResearchLine,
		EntityID:   lineID,
		Details:    details,
	})
}

func (s *Service) invalidate(ctx context.Context, slug string) {
	if s.invalidator == nil {
		return
	}
	s.invalidator.Trigger(ctx, revalidate.LineTarget(slug))
}
