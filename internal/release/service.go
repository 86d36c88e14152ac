// AngelaMos | 2026
// service.go

package release

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/carterperez-dev/research-portal/internal/audit"
	"github.com/carterperez-dev/research-portal/internal/core"
	"github.com/carterperez-dev/research-portal/internal/researchline"
	"github.com/carterperez-dev/research-portal/internal/revalidate"
)

type LineFinder interface {
	Get(ctx context.Context, id string) (*researchline.ResearchLine, error)
	GetBySlug(ctx context.Context, slug string, includeInactive bool) (*researchline.ResearchLine, error)
}

type ObjectStore interface {
	Upload(ctx context.Context, bucket, key string, body io.ReadSeeker, contentType string) error
	Delete(ctx context.Context, bucket, key string) error
	DefaultBucket() string
}

type Auditor interface {
	Record(ctx context.Context, entry audit.Entry)
}

type Invalidator interface {
	Trigger(ctx context.Context, target revalidate.Target)
}

type ServiceConfig struct {
	Repo        Repository
	Lines       LineFinder
	Objects     ObjectStore
	Auditor     Auditor
	Invalidator Invalidator
	Logger      *slog.Logger
}

type Service struct {
	repo        Repository
	lines       LineFinder
	objects     ObjectStore
	auditor     Auditor
	invalidator Invalidator
	logger      *slog.Logger
}

func NewService(cfg ServiceConfig) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:        cfg.Repo,
		lines:       cfg.Lines,
		objects:     cfg.Objects,
		auditor:     cfg.Auditor,
		invalidator: cfg.Invalidator,
		logger:      logger,
	}
}

func (s *Service) Create(
	ctx context.Context,
	actorID, lineID string,
	req CreateRequest,
) (*Release, error) {
	sections, err := req.sections()
	if err != nil {
		return nil, err
	}

	line, err := s.lines.Get(ctx, lineID)
	if err != nil {
		return nil, err
	}

	rel := &Release{
		ResearchLineID: line.ID,
		Title:          req.Title,
		Slug:           req.Slug,
		IsPublished:    req.Publish,
	}
	if err := s.repo.CreateWithSections(ctx, rel, sections); err != nil {
		return nil, err
	}

	categories := make([]string, len(sections))
	for i, sec := range sections {
		categories[i] = string(sec.Category)
	}

	s.audit(ctx, actorID, audit.ActionCreateRelease, audit.EntityRelease, rel.ID, map[string]any{
		"research_line_id": line.ID,
		"title":            rel.Title,
		"slug":             rel.Slug,
		"is_published":     rel.IsPublished,
		"sections":         categories,
	})
	s.invalidate(ctx, line.Slug, rel.Slug)

	return rel, nil
}

func (s *Service) Publish(ctx context.Context, actorID, id string) (*Release, error) {
	rel, err := s.repo.Publish(ctx, id)
	if err != nil {
		return nil, err
	}

	s.audit(ctx, actorID, audit.ActionPublishRelease, audit.EntityRelease, rel.ID, map[string]any{
		"research_line_id": rel.ResearchLineID,
		"slug":             rel.Slug,
		"published_at":     rel.PublishedAt,
	})

	if line, err := s.lines.Get(ctx, rel.ResearchLineID); err == nil {
		s.invalidate(ctx, line.Slug, rel.Slug)
	} else {
		s.logger.WarnContext(ctx, "published release line not found for invalidation",
			"release_id", rel.ID,
			"error", err,
		)
	}

	return rel, nil
}

type Upload struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.ReadSeeker
}

// AddDocument stores the upload in object storage and registers it on the
// release. The stored object is removed again if registration fails.
func (s *Service) AddDocument(
	ctx context.Context,
	actorID, releaseID string,
	up Upload,
) (*Document, error) {
	name := strings.TrimSpace(up.Name)
	if name == "" {
		return nil, core.NewValidationError("name", "document name is required")
	}

	rel, err := s.repo.GetByID(ctx, releaseID)
	if err != nil {
		return nil, err
	}

	bucket := s.objects.DefaultBucket()
	key := objectKey(rel.ID, name)

	if err := s.objects.Upload(ctx, bucket, key, up.Body, up.ContentType); err != nil {
		return nil, err
	}

	doc := &Document{
		ReleaseID:     rel.ID,
		StorageBucket: bucket,
		StoragePath:   key,
		Name:          name,
	}
	if up.Size > 0 {
		size := up.Size
		doc.SizeBytes = &size
	}
	if up.ContentType != "" {
		ct := up.ContentType
		doc.ContentType = &ct
	}

	if err := s.repo.AddDocument(ctx, doc); err != nil {
		if delErr := s.objects.Delete(ctx, bucket, key); delErr != nil {
			s.logger.WarnContext(ctx, "orphaned document object",
				"bucket", bucket,
				"key", key,
				"error", delErr,
			)
		}
		return nil, err
	}

	s.audit(ctx, actorID, audit.ActionAddReleaseDocument, audit.EntityReleaseDocument, doc.ID,
		map[string]any{
			"release_id":   rel.ID,
			"name":         doc.Name,
			"storage_path": doc.StoragePath,
			"size_bytes":   doc.SizeBytes,
		})

	if line, err := s.lines.Get(ctx, rel.ResearchLineID); err == nil {
		s.invalidate(ctx, line.Slug, rel.Slug)
	}

	return doc, nil
}

func (s *Service) ListForLine(ctx context.Context, lineID string) ([]Release, error) {
	if _, err := s.lines.Get(ctx, lineID); err != nil {
		return nil, err
	}
	return s.repo.ListForLine(ctx, lineID)
}

// Load fetches a release by its public slugs. Inactive lines and drafts are
// ErrNotFound unless includeHidden is set.
// VisibleLine returns the active research line under slug.
func (s *Service) VisibleLine(ctx context.Context, slug string) (*researchline.ResearchLine, error) {
	return s.lines.GetBySlug(ctx, slug, false)
}

func (s *Service) Load(
	ctx context.Context,
	lineSlug, releaseSlug string,
	includeHidden bool,
) (*Content, *researchline.ResearchLine, error) {
	line, err := s.lines.GetBySlug(ctx, lineSlug, includeHidden)
	if err != nil {
		return nil, nil, err
	}

	rel, err := s.repo.GetBySlug(ctx, line.ID, releaseSlug)
	if err != nil {
		return nil, nil, err
	}
	if !rel.IsPublished && !includeHidden {
		return nil, nil, fmt.Errorf("load release %s: %w", releaseSlug, core.ErrNotFound)
	}

	sections, err := s.repo.Sections(ctx, rel.ID)
	if err != nil {
		return nil, nil, err
	}
	docs, err := s.repo.Documents(ctx, rel.ID)
	if err != nil {
		return nil, nil, err
	}

	return &Content{Release: *rel, Sections: sections, Documents: docs}, line, nil
}

func (s *Service) audit(
	ctx context.Context,
	actorID, action, entityType, entityID string,
	details map[string]any,
) {
	if s.auditor == nil {
		return
	}
	s.auditor.Record(ctx, audit.Entry{
		ActorID:    actorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    details,
	})
}

func (s *Service) invalidate(ctx context.Context, lineSlug, releaseSlug string) {
	if s.invalidator == nil {
		return
	}
	s.invalidator.Trigger(ctx, revalidate.ReleaseTarget(lineSlug, releaseSlug))
}

func objectKey(releaseID, name string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		}
		return '-'
	}, base)
	return fmt.Sprintf("releases/%s/%s-%s", releaseID, uuid.NewString()[:8], base)
}
