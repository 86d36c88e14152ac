// AngelaMos | 2026
// repository.go

package release

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/research-portal/internal/core"
)

type Repository interface {
	CreateWithSections(ctx context.Context, rel *Release, sections []Section) error
	GetByID(ctx context.Context, id string) (*Release, error)
	GetBySlug(ctx context.Context, lineID, slug string) (*Release, error)
	ListForLine(ctx context.Context, lineID string) ([]Release, error)
	Publish(ctx context.Context, id string) (*Release, error)
	Sections(ctx context.Context, releaseID string) ([]Section, error)
	Documents(ctx context.Context, releaseID string) ([]Document, error)
	AddDocument(ctx context.Context, doc *Document) error
}

type repository struct {
	db core.TxBeginner
}

func NewRepository(db core.TxBeginner) Repository {
	return &repository{db: db}
}

const (
	releaseColumns  = `id, research_line_id, title, slug, is_published, published_at, created_at, updated_at`
	sectionColumns  = `id, release_id, category, title, teaser, content, created_at`
	documentColumns = `id, release_id, storage_bucket, storage_path, name, size_bytes, content_type, created_at`
)

// CreateWithSections writes the release and its sections in one
// transaction. Nothing is written when any insert fails.
func (r *repository) CreateWithSections(
	ctx context.Context,
	rel *Release,
	sections []Section,
) error {
	err := core.InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO releases (research_line_id, title, slug, is_published, published_at)
			VALUES ($1, $2, $3, $4, CASE WHEN $4 THEN NOW() END)
			RETURNING ` + releaseColumns

		if err := tx.GetContext(ctx, rel, query,
			rel.ResearchLineID,
			rel.Title,
			rel.Slug,
			rel.IsPublished,
		); err != nil {
			return err
		}

		for i := range sections {
			s := &sections[i]
			s.ReleaseID = rel.ID

			if err := tx.GetContext(ctx, s, `
				INSERT INTO release_sections (release_id, category, title, teaser, content)
				VALUES ($1, $2, $3, $4, $5)
				RETURNING `+sectionColumns,
				s.ReleaseID, s.Category, s.Title, s.Teaser, s.Content,
			); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		switch {
		case core.IsUniqueViolation(err):
			return fmt.Errorf("create release: %w", core.ErrDuplicateKey)
		case core.IsForeignKeyViolation(err):
			return fmt.Errorf("create release: %w", core.ErrNotFound)
		}
		return fmt.Errorf("create release: %w", err)
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Release, error) {
	return r.getOne(ctx, "get release",
		`SELECT `+releaseColumns+` FROM releases WHERE id = $1`, id)
}

func (r *repository) GetBySlug(ctx context.Context, lineID, slug string) (*Release, error) {
	return r.getOne(ctx, "get release by slug",
		`SELECT `+releaseColumns+` FROM releases
		 WHERE research_line_id = $1 AND slug = $2`, lineID, slug)
}

func (r *repository) ListForLine(ctx context.Context, lineID string) ([]Release, error) {
	query := `
		SELECT ` + releaseColumns + `
		FROM releases
		WHERE research_line_id = $1
		ORDER BY created_at DESC`

	var releases []Release
	if err := r.db.SelectContext(ctx, &releases, query, lineID); err != nil {
		return nil, fmt.Errorf("list releases: %w", err)
	}
	return releases, nil
}

// Publish flips a draft to published. An already published release is
// ErrConflict; the flip never happens twice.
func (r *repository) Publish(ctx context.Context, id string) (*Release, error) {
	query := `
		UPDATE releases
		SET is_published = true, published_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND is_published = false
		RETURNING ` + releaseColumns

	var rel Release
	err := r.db.GetContext(ctx, &rel, query, id)
	if err == nil {
		return &rel, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("publish release: %w", err)
	}

	var exists bool
	if err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM releases WHERE id = $1)`, id); err != nil {
		return nil, fmt.Errorf("publish release: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("publish release: %w", core.ErrConflict)
	}
	return nil, fmt.Errorf("publish release: %w", core.ErrNotFound)
}

func (r *repository) Sections(ctx context.Context, releaseID string) ([]Section, error) {
	query := `
		SELECT ` + sectionColumns + `
		FROM release_sections
		WHERE release_id = $1
		ORDER BY CASE category
			WHEN 'current_landscape' THEN 0
			WHEN 'industry_application' THEN 1
			WHEN 'academic_foundation' THEN 2
		END`

	var sections []Section
	if err := r.db.SelectContext(ctx, &sections, query, releaseID); err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	return sections, nil
}

func (r *repository) Documents(ctx context.Context, releaseID string) ([]Document, error) {
	query := `
		SELECT ` + documentColumns + `
		FROM release_documents
		WHERE release_id = $1
		ORDER BY created_at ASC`

	var docs []Document
	if err := r.db.SelectContext(ctx, &docs, query, releaseID); err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

func (r *repository) AddDocument(ctx context.Context, doc *Document) error {
	query := `
		INSERT INTO release_documents (
			release_id, storage_bucket, storage_path, name, size_bytes, content_type
		) VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + documentColumns

	err := r.db.GetContext(ctx, doc, query,
		doc.ReleaseID,
		doc.StorageBucket,
		doc.StoragePath,
		doc.Name,
		doc.SizeBytes,
		doc.ContentType,
	)
	if err != nil {
		if core.IsForeignKeyViolation(err) {
			return fmt.Errorf("add document: %w", core.ErrNotFound)
		}
		return fmt.Errorf("add document: %w", err)
	}
	return nil
}

func (r *repository) getOne(
	ctx context.Context,
	op, query string,
	args ...any,
) (*Release, error) {
	var rel Release
	err := r.db.GetContext(ctx, &rel, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &rel, nil
}
