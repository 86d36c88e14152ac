// AngelaMos | 2026
// repository.go

package researchline

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/carterperez-dev/research-portal/internal/core"
)

type Repository interface {
	List(ctx context.Context, includeInactive bool) ([]ResearchLine, error)
	ListSlugs(ctx context.Context) ([]string, error)
	GetByID(ctx context.Context, id string) (*ResearchLine, error)
	GetBySlug(ctx context.Context, slug string) (*ResearchLine, error)
	Create(ctx context.Context, line *ResearchLine) error
	Update(ctx context.Context, line *ResearchLine) error
	Delete(ctx context.Context, id string) error
	SetActive(ctx context.Context, id string, active bool) (*ResearchLine, error)
	ListReleases(ctx context.Context, lineID string, includeDrafts bool) ([]ReleaseSummary, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const lineColumns = `id, title, slug, description, is_active, created_at, updated_at`

func (r *repository) List(ctx context.Context, includeInactive bool) ([]ResearchLine, error) {
	query := `SELECT ` + lineColumns + ` FROM research_lines`
	if !includeInactive {
		query += ` WHERE is_active = true`
	}
	query += ` ORDER BY title ASC`

	var lines []ResearchLine
	if err := r.db.SelectContext(ctx, &lines, query); err != nil {
		return nil, fmt.Errorf("list research lines: %w", err)
	}
	return lines, nil
}

func (r *repository) ListSlugs(ctx context.Context) ([]string, error) {
	var slugs []string
	if err := r.db.SelectContext(ctx, &slugs,
		`SELECT slug FROM research_lines ORDER BY slug ASC`); err != nil {
		return nil, fmt.Errorf("list research line slugs: %w", err)
	}
	return slugs, nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*ResearchLine, error) {
	return r.getOne(ctx, "get research line",
		`SELECT `+lineColumns+` FROM research_lines WHERE id = $1`, id)
}

func (r *repository) GetBySlug(ctx context.Context, slug string) (*ResearchLine, error) {
	return r.getOne(ctx, "get research line by slug",
		`SELECT `+lineColumns+` FROM research_lines WHERE slug = $1`, slug)
}

func (r *repository) Create(ctx context.Context, line *ResearchLine) error {
	query := `
		INSERT INTO research_lines (title, slug, description, is_active)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + lineColumns

	err := r.db.GetContext(ctx, line, query,
		line.Title,
		line.Slug,
		line.Description,
		line.IsActive,
	)
	if err != nil {
		if core.IsUniqueViolation(err) {
			return fmt.Errorf("create research line: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create research line: %w", err)
	}
	return nil
}

func (r *repository) Update(ctx context.Context, line *ResearchLine) error {
	query := `
		UPDATE research_lines
		SET title = $2, slug = $3, description = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + lineColumns

	err := r.db.GetContext(ctx, line, query,
		line.ID,
		line.Title,
		line.Slug,
		line.Description,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update research line: %w", core.ErrNotFound)
	}
	if err != nil {
		if core.IsUniqueViolation(err) {
			return fmt.Errorf("update research line: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("update research line: %w", err)
	}
	return nil
}

// Delete removes the line. Releases, sections, documents and subscriptions
// go with it through ON DELETE CASCADE.
func (r *repository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM research_lines WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete research line: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete research line: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("delete research line: %w", core.ErrNotFound)
	}
	return nil
}

func (r *repository) SetActive(
	ctx context.Context,
	id string,
	active bool,
) (*ResearchLine, error) {
	return r.getOne(ctx, "set research line active",
		`UPDATE research_lines SET is_active = $2, updated_at = NOW()
		 WHERE id = $1 RETURNING `+lineColumns,
		id, active)
}

func (r *repository) ListReleases(
	ctx context.Context,
	lineID string,
	includeDrafts bool,
) ([]ReleaseSummary, error) {
	query := `
		SELECT id, title, slug, is_published, published_at
		FROM releases
		WHERE research_line_id = $1`
	if !includeDrafts {
		query += ` AND is_published = true`
	}
	query += ` ORDER BY COALESCE(published_at, created_at) DESC`

	var releases []ReleaseSummary
	if err := r.db.SelectContext(ctx, &releases, query, lineID); err != nil {
		return nil, fmt.Errorf("list line releases: %w", err)
	}
	return releases, nil
}

func (r *repository) getOne(
	ctx context.Context,
	op, query string,
	args ...any,
) (*ResearchLine, error) {
	var line ResearchLine
	err := r.db.GetContext(ctx, &line, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &line, nil
}
