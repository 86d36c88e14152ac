// AngelaMos | 2026
// entity.go

package researchline

import (
	"time"
)

type ResearchLine struct {
	ID          string    `db:"id"`
	Title       string    `db:"title"`
	Slug        string    `db:"slug"`
	Description string    `db:"description"`
	IsActive    bool      `db:"is_active"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// ReleaseSummary is the listing row shown on a line page. Section bodies
// and documents are never part of it.
type ReleaseSummary struct {
	ID          string     `db:"id"           json:"id"`
	Title       string     `db:"title"        json:"title"`
	Slug        string     `db:"slug"         json:"slug"`
	IsPublished bool       `db:"is_published" json:"is_published"`
	PublishedAt *time.Time `db:"published_at" json:"published_at"`
}
