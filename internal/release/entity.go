// AngelaMos | 2026
// entity.go

package release

import (
	"time"
)

type Category string

const (
	CategoryCurrentLandscape    Category = "current_landscape"
	CategoryIndustryApplication Category = "industry_application"
	CategoryAcademicFoundation  Category = "academic_foundation"
)

// Categories lists every section category in display order.
var Categories = []Category{
	CategoryCurrentLandscape,
	CategoryIndustryApplication,
	CategoryAcademicFoundation,
}

func (c Category) Valid() bool {
	return c.order() >= 0
}

func (c Category) Label() string {
	switch c {
	case CategoryCurrentLandscape:
		return "Current landscape"
	case CategoryIndustryApplication:
		return "Industry application"
	case CategoryAcademicFoundation:
		return "Academic foundation"
	}
	return string(c)
}

func (c Category) order() int {
	for i, cat := range Categories {
		if cat == c {
			return i
		}
	}
	return -1
}

type Release struct {
	ID             string     `db:"id"`
	ResearchLineID string     `db:"research_line_id"`
	Title          string     `db:"title"`
	Slug           string     `db:"slug"`
	IsPublished    bool       `db:"is_published"`
	PublishedAt    *time.Time `db:"published_at"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
}

type Section struct {
	ID        string    `db:"id"`
	ReleaseID string    `db:"release_id"`
	Category  Category  `db:"category"`
	Title     string    `db:"title"`
	Teaser    string    `db:"teaser"`
	Content   string    `db:"content"`
	CreatedAt time.Time `db:"created_at"`
}

type Document struct {
	ID            string    `db:"id"`
	ReleaseID     string    `db:"release_id"`
	StorageBucket string    `db:"storage_bucket"`
	StoragePath   string    `db:"storage_path"`
	Name          string    `db:"name"`
	SizeBytes     *int64    `db:"size_bytes"`
	ContentType   *string   `db:"content_type"`
	CreatedAt     time.Time `db:"created_at"`
}

// Content is a release with everything needed to render it.
type Content struct {
	Release   Release
	Sections  []Section
	Documents []Document
}
