// AngelaMos | 2026
// dto.go

package release

import (
	"regexp"
	"strings"
	"time"

	"github.com/carterperez-dev/research-portal/internal/access"
	"github.com/carterperez-dev/research-portal/internal/core"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

type SectionInput struct {
	Category Category `json:"category" validate:"required"`
	Title    string   `json:"title"    validate:"max=200"`
	Teaser   string   `json:"teaser"   validate:"max=2000"`
	Content  string   `json:"content"  validate:"max=200000"`
}

type CreateRequest struct {
	Title    string         `json:"title"    validate:"required,max=200"`
	Slug     string         `json:"slug"     validate:"required,max=120"`
	Publish  bool           `json:"publish"`
	Sections []SectionInput `json:"sections" validate:"max=3,dive"`
}

// sections validates the request and returns the sections to write. A
// section with every field blank is absent; a partially filled one rejects
// the whole request.
func (r *CreateRequest) sections() ([]Section, error) {
	r.Title = strings.TrimSpace(r.Title)
	r.Slug = strings.TrimSpace(r.Slug)

	if r.Title == "" {
		return nil, core.NewValidationError("title", "title is required")
	}
	if r.Slug == "" {
		return nil, core.NewValidationError("slug", "slug is required")
	}
	if !slugPattern.MatchString(r.Slug) {
		return nil, core.NewValidationError("slug",
			"slug %q must be lowercase letters, digits and single hyphens", r.Slug)
	}

	seen := make(map[Category]bool, len(r.Sections))
	var out []Section

	for _, in := range r.Sections {
		if !in.Category.Valid() {
			return nil, core.NewValidationError("sections",
				"unknown section category %q", in.Category)
		}
		if seen[in.Category] {
			return nil, core.NewValidationError("sections",
				"section %q appears more than once", in.Category.Label())
		}
		seen[in.Category] = true

		s := Section{
			Category: in.Category,
			Title:    strings.TrimSpace(in.Title),
			Teaser:   strings.TrimSpace(in.Teaser),
			Content:  strings.TrimSpace(in.Content),
		}

		filled := 0
		for _, f := range []string{s.Title, s.Teaser, s.Content} {
			if f != "" {
				filled++
			}
		}
		switch filled {
		case 0:
			continue
		case 3:
			out = append(out, s)
		default:
			return nil, core.NewValidationError("sections",
				"section %q is incomplete: title, teaser and content are all required",
				in.Category.Label())
		}
	}

	sortSections(out)
	return out, nil
}

type ReleaseResponse struct {
	ID             string     `json:"id"`
	ResearchLineID string     `json:"research_line_id"`
	Title          string     `json:"title"`
	Slug           string     `json:"slug"`
	IsPublished    bool       `json:"is_published"`
	PublishedAt    *time.Time `json:"published_at"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func ToReleaseResponse(r *Release) ReleaseResponse {
	return ReleaseResponse{
		ID:             r.ID,
		ResearchLineID: r.ResearchLineID,
		Title:          r.Title,
		Slug:           r.Slug,
		IsPublished:    r.IsPublished,
		PublishedAt:    r.PublishedAt,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

func ToReleaseResponseList(releases []Release) []ReleaseResponse {
	out := make([]ReleaseResponse, len(releases))
	for i := range releases {
		out[i] = ToReleaseResponse(&releases[i])
	}
	return out
}

type DocumentView struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	URL         *string  `json:"url"`
	Available   bool     `json:"available"`
	Size        string   `json:"size"`
	ContentType *string  `json:"content_type,omitempty"`
	Category    Category `json:"category,omitempty"`
}

type SectionView struct {
	Category    Category      `json:"category"`
	Title       string        `json:"title"`
	Teaser      string        `json:"teaser"`
	TeaserHTML  string        `json:"teaser_html,omitempty"`
	Content     string        `json:"content,omitempty"`
	ContentHTML string        `json:"content_html,omitempty"`
	Document    *DocumentView `json:"document,omitempty"`
}

type LineSummary struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
}

type View struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Slug        string         `json:"slug"`
	IsPublished bool           `json:"is_published"`
	PublishedAt *time.Time     `json:"published_at"`
	Line        LineSummary    `json:"line"`
	Sections    []SectionView  `json:"sections"`
	Documents   []DocumentView `json:"documents,omitempty"`
}

// Preview strips everything a gated viewer may not see: section bodies and
// all documents. Titles and teasers stay.
func (v View) Preview() View {
	preview := v
	preview.Documents = nil
	preview.Sections = make([]SectionView, len(v.Sections))
	for i, s := range v.Sections {
		preview.Sections[i] = SectionView{
			Category:   s.Category,
			Title:      s.Title,
			Teaser:     s.Teaser,
			TeaserHTML: s.TeaserHTML,
		}
	}
	return preview
}

type ViewResponse struct {
	Release View         `json:"release"`
	Access  access.State `json:"access"`
}
