// AngelaMos | 2026
// dto.go

package researchline

import (
	"regexp"
	"strings"
	"time"

	"github.com/carterperez-dev/research-portal/internal/access"
	"github.com/carterperez-dev/research-portal/internal/core"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

type CreateRequest struct {
	Title       string `json:"title"       validate:"required,max=200"`
	Slug        string `json:"slug"        validate:"required,max=120"`
	Description string `json:"description" validate:"max=5000"`
	IsActive    *bool  `json:"is_active,omitempty"`
}

type UpdateRequest struct {
	Title       *string `json:"title,omitempty"       validate:"omitempty,max=200"`
	Slug        *string `json:"slug,omitempty"        validate:"omitempty,max=120"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=5000"`
}

func (r *CreateRequest) normalize() error {
	r.Title = strings.TrimSpace(r.Title)
	r.Slug = strings.TrimSpace(r.Slug)
	r.Description = strings.TrimSpace(r.Description)

	if r.Title == "" {
		return core.NewValidationError("title", "title is required")
	}
	return validateSlug(r.Slug)
}

func (r *UpdateRequest) normalize() error {
	if r.Title != nil {
		t := strings.TrimSpace(*r.Title)
		if t == "" {
			return core.NewValidationError("title", "title cannot be empty")
		}
		r.Title = &t
	}
	if r.Slug != nil {
		s := strings.TrimSpace(*r.Slug)
		if err := validateSlug(s); err != nil {
			return err
		}
		r.Slug = &s
	}
	if r.Description != nil {
		d := strings.TrimSpace(*r.Description)
		r.Description = &d
	}
	return nil
}

func validateSlug(slug string) error {
	if slug == "" {
		return core.NewValidationError("slug", "slug is required")
	}
	if !slugPattern.MatchString(slug) {
		return core.NewValidationError("slug",
			"slug %q must be lowercase letters, digits and single hyphens", slug)
	}
	return nil
}

type LineResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func ToLineResponse(l *ResearchLine) LineResponse {
	return LineResponse{
		ID:          l.ID,
		Title:       l.Title,
		Slug:        l.Slug,
		Description: l.Description,
		IsActive:    l.IsActive,
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   l.UpdatedAt,
	}
}

func ToLineResponseList(lines []ResearchLine) []LineResponse {
	out := make([]LineResponse, len(lines))
	for i := range lines {
		out[i] = ToLineResponse(&lines[i])
	}
	return out
}

// Page is the viewer-independent line page. It is what the page cache
// stores.
type Page struct {
	Line     LineResponse     `json:"line"`
	Releases []ReleaseSummary `json:"releases"`
}

type PageResponse struct {
	Page
	Access access.State `json:"access"`
}
