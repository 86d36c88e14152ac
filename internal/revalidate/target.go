// AngelaMos | 2026
// target.go

package revalidate

import (
	"strings"

	"github.com/carterperez-dev/research-portal/internal/core"
)

type Kind string

const (
	KindResearchLine Kind = "research-line"
	KindRelease      Kind = "release"
	KindAll          Kind = "all"
)

const (
	PathRoot  = "/"
	PathLines = "/lines"
)

// Target names what changed. Slug is the research line slug for
// KindResearchLine; ResearchLineSlug and ReleaseSlug identify a release.
type Target struct {
	Type             Kind   `json:"type"`
	Slug             string `json:"slug,omitempty"`
	ResearchLineSlug string `json:"researchLineSlug,omitempty"`
	ReleaseSlug      string `json:"releaseSlug,omitempty"`
}

func LineTarget(slug string) Target {
	return Target{Type: KindResearchLine, Slug: slug}
}

func ReleaseTarget(lineSlug, releaseSlug string) Target {
	return Target{Type: KindRelease, ResearchLineSlug: lineSlug, ReleaseSlug: releaseSlug}
}

func AllTarget() Target {
	return Target{Type: KindAll}
}

func (t Target) Validate() error {
	switch t.Type {
	case KindResearchLine:
		if strings.TrimSpace(t.Slug) == "" {
			return core.NewValidationError("slug", "slug is required for research-line")
		}
	case KindRelease:
		if strings.TrimSpace(t.ResearchLineSlug) == "" || strings.TrimSpace(t.ReleaseSlug) == "" {
			return core.NewValidationError(
				"releaseSlug",
				"researchLineSlug and releaseSlug are required for release",
			)
		}
	case KindAll:
	default:
		return core.NewValidationError("type", "invalid type %q", t.Type)
	}
	return nil
}

func LinePath(slug string) string {
	return PathLines + "/" + slug
}

func ReleasePath(lineSlug, releaseSlug string) string {
	return LinePath(lineSlug) + "/" + releaseSlug
}

// Subtrees lists path prefixes whose cached pages are stale as a whole.
// A research line change reaches every release page under it.
func Subtrees(t Target) []string {
	switch t.Type {
	case KindResearchLine:
		return []string{LinePath(t.Slug) + "/"}
	case KindAll:
		return []string{PathLines + "/"}
	default:
		return nil
	}
}

// Paths lists the pages made stale by t, most specific first. lineSlugs is
// consulted only for KindAll.
func Paths(t Target, lineSlugs []string) []string {
	switch t.Type {
	case KindResearchLine:
		return []string{LinePath(t.Slug), PathLines, PathRoot}
	case KindRelease:
		return []string{
			ReleasePath(t.ResearchLineSlug, t.ReleaseSlug),
			LinePath(t.ResearchLineSlug),
			PathLines,
			PathRoot,
		}
	case KindAll:
		paths := make([]string, 0, len(lineSlugs)+2)
		paths = append(paths, PathRoot, PathLines)
		for _, slug := range lineSlugs {
			paths = append(paths, LinePath(slug))
		}
		return paths
	default:
		return nil
	}
}
