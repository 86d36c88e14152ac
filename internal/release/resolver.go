// AngelaMos | 2026
// resolver.go

package release

import (
	"context"
	"log/slog"
	"sort"
)

type URLResolver interface {
	PublicURL(bucket, path string) *string
}

// Resolver builds the full view of a release: ordered sections with their
// rendered bodies and primary documents, plus the remaining documents.
type Resolver struct {
	urls     URLResolver
	renderer *Renderer
	logger   *slog.Logger
}

func NewResolver(urls URLResolver, renderer *Renderer, logger *slog.Logger) *Resolver {
	if renderer == nil {
		renderer = NewRenderer()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{urls: urls, renderer: renderer, logger: logger}
}

func (r *Resolver) Resolve(ctx context.Context, content *Content, line LineSummary) View {
	rel := content.Release
	view := View{
		ID:          rel.ID,
		Title:       rel.Title,
		Slug:        rel.Slug,
		IsPublished: rel.IsPublished,
		PublishedAt: rel.PublishedAt,
		Line:        line,
		Sections:    []SectionView{},
	}

	classified := ClassifyDocuments(content.Documents)

	sections := append([]Section(nil), content.Sections...)
	sortSections(sections)

	for _, s := range sections {
		sv := SectionView{
			Category:    s.Category,
			Title:       s.Title,
			Teaser:      s.Teaser,
			TeaserHTML:  r.render(ctx, rel.ID, s.Teaser),
			Content:     s.Content,
			ContentHTML: r.render(ctx, rel.ID, s.Content),
		}
		if doc, ok := classified.Primary[s.Category]; ok {
			dv := r.document(doc, s.Category)
			sv.Document = &dv
		}
		view.Sections = append(view.Sections, sv)
	}

	present := make(map[Category]bool, len(sections))
	for _, s := range sections {
		present[s.Category] = true
	}

	// A primary document whose section is absent is still listed.
	for _, cat := range Categories {
		if doc, ok := classified.Primary[cat]; ok && !present[cat] {
			view.Documents = append(view.Documents, r.document(doc, cat))
		}
	}
	for _, doc := range classified.Other {
		view.Documents = append(view.Documents, r.document(doc, ""))
	}

	return view
}

func (r *Resolver) document(doc Document, cat Category) DocumentView {
	var url *string
	if r.urls != nil {
		url = r.urls.PublicURL(doc.StorageBucket, doc.StoragePath)
	}

	return DocumentView{
		ID:          doc.ID,
		Name:        doc.Name,
		URL:         url,
		Available:   url != nil,
		Size:        FormatFileSize(doc.SizeBytes),
		ContentType: doc.ContentType,
		Category:    cat,
	}
}

func (r *Resolver) render(ctx context.Context, releaseID, source string) string {
	html, err := r.renderer.Render(source)
	if err != nil {
		r.logger.WarnContext(ctx, "section markdown not rendered",
			"release_id", releaseID,
			"error", err,
		)
		return ""
	}
	return html
}

func sortSections(sections []Section) {
	sort.SliceStable(sections, func(i, j int) bool {
		return sections[i].Category.order() < sections[j].Category.order()
	})
}
