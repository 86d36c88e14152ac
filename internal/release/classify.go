// AngelaMos | 2026
// classify.go

package release

import (
	"fmt"
	"strings"
)

var categoryKeywords = map[Category][]string{
	CategoryCurrentLandscape:    {"actualidad", "panorama", "landscape", "current"},
	CategoryIndustryApplication: {"industria", "industrial", "industry", "aplicacion", "application"},
	CategoryAcademicFoundation:  {"academico", "academica", "academic", "fundamento", "foundation"},
}

// Classified groups a release's documents. Each category holds at most one
// primary document; everything else lands in Other in input order.
type Classified struct {
	Primary map[Category]Document
	Other   []Document
}

// ClassifyDocuments assigns each document to the first category whose
// keywords appear in its storage path or name. A category keeps the first
// document it matched; later matches fall through to Other.
func ClassifyDocuments(docs []Document) Classified {
	out := Classified{Primary: make(map[Category]Document, len(Categories))}

	for _, doc := range docs {
		cat, ok := matchCategory(doc)
		if !ok {
			out.Other = append(out.Other, doc)
			continue
		}
		if _, taken := out.Primary[cat]; taken {
			out.Other = append(out.Other, doc)
			continue
		}
		out.Primary[cat] = doc
	}

	return out
}

func matchCategory(doc Document) (Category, bool) {
	haystack := strings.ToLower(doc.StoragePath + " " + doc.Name)

	for _, cat := range Categories {
		for _, kw := range categoryKeywords[cat] {
			if strings.Contains(haystack, kw) {
				return cat, true
			}
		}
	}
	return "", false
}

var sizeUnits = []string{"KB", "MB", "GB", "TB"}

const roundsToNextUnit = 1024 - 0.05

// FormatFileSize renders a byte count for display. Unknown and
// non-positive sizes read "unknown".
func FormatFileSize(size *int64) string {
	if size == nil || *size <= 0 {
		return "unknown"
	}

	n := *size
	if n < 1024 {
		return fmt.Sprintf("%d B", n)
	}

	value := float64(n) / 1024
	unit := 0
	// Step up once the value would print as 1024.0.
	for value >= roundsToNextUnit && unit < len(sizeUnits)-1 {
		value /= 1024
		unit++
	}

	return fmt.Sprintf("%.1f %s", value, sizeUnits[unit])
}
