// AngelaMos | 2026
// classify_test.go

package release

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doc(id, path, name string) Document {
	return Document{ID: id, StoragePath: path, Name: name}
}

func TestClassifyDocuments(t *testing.T) {
	docs := []Document{
		doc("1", "releases/r1/informe-industria.pdf", "Informe"),
		doc("2", "releases/r1/base.pdf", "Marco Academico"),
		doc("3", "releases/r1/actualidad-q1.pdf", "Q1"),
		doc("4", "releases/r1/a.pdf", "Actualidad anexo"),
		doc("5", "releases/r1/misc.pdf", "Slides"),
	}

	got := ClassifyDocuments(docs)

	require.Len(t, got.Primary, 3)
	assert.Equal(t, "1", got.Primary[CategoryIndustryApplication].ID)
	assert.Equal(t, "2", got.Primary[CategoryAcademicFoundation].ID)
	assert.Equal(t, "3", got.Primary[CategoryCurrentLandscape].ID)

	require.Len(t, got.Other, 2)
	assert.Equal(t, "4", got.Other[0].ID)
	assert.Equal(t, "5", got.Other[1].ID)
}

func TestClassifyFirstCategoryWins(t *testing.T) {
	got := ClassifyDocuments([]Document{
		doc("1", "industry/current-report.pdf", "Report"),
	})

	assert.Equal(t, "1", got.Primary[CategoryCurrentLandscape].ID)
	assert.NotContains(t, got.Primary, CategoryIndustryApplication)
	assert.Empty(t, got.Other)
}

func TestClassifyEmpty(t *testing.T) {
	got := ClassifyDocuments(nil)
	assert.Empty(t, got.Primary)
	assert.Empty(t, got.Other)
}

func TestFormatFileSize(t *testing.T) {
	size := func(n int64) *int64 { return &n }

	tests := []struct {
		name string
		in   *int64
		want string
	}{
		{"nil", nil, "unknown"},
		{"zero", size(0), "unknown"},
		{"negative", size(-5), "unknown"},
		{"bytes", size(1023), "1023 B"},
		{"one kb", size(1024), "1.0 KB"},
		{"kb", size(1536), "1.5 KB"},
		{"largest kb", size(1023 * 1024), "1023.0 KB"},
		{"rounds up to mb", size(1048575), "1.0 MB"},
		{"just below rounding", size(1048524), "1023.9 KB"},
		{"rounds up to gb", size(1073741823), "1.0 GB"},
		{"mb", size(5 * 1024 * 1024), "5.0 MB"},
		{"gb", size(1073741824), "1.0 GB"},
		{"tb", size(3 * 1024 * 1024 * 1024 * 1024), "3.0 TB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatFileSize(tt.in))
		})
	}
}
