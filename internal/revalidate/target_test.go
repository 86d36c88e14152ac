// AngelaMos | 2026
// target_test.go

package revalidate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/carterperez-dev/research-portal/internal/core"
)

func TestPaths(t *testing.T) {
	tests := []struct {
		name   string
		target Target
		slugs  []string
		want   []string
	}{
		{
			name:   "research line",
			target: LineTarget("ai-policy"),
			want:   []string{"/lines/ai-policy", "/lines", "/"},
		},
		{
			name:   "release",
			target: ReleaseTarget("ai-policy", "q1-2026"),
			want:   []string{"/lines/ai-policy/q1-2026", "/lines/ai-policy", "/lines", "/"},
		},
		{
			name:   "all",
			target: AllTarget(),
			slugs:  []string{"ai-policy", "energy"},
			want:   []string{"/", "/lines", "/lines/ai-policy", "/lines/energy"},
		},
		{
			name:   "all with no lines",
			target: AllTarget(),
			want:   []string{"/", "/lines"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Paths(tt.target, tt.slugs))
		})
	}
}

func TestSubtrees(t *testing.T) {
	assert.Equal(t, []string{"/lines/ai-policy/"}, Subtrees(LineTarget("ai-policy")))
	assert.Equal(t, []string{"/lines/"}, Subtrees(AllTarget()))
	assert.Empty(t, Subtrees(ReleaseTarget("ai-policy", "q1")))
}

func TestValidate(t *testing.T) {
	assert.NoError(t, LineTarget("x").Validate())
	assert.NoError(t, ReleaseTarget("x", "y").Validate())
	assert.NoError(t, AllTarget().Validate())

	assert.ErrorIs(t, Target{Type: "page"}.Validate(), core.ErrInvalidInput)
	assert.ErrorIs(t, Target{Type: KindResearchLine}.Validate(), core.ErrInvalidInput)
	assert.ErrorIs(t, Target{Type: KindRelease, ResearchLineSlug: "x"}.Validate(), core.ErrInvalidInput)
}
