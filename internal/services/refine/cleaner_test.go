package refine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/lector/internal/common"
)

func newTestCleaner(t *testing.T) *Cleaner {
	t.Helper()
	cleaner, err := NewCleaner(common.CleanerConfig{
		HeadingAnchors: []string{"information storage"},
		HeadingLabels:  []string{"definition", "example", "summary"},
	}, arbor.NewLogger())
	require.NoError(t, err)
	return cleaner
}

func TestCleaner_Deterministic(t *testing.T) {
	cleaner := newTestCleaner(t)
	raw := "ThE  QUICK   brown\nfox JUMPED. over the   lazy dog. It was\t\tfast."

	first := cleaner.Clean(raw)
	second := cleaner.Clean(raw)

	assert.Equal(t, first, second)
	assert.NotEmpty(t, first)
}

func TestCleaner_NormalizesCaseAndWhitespace(t *testing.T) {
	cleaner := newTestCleaner(t)

	out := cleaner.Clean("MEMORY   Systems\t\tENCODE    details.")

	assert.Contains(t, out, "memory systems encode details.")
	assert.NotContains(t, out, "  ")
	assert.NotContains(t, out, "\t")
}

func TestCleaner_NoControlCharacters(t *testing.T) {
	cleaner := newTestCleaner(t)

	out := cleaner.Clean("first sentence. \x0bsecond\r\nsentence here. third one.")

	for _, r := range out {
		if r < 32 {
			assert.Equal(t, '\n', r, "only newline segmentation markers allowed, found %q", r)
		}
	}
}

func TestCleaner_SentencePerLine(t *testing.T) {
	cleaner := newTestCleaner(t)

	out := cleaner.Clean("The brain stores facts. Retrieval recalls them later. Forgetting erases them.")

	lines := strings.Split(out, "\n")
	assert.Len(t, lines, 3)
	for _, line := range lines {
		assert.NotEmpty(t, strings.TrimSpace(line))
	}
}

func TestCleaner_PromotesAnchorHeadings(t *testing.T) {
	cleaner := newTestCleaner(t)

	out := cleaner.Clean("Information Storage is a core process. Other content follows here.")

	assert.Contains(t, out, "INFORMATION STORAGE IS A CORE PROCESS.")
}

func TestCleaner_PromotesLabelHeadings(t *testing.T) {
	cleaner := newTestCleaner(t)

	out := cleaner.Clean("Other sentence first. Definition: storage is encoding over time.")

	assert.Contains(t, out, "\nDEFINITION\n")
	assert.Contains(t, out, "definition: storage is encoding over time.")
}

func TestCleaner_EmptyInput(t *testing.T) {
	cleaner := newTestCleaner(t)

	assert.Equal(t, "", cleaner.Clean(""))
	assert.Equal(t, "", cleaner.Clean("   \n\t "))
}
