package concepts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/lector/internal/common"
	"github.com/ternarybob/lector/internal/interfaces"
)

// fakeAnalyzer returns a fixed chunk list so fallback behavior is
// deterministic without part-of-speech tagging.
type fakeAnalyzer struct {
	chunks []interfaces.Chunk
	err    error
	called bool
}

func (f *fakeAnalyzer) NounPhrases(_ string) ([]interfaces.Chunk, error) {
	f.called = true
	return f.chunks, f.err
}

func chunkOf(words ...string) interfaces.Chunk {
	tokens := make([]interfaces.PhraseToken, len(words))
	for i, w := range words {
		tokens[i] = interfaces.PhraseToken{Text: w, Lemma: strings.ToLower(w)}
	}
	return interfaces.Chunk{Tokens: tokens}
}

func testConceptsConfig() *common.ConceptsConfig {
	return &common.ConceptsConfig{
		MaxConcepts:   15,
		BulletMaxLen:  60,
		MaxPhraseRuns: 2,
	}
}

func newTestExtractor(analyzer interfaces.PhraseAnalyzer) *Extractor {
	return NewExtractor(testConceptsConfig(), analyzer, arbor.NewLogger())
}

func TestExtractor_AdmissionFilter(t *testing.T) {
	e := newTestExtractor(&fakeAnalyzer{})

	tests := []struct {
		phrase string
		valid  bool
	}{
		{"Information Storage", true},
		{"12345", false},        // no alphabetic content
		{"AI", false},           // single word shorter than 6
		{"memory", true},        // single word of exactly 6
		{"intro", false},        // single word shorter than 6
		{"Introduction", false}, // stop concept
		{"Summary", false},      // stop concept
		{"abc", false},          // shorter than 4
		{strings.Repeat("long phrase ", 5), false}, // longer than 50
		{"- - -", false},       // digits/space/hyphen filler
		{"a(b)", false},        // bracket symbols
		{"path\\to\\x", false}, // backslash
	}

	for _, tt := range tests {
		t.Run(tt.phrase, func(t *testing.T) {
			assert.Equal(t, tt.valid, e.isValidConcept(tt.phrase))
		})
	}
}

func TestExtractor_DedupCaseAndWhitespace(t *testing.T) {
	e := newTestExtractor(&fakeAnalyzer{})

	text := "# Information Storage\n\nbody text here\n\n# INFORMATION   STORAGE\n\nmore body"
	concepts := e.Extract(text)

	count := 0
	for _, c := range concepts {
		if strings.EqualFold(c, "information storage") {
			count++
		}
	}
	assert.Equal(t, 1, count, "case/whitespace variants must collapse to one entry: %v", concepts)
}

func TestExtractor_TierOrder(t *testing.T) {
	e := newTestExtractor(&fakeAnalyzer{})

	text := strings.Join([]string{
		"Encoding Process: the first stage",
		"",
		"- Retrieval Cues",
		"",
		"Some prose with **Working Memory** marked.",
		"",
		"# Storage Systems",
		"",
		"More prose follows here.",
	}, "\n")

	concepts := e.Extract(text)
	require.NotEmpty(t, concepts)

	pos := func(s string) int {
		for i, c := range concepts {
			if c == s {
				return i
			}
		}
		return -1
	}

	heading := pos("Storage Systems")
	bold := pos("Working Memory")
	bullet := pos("Retrieval Cues")
	colon := pos("Encoding Process")

	require.GreaterOrEqual(t, heading, 0, "heading missing from %v", concepts)
	require.GreaterOrEqual(t, bold, 0, "bold span missing from %v", concepts)
	require.GreaterOrEqual(t, bullet, 0, "bullet missing from %v", concepts)
	require.GreaterOrEqual(t, colon, 0, "colon heading missing from %v", concepts)

	assert.Less(t, heading, bold)
	assert.Less(t, bold, bullet)
	assert.Less(t, bullet, colon)
}

func TestExtractor_LongBulletsExcluded(t *testing.T) {
	e := newTestExtractor(&fakeAnalyzer{})

	long := "- " + strings.Repeat("very long bullet sentence ", 4)
	concepts := e.Extract(long + "\n- Short Bullets\n")

	for _, c := range concepts {
		assert.LessOrEqual(t, len(c), 50)
	}
	assert.Contains(t, concepts, "Short Bullets")
}

func TestExtractor_FallbackOnlyWhenUnderLimit(t *testing.T) {
	t.Run("sparse text engages fallback", func(t *testing.T) {
		analyzer := &fakeAnalyzer{chunks: []interfaces.Chunk{
			chunkOf("memory", "consolidation"),
			chunkOf("memory", "consolidation"),
			chunkOf("retrieval", "practice"),
		}}
		e := newTestExtractor(analyzer)

		concepts := e.Extract("plain prose about memory consolidation and retrieval practice with no structure at all")

		assert.True(t, analyzer.called)
		assert.Contains(t, concepts, "Memory Consolidation")
		assert.Contains(t, concepts, "Retrieval Practice")
		// frequency order: the repeated chunk comes first
		assert.Less(t, indexOf(concepts, "Memory Consolidation"), indexOf(concepts, "Retrieval Practice"))
	})

	t.Run("saturated structural tiers skip fallback", func(t *testing.T) {
		var headings []string
		for _, name := range []string{
			"Alpha Concept", "Beta Concept", "Gamma Concept", "Delta Concept",
			"Epsilon Concept", "Zeta Concept", "Eta Concept", "Theta Concept",
			"Iota Concept", "Kappa Concept", "Lambda Concept", "Mu Concept",
			"Nu Concept", "Xi Concept", "Omicron Concept", "Pi Concept",
		} {
			headings = append(headings, "# "+name)
		}
		analyzer := &fakeAnalyzer{}
		e := newTestExtractor(analyzer)

		concepts := e.Extract(strings.Join(headings, "\n\n"))

		assert.Len(t, concepts, 15)
		assert.False(t, analyzer.called, "fallback must not run when structural tiers saturate")
	})
}

func TestExtractor_AllStopChunksExcluded(t *testing.T) {
	stop := interfaces.Chunk{Tokens: []interfaces.PhraseToken{
		{Text: "these", Lemma: "these", Stop: true},
		{Text: "those", Lemma: "those", Stop: true},
	}}
	analyzer := &fakeAnalyzer{chunks: []interfaces.Chunk{stop}}
	e := newTestExtractor(analyzer)

	concepts := e.Extract("unstructured prose without any markers at all")

	assert.NotContains(t, concepts, "These Those")
}

func TestExtractor_EmptyInput(t *testing.T) {
	e := newTestExtractor(&fakeAnalyzer{})

	assert.Empty(t, e.Extract(""))
	assert.Empty(t, e.Extract("   \n\t  "))
}

func indexOf(list []string, item string) int {
	for i, v := range list {
		if v == item {
			return i
		}
	}
	return len(list)
}
