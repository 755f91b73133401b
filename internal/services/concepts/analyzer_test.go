package concepts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

func TestProseAnalyzer_NounPhrases(t *testing.T) {
	analyzer := NewProseAnalyzer(arbor.NewLogger())

	chunks, err := analyzer.NounPhrases("Memory consolidation strengthens new memories during sleep.")

	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	var surfaces []string
	for _, c := range chunks {
		surfaces = append(surfaces, c.Text())
	}
	assert.Contains(t, joined(surfaces), "consolidation")
	assert.Contains(t, joined(surfaces), "sleep")
}

func TestProseAnalyzer_TokenAnnotations(t *testing.T) {
	analyzer := NewProseAnalyzer(arbor.NewLogger())

	chunks, err := analyzer.NounPhrases("The memories faded.")

	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	for _, chunk := range chunks {
		for _, tok := range chunk.Tokens {
			assert.NotEmpty(t, tok.Lemma)
			if tok.Text == "The" {
				assert.True(t, tok.Stop)
			}
		}
	}
}

func TestProseAnalyzer_EmptyText(t *testing.T) {
	analyzer := NewProseAnalyzer(arbor.NewLogger())

	chunks, err := analyzer.NounPhrases("")

	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func joined(list []string) string {
	out := ""
	for _, s := range list {
		out += " " + s
	}
	return out
}
