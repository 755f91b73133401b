package concepts

import (
	"fmt"
	"strings"

	"github.com/jdkato/prose/v2"
	"github.com/kljensen/snowball"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/lector/internal/interfaces"
)

// english function words excluded from lemma keys and used to drop chunks
// that carry no content.
var stopWords = map[string]struct{}{
	"a": {}, "about": {}, "above": {}, "after": {}, "again": {}, "against": {},
	"all": {}, "am": {}, "an": {}, "and": {}, "any": {}, "are": {}, "as": {},
	"at": {}, "be": {}, "because": {}, "been": {}, "before": {}, "being": {},
	"below": {}, "between": {}, "both": {}, "but": {}, "by": {}, "can": {},
	"did": {}, "do": {}, "does": {}, "doing": {}, "down": {}, "during": {},
	"each": {}, "few": {}, "for": {}, "from": {}, "further": {}, "had": {},
	"has": {}, "have": {}, "having": {}, "he": {}, "her": {}, "here": {},
	"hers": {}, "him": {}, "his": {}, "how": {}, "i": {}, "if": {}, "in": {},
	"into": {}, "is": {}, "it": {}, "its": {}, "just": {}, "me": {}, "more": {},
	"most": {}, "my": {}, "no": {}, "nor": {}, "not": {}, "now": {}, "of": {},
	"off": {}, "on": {}, "once": {}, "only": {}, "or": {}, "other": {},
	"our": {}, "ours": {}, "out": {}, "over": {}, "own": {}, "same": {},
	"she": {}, "should": {}, "so": {}, "some": {}, "such": {}, "than": {},
	"that": {}, "the": {}, "their": {}, "theirs": {}, "them": {}, "then": {},
	"there": {}, "these": {}, "they": {}, "this": {}, "those": {}, "through": {},
	"to": {}, "too": {}, "under": {}, "until": {}, "up": {}, "very": {},
	"was": {}, "we": {}, "were": {}, "what": {}, "when": {}, "where": {},
	"which": {}, "while": {}, "who": {}, "whom": {}, "why": {}, "will": {},
	"with": {}, "you": {}, "your": {}, "yours": {},
}

// ProseAnalyzer extracts noun-phrase chunks using part-of-speech tagging.
// Chunks are maximal runs of adjectives followed by nouns that contain at
// least one noun token.
type ProseAnalyzer struct {
	logger arbor.ILogger
}

var _ interfaces.PhraseAnalyzer = (*ProseAnalyzer)(nil)

// NewProseAnalyzer creates a noun-phrase analyzer.
func NewProseAnalyzer(logger arbor.ILogger) *ProseAnalyzer {
	return &ProseAnalyzer{logger: logger}
}

// NounPhrases tags the text and groups consecutive adjective/noun tokens into
// chunks with per-token lemma and stop-word annotations.
func (a *ProseAnalyzer) NounPhrases(text string) ([]interfaces.Chunk, error) {
	doc, err := prose.NewDocument(text, prose.WithExtraction(false))
	if err != nil {
		return nil, fmt.Errorf("linguistic analysis failed: %w", err)
	}

	var chunks []interfaces.Chunk
	var run []interfaces.PhraseToken
	nounUpTo := 0 // run length through the last noun token

	flush := func() {
		if nounUpTo > 0 {
			chunks = append(chunks, interfaces.Chunk{Tokens: run[:nounUpTo]})
		}
		run = nil
		nounUpTo = 0
	}

	for _, tok := range doc.Tokens() {
		switch {
		case strings.HasPrefix(tok.Tag, "NN"):
			run = append(run, annotate(tok.Text))
			nounUpTo = len(run)
		case strings.HasPrefix(tok.Tag, "JJ"), tok.Tag == "DT":
			// determiners and adjectives may open a phrase but never end one
			run = append(run, annotate(tok.Text))
		default:
			flush()
		}
	}
	flush()

	return chunks, nil
}

func annotate(word string) interfaces.PhraseToken {
	lower := strings.ToLower(word)
	_, stop := stopWords[lower]

	lemma, err := snowball.Stem(lower, "english", false)
	if err != nil {
		lemma = lower
	}

	return interfaces.PhraseToken{Text: word, Lemma: lemma, Stop: stop}
}
