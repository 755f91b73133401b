package interfaces

// PhraseToken is one token of a noun-phrase chunk with the annotations the
// concept extractor needs: a lemma for frequency grouping and a stop-word flag.
type PhraseToken struct {
	Text  string
	Lemma string
	Stop  bool
}

// Chunk is a contiguous noun-centered phrase identified by linguistic analysis.
type Chunk struct {
	Tokens []PhraseToken
}

// Text returns the chunk's surface form.
func (c Chunk) Text() string {
	var out string
	for i, t := range c.Tokens {
		if i > 0 {
			out += " "
		}
		out += t.Text
	}
	return out
}

// AllStop reports whether every token in the chunk is a stop word.
func (c Chunk) AllStop() bool {
	for _, t := range c.Tokens {
		if !t.Stop {
			return false
		}
	}
	return true
}

// PhraseAnalyzer extracts noun-phrase chunks from text. It is the fallback
// source for concept candidates when structural markers yield too few.
type PhraseAnalyzer interface {
	NounPhrases(text string) ([]Chunk, error)
}
