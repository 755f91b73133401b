package refine

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
	"github.com/sajari/fuzzy"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/lector/internal/common"
)

var (
	// control characters count as whitespace here so none survive the pass
	whitespaceRe = regexp.MustCompile(`[\s\x00-\x1f]+`)
	alphaOnlyRe  = regexp.MustCompile(`^[a-z]+$`)
)

// Cleaner is the deterministic text refiner: four total passes that never
// fail and never touch the network, so the pipeline always has a safe
// fallback before the risk-bearing external stage runs.
type Cleaner struct {
	speller   *fuzzy.Model
	tokenizer *sentences.DefaultSentenceTokenizer
	anchors   []string
	labels    []string
	logger    arbor.ILogger
}

// NewCleaner builds a cleaner from configuration. A missing dictionary
// disables spell correction; every other pass always runs.
func NewCleaner(cfg common.CleanerConfig, logger arbor.ILogger) (*Cleaner, error) {
	tokenizer, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load sentence tokenizer: %w", err)
	}

	var speller *fuzzy.Model
	if cfg.DictionaryPath != "" {
		speller, err = trainSpeller(cfg.DictionaryPath)
		if err != nil {
			return nil, fmt.Errorf("failed to train spell corrector: %w", err)
		}
	}

	anchors := make([]string, 0, len(cfg.HeadingAnchors))
	for _, a := range cfg.HeadingAnchors {
		anchors = append(anchors, strings.ToLower(strings.TrimSpace(a)))
	}
	labels := make([]string, 0, len(cfg.HeadingLabels))
	for _, l := range cfg.HeadingLabels {
		labels = append(labels, strings.ToLower(strings.TrimSpace(l)))
	}

	return &Cleaner{
		speller:   speller,
		tokenizer: tokenizer,
		anchors:   anchors,
		labels:    labels,
		logger:    logger,
	}, nil
}

// trainSpeller loads a word list (one word per line) into a fuzzy model.
func trainSpeller(path string) (*fuzzy.Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	model := fuzzy.NewModel()
	model.SetThreshold(1)
	model.SetDepth(2)

	scanner := bufio.NewScanner(f)
	var words []string
	for scanner.Scan() {
		word := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if word != "" {
			words = append(words, word)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	model.Train(words)
	return model, nil
}

// Clean runs the four refinement passes in order. Same input always yields
// the same output.
func (c *Cleaner) Clean(rawText string) string {
	text := c.normalize(rawText)
	text = c.correctSpelling(text)
	text = c.rebuildSentences(text)
	text = c.detectHeadings(text)

	c.logger.Debug().
		Int("raw_chars", len(rawText)).
		Int("clean_chars", len(text)).
		Msg("Deterministic refinement complete")

	return text
}

// normalize case-folds and collapses all run-on whitespace and newlines into
// single spaces, leaving no control characters behind.
func (c *Cleaner) normalize(text string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(strings.ToLower(text), " "))
}

// correctSpelling replaces alphabetic tokens with a confident dictionary
// correction. Unknown words are never deleted, only possibly substituted;
// tokens with non-alphabetic characters pass through unchanged.
func (c *Cleaner) correctSpelling(text string) string {
	if c.speller == nil || text == "" {
		return text
	}

	words := strings.Split(text, " ")
	for i, word := range words {
		if !alphaOnlyRe.MatchString(word) {
			continue
		}
		if suggestion := c.speller.SpellCheck(word); suggestion != "" {
			words[i] = suggestion
		}
	}
	return strings.Join(words, " ")
}

// rebuildSentences splits the normalized stream into sentence units, one per
// line. The Punkt tokenizer tolerates abbreviations and decimal numbers
// without over-splitting.
func (c *Cleaner) rebuildSentences(text string) string {
	if text == "" {
		return text
	}
	sentenceList := c.tokenizer.Tokenize(text)
	lines := make([]string, 0, len(sentenceList))
	for _, s := range sentenceList {
		line := strings.TrimSpace(s.Text)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

// detectHeadings promotes lines matching structural markers to uppercase,
// blank-line-delimited heading blocks. Everything else passes through in its
// original order.
func (c *Cleaner) detectHeadings(text string) string {
	lines := strings.Split(text, "\n")
	formatted := make([]string, 0, len(lines))

	for _, line := range lines {
		if anchor := c.matchAnchor(line); anchor != "" {
			formatted = append(formatted, "", strings.ToUpper(line), "")
			continue
		}
		if label := c.matchLabel(line); label != "" {
			formatted = append(formatted, "", strings.ToUpper(label), line)
			continue
		}
		formatted = append(formatted, line)
	}

	return strings.Join(formatted, "\n")
}

func (c *Cleaner) matchAnchor(line string) string {
	for _, anchor := range c.anchors {
		if strings.Contains(line, anchor) {
			return anchor
		}
	}
	return ""
}

func (c *Cleaner) matchLabel(line string) string {
	for _, label := range c.labels {
		if strings.HasPrefix(line, label) {
			return label
		}
	}
	return ""
}
