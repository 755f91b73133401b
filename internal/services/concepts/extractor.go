package concepts

import (
	"regexp"
	"sort"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/ternarybob/lector/internal/common"
	"github.com/ternarybob/lector/internal/interfaces"
	"github.com/ternarybob/lector/internal/models"
)

// Phrases too generic to stand alone as flashcard titles. Extended at
// runtime by concepts.stop_concepts configuration.
var builtinStopConcepts = map[string]struct{}{
	"introduction": {},
	"example":      {},
	"flow":         {},
	"system goal":  {},
	"notes":        {},
	"unit test":    {},
	"case":         {},
	"definition":   {},
	"summary":      {},
	"overview":     {},
	"earlier":      {},
	"now":          {},
}

var (
	tablePipeRe   = regexp.MustCompile(`\|`)
	separatorRe   = regexp.MustCompile(`:?-{2,}:?`)
	spaceRunRe    = regexp.MustCompile(`[ \t]+`)
	plainBulletRe = regexp.MustCompile(`(?m)^\s*[-•→]+\s*(.+)$`)
	colonHeadRe   = regexp.MustCompile(`([A-Za-z][A-Za-z0-9 \-]{3,50})\s*:`)

	markdownMarkRe = regexp.MustCompile("[*_`]+")
	numberingRe    = regexp.MustCompile(`^\d+[.)]\s*`)
	trailColonRe   = regexp.MustCompile(`:$`)
	symbolRe       = regexp.MustCompile(`[^a-zA-Z0-9\s\-]`)

	alphaRe        = regexp.MustCompile(`[a-zA-Z]`)
	garbageRe      = regexp.MustCompile(`[\\_/{}()\[\]]`)
	digitsFillerRe = regexp.MustCompile(`^[0-9\s\-]+$`)
)

// Extractor mines a refined text for study concept phrases. Structural
// markers (headings, bold spans, short bullets, colon headings) are tried
// first; a statistical noun-phrase fallback only engages when they yield
// fewer than the configured maximum.
type Extractor struct {
	config   *common.ConceptsConfig
	analyzer interfaces.PhraseAnalyzer
	stops    map[string]struct{}
	logger   arbor.ILogger
}

// NewExtractor creates a concept extractor with the configured limits and
// stop-concept list.
func NewExtractor(cfg *common.ConceptsConfig, analyzer interfaces.PhraseAnalyzer, logger arbor.ILogger) *Extractor {
	stops := make(map[string]struct{}, len(builtinStopConcepts)+len(cfg.StopConcepts))
	for phrase := range builtinStopConcepts {
		stops[phrase] = struct{}{}
	}
	for _, phrase := range cfg.StopConcepts {
		stops[strings.ToLower(strings.TrimSpace(phrase))] = struct{}{}
	}

	return &Extractor{
		config:   cfg,
		analyzer: analyzer,
		stops:    stops,
		logger:   logger,
	}
}

// Extract returns at most MaxConcepts unique phrases, ordered by source tier
// and then by first appearance. Rejected phrases are never re-admitted by a
// later tier.
func (e *Extractor) Extract(refinedText string) []string {
	cleaned := e.preclean(refinedText)
	if strings.TrimSpace(cleaned) == "" {
		return nil
	}

	source := []byte(cleaned)
	doc := goldmark.New().Parser().Parse(text.NewReader(source))

	headings, emphases, bullets := e.collectStructural(doc, source)

	var candidates []models.ConceptCandidate
	for _, h := range headings {
		candidates = append(candidates, models.ConceptCandidate{DisplayPhrase: h, SourceTier: models.TierHeading})
	}
	for _, b := range emphases {
		candidates = append(candidates, models.ConceptCandidate{DisplayPhrase: b, SourceTier: models.TierEmphasis})
	}
	for _, b := range bullets {
		candidates = append(candidates, models.ConceptCandidate{DisplayPhrase: b, SourceTier: models.TierBullet})
	}
	for _, match := range colonHeadRe.FindAllStringSubmatch(cleaned, -1) {
		candidates = append(candidates, models.ConceptCandidate{DisplayPhrase: match[1], SourceTier: models.TierColonHeading})
	}

	concepts := make([]string, 0, e.config.MaxConcepts)
	seen := make(map[string]struct{})
	for _, c := range candidates {
		e.admit(&concepts, seen, c.DisplayPhrase)
	}

	if len(concepts) >= e.config.MaxConcepts {
		return concepts[:e.config.MaxConcepts]
	}

	e.statisticalFallback(cleaned, &concepts, seen)

	if len(concepts) > e.config.MaxConcepts {
		concepts = concepts[:e.config.MaxConcepts]
	}

	e.logger.Debug().
		Int("concepts", len(concepts)).
		Msg("Concept extraction complete")

	return concepts
}

// preclean drops table pipes and markdown rules, and collapses horizontal
// whitespace while keeping line structure for the line-oriented tiers.
func (e *Extractor) preclean(text string) string {
	text = tablePipeRe.ReplaceAllString(text, " ")
	text = separatorRe.ReplaceAllString(text, " ")
	text = spaceRunRe.ReplaceAllString(text, " ")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " ")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// collectStructural walks the markdown tree once and gathers the three
// tree-shaped tiers in document order. Plain-text bullets that markdown does
// not recognize ("•", "→") are caught by a regex sweep afterwards.
func (e *Extractor) collectStructural(doc ast.Node, source []byte) (headings, emphases, bullets []string) {
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Heading:
			if node.Level <= 4 {
				headings = append(headings, string(node.Text(source)))
			}
		case *ast.Emphasis:
			if node.Level == 2 {
				emphases = append(emphases, string(node.Text(source)))
			}
		case *ast.ListItem:
			item := string(node.Text(source))
			if len(item) <= e.config.BulletMaxLen {
				bullets = append(bullets, item)
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	for _, match := range plainBulletRe.FindAllStringSubmatch(string(source), -1) {
		line := match[1]
		if len(line) <= e.config.BulletMaxLen {
			bullets = append(bullets, line)
		}
	}

	return headings, emphases, bullets
}

// admit normalizes a raw phrase, applies the admission filter and appends it
// when its case-folded key has not been seen before.
func (e *Extractor) admit(concepts *[]string, seen map[string]struct{}, phrase string) {
	phrase = strings.TrimSpace(phrase)
	phrase = strings.TrimSpace(markdownMarkRe.ReplaceAllString(phrase, ""))
	phrase = numberingRe.ReplaceAllString(phrase, "")
	phrase = strings.TrimSpace(trailColonRe.ReplaceAllString(phrase, ""))
	phrase = strings.TrimSpace(symbolRe.ReplaceAllString(phrase, ""))

	if !e.isValidConcept(phrase) {
		return
	}

	key := strings.ToLower(phrase)
	if _, dup := seen[key]; dup {
		return
	}
	seen[key] = struct{}{}
	*concepts = append(*concepts, phrase)
}

func (e *Extractor) isValidConcept(phrase string) bool {
	phrase = strings.TrimSpace(phrase)

	if !alphaRe.MatchString(phrase) {
		return false
	}
	if len(phrase) < 4 || len(phrase) > 50 {
		return false
	}
	if garbageRe.MatchString(phrase) {
		return false
	}
	if digitsFillerRe.MatchString(phrase) {
		return false
	}
	if _, stopped := e.stops[strings.ToLower(phrase)]; stopped {
		return false
	}

	words := strings.Fields(phrase)
	if len(words) == 1 && len(words[0]) < 6 {
		return false
	}
	return true
}

// statisticalFallback counts lemma-keyed noun phrases and admits the most
// frequent ones, title-cased, through the same filter as every other tier.
func (e *Extractor) statisticalFallback(text string, concepts *[]string, seen map[string]struct{}) {
	chunks, err := e.analyzer.NounPhrases(text)
	if err != nil {
		e.logger.Warn().Err(err).Msg("Noun-phrase fallback skipped")
		return
	}

	counts := make(map[string]int)
	var order []string

	for _, chunk := range chunks {
		if chunk.AllStop() {
			continue
		}

		surface := strings.TrimSpace(symbolRe.ReplaceAllString(chunk.Text(), ""))
		if !e.isValidConcept(surface) {
			continue
		}

		var lemmas []string
		for _, tok := range chunk.Tokens {
			if !tok.Stop {
				lemmas = append(lemmas, strings.ToLower(tok.Lemma))
			}
		}
		key := strings.TrimSpace(strings.Join(lemmas, " "))
		if len(key) < 4 {
			continue
		}
		if _, stopped := e.stops[key]; stopped {
			continue
		}

		if _, known := counts[key]; !known {
			order = append(order, key)
		}
		counts[key]++
	}

	// Most frequent first; ties keep first-seen order.
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	limit := e.config.MaxPhraseRuns * e.config.MaxConcepts
	if limit > len(order) {
		limit = len(order)
	}

	for _, key := range order[:limit] {
		e.admit(concepts, seen, titleCase(key))
		if len(*concepts) >= e.config.MaxConcepts {
			return
		}
	}
}

func titleCase(phrase string) string {
	words := strings.Fields(phrase)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}
