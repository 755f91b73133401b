package refine

import (
	"context"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/lector/internal/common"
	"github.com/ternarybob/lector/internal/interfaces"
	"github.com/ternarybob/lector/internal/models"
)

// keywordRe selects the lowercase alphabetic tokens of length >= 4 the
// coverage check compares.
var keywordRe = regexp.MustCompile(`\b[a-zA-Z]{4,}\b`)

// Gate wraps a remote refinement provider with prompt construction, bounded
// retry with exponential backoff, and output-safety validation. On any
// disqualification it returns the unmodified cleaned text: the worst case is
// always llmText == cleanedText, never a failed request.
type Gate struct {
	provider interfaces.RefinementProvider // nil means administratively disabled
	genCfg   interfaces.GenerationConfig
	cfg      common.RefineConfig
	limiter  *rate.Limiter
	sleep    func(ctx context.Context, d time.Duration) error
	logger   arbor.ILogger
}

// NewGate creates a refinement gate. A nil provider yields a gate that
// always falls back, which is the configured-off state, not an error.
func NewGate(provider interfaces.RefinementProvider, genCfg interfaces.GenerationConfig, cfg common.RefineConfig, logger arbor.ILogger) *Gate {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Every(cfg.RateLimit), 1)
	}
	return &Gate{
		provider: provider,
		genCfg:   genCfg,
		cfg:      cfg,
		limiter:  limiter,
		sleep:    sleepContext,
		logger:   logger,
	}
}

// Refine attempts an external rewrite of cleanedText. The returned result
// always carries usable text: the accepted candidate, or cleanedText verbatim
// with the rejection reason recorded.
func (g *Gate) Refine(ctx context.Context, cleanedText string) models.RefinementResult {
	if !g.cfg.Enabled || g.provider == nil {
		return g.fallback(cleanedText, models.RejectionDisabled)
	}
	if strings.TrimSpace(cleanedText) == "" {
		return g.fallback(cleanedText, models.RejectionEmptyInput)
	}

	input := truncateInput(cleanedText, g.cfg.MaxInputChars)
	prompt := buildPrompt(input)

	for attempt := 0; attempt < g.cfg.MaxAttempts; attempt++ {
		if err := g.limiter.Wait(ctx); err != nil {
			return g.fallback(cleanedText, models.RejectionRetriesExhausted)
		}

		candidate, err := g.provider.Generate(ctx, prompt, g.genCfg)
		if err != nil {
			if classifyProviderError(err) == errTransient && attempt < g.cfg.MaxAttempts-1 {
				delay := g.backoff(attempt)
				g.logger.Warn().
					Err(err).
					Int("attempt", attempt+1).
					Dur("backoff", delay).
					Msg("Transient refinement failure, retrying")
				if sleepErr := g.sleep(ctx, delay); sleepErr != nil {
					return g.fallback(cleanedText, models.RejectionRetriesExhausted)
				}
				continue
			}
			if classifyProviderError(err) == errTransient {
				g.logger.Warn().Err(err).Msg("Refinement attempts exhausted")
				return g.fallback(cleanedText, models.RejectionRetriesExhausted)
			}
			g.logger.Error().Err(err).Msg("Permanent refinement failure")
			return g.fallback(cleanedText, models.RejectionPermanentFailure)
		}

		// Candidate disqualifications are final for this request: they are
		// quality failures, not service failures, so retrying cannot help.
		if candidate == nil {
			return g.fallback(cleanedText, models.RejectionNoCandidates)
		}
		if candidate.FinishReason == interfaces.FinishOther {
			return g.fallback(cleanedText, models.RejectionTruncatedStop)
		}
		text := strings.TrimSpace(candidate.Text)
		if text == "" {
			return g.fallback(cleanedText, models.RejectionNoText)
		}

		if !lengthRatioOK(input, text, g.cfg.MaxLengthRatio) {
			g.logger.Warn().
				Int("input_chars", len(input)).
				Int("output_chars", len(text)).
				Msg("Refinement rejected: excessive expansion")
			return g.fallback(cleanedText, models.RejectionExpansion)
		}
		if !keywordCoverageOK(input, text, g.cfg.MinKeywordCoverage) {
			g.logger.Warn().Msg("Refinement rejected: keyword coverage too low")
			return g.fallback(cleanedText, models.RejectionLowCoverage)
		}

		g.logger.Info().
			Str("provider", g.provider.Name()).
			Int("attempts", attempt+1).
			Int("refined_chars", len(text)).
			Msg("External refinement accepted")

		return models.RefinementResult{Text: text, Accepted: true}
	}

	return g.fallback(cleanedText, models.RejectionRetriesExhausted)
}

func (g *Gate) fallback(cleanedText string, reason models.RejectionReason) models.RefinementResult {
	return models.RefinementResult{
		Text:            cleanedText,
		Accepted:        false,
		RejectionReason: reason,
	}
}

// backoff returns 2^attempt seconds plus a constant, so successive delays are
// monotonically non-decreasing.
func (g *Gate) backoff(attempt int) time.Duration {
	return time.Duration(math.Pow(2, float64(attempt)))*time.Second + g.cfg.BackoffConstant
}

// sleepContext is a bounded, cancellable delay, never a busy-wait.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// lengthRatioOK guards against runaway elaboration: output length must not
// exceed input length times the configured multiplier.
func lengthRatioOK(input, output string, maxRatio float64) bool {
	return float64(len(output)) <= float64(len(input))*maxRatio
}

// keywordCoverageOK guards against hallucinated or unrelated output: the
// candidate must retain at least the configured proportion of the input's
// 4+ letter tokens. Inputs with no qualifying tokens trivially pass.
func keywordCoverageOK(input, output string, threshold float64) bool {
	inputWords := keywordSet(input)
	if len(inputWords) == 0 {
		return true
	}
	outputWords := keywordSet(output)

	matched := 0
	for w := range inputWords {
		if _, ok := outputWords[w]; ok {
			matched++
		}
	}
	return float64(matched)/float64(len(inputWords)) >= threshold
}

func keywordSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range keywordRe.FindAllString(strings.ToLower(text), -1) {
		set[w] = struct{}{}
	}
	return set
}
