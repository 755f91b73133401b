package refine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"google.golang.org/genai"

	"github.com/ternarybob/lector/internal/common"
	"github.com/ternarybob/lector/internal/interfaces"
)

// GeminiProvider implements the RefinementProvider contract with the Google
// genai client.
type GeminiProvider struct {
	config  *common.GeminiConfig
	client  *genai.Client
	timeout time.Duration
	logger  arbor.ILogger
}

var _ interfaces.RefinementProvider = (*GeminiProvider)(nil)

// NewGeminiProvider creates a Gemini refinement provider instance.
func NewGeminiProvider(cfg *common.GeminiConfig, logger arbor.ILogger) (*GeminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("Google API key is required for Gemini refinement (set GEMINI_API_KEY, LECTOR_GEMINI_API_KEY, or gemini.api_key in config)")
	}

	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash"
	}

	timeout, err := time.ParseDuration(cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid timeout duration '%s': %w", cfg.Timeout, err)
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize genai client: %w", err)
	}

	provider := &GeminiProvider{
		config:  cfg,
		client:  client,
		timeout: timeout,
		logger:  logger,
	}

	logger.Info().
		Str("model", cfg.Model).
		Dur("timeout", timeout).
		Msg("Gemini refinement provider initialized")

	return provider, nil
}

func (p *GeminiProvider) Name() string { return "gemini" }

// Generate sends the prompt and maps the first usable candidate onto the
// provider-neutral shape the gate validates.
func (p *GeminiProvider) Generate(ctx context.Context, prompt string, genCfg interfaces.GenerationConfig) (*interfaces.Candidate, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(genCfg.Temperature),
		MaxOutputTokens: genCfg.MaxOutputTokens,
	}
	if p.config.BlockThreshold != "" {
		threshold := genai.HarmBlockThreshold(p.config.BlockThreshold)
		config.SafetySettings = []*genai.SafetySetting{
			{Category: genai.HarmCategoryHarassment, Threshold: threshold},
			{Category: genai.HarmCategoryHateSpeech, Threshold: threshold},
			{Category: genai.HarmCategoryDangerousContent, Threshold: threshold},
		}
	}

	resp, err := p.client.Models.GenerateContent(timeoutCtx, p.config.Model, genai.Text(prompt), config)
	if err != nil {
		return nil, fmt.Errorf("gemini generation failed: %w", err)
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return nil, nil
	}

	candidate := resp.Candidates[0]

	var text strings.Builder
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if part.Text != "" {
				text.WriteString(part.Text)
			}
		}
	}

	return &interfaces.Candidate{
		Text:         text.String(),
		FinishReason: mapGeminiFinishReason(candidate.FinishReason),
	}, nil
}

func mapGeminiFinishReason(reason genai.FinishReason) interfaces.FinishReason {
	switch reason {
	case genai.FinishReasonStop, genai.FinishReasonUnspecified:
		return interfaces.FinishStop
	case genai.FinishReasonMaxTokens:
		return interfaces.FinishMaxTokens
	default:
		return interfaces.FinishOther
	}
}
