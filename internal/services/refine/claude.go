package refine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/lector/internal/common"
	"github.com/ternarybob/lector/internal/interfaces"
)

// ClaudeProvider implements the RefinementProvider contract using the
// Anthropic Messages API.
type ClaudeProvider struct {
	config  *common.ClaudeConfig
	client  anthropic.Client
	timeout time.Duration
	logger  arbor.ILogger
}

var _ interfaces.RefinementProvider = (*ClaudeProvider)(nil)

// NewClaudeProvider creates a Claude refinement provider instance.
func NewClaudeProvider(cfg *common.ClaudeConfig, logger arbor.ILogger) (*ClaudeProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("Anthropic API key is required for Claude refinement (set ANTHROPIC_API_KEY, LECTOR_CLAUDE_API_KEY, or claude.api_key in config)")
	}

	if cfg.Model == "" {
		cfg.Model = "claude-haiku-3-5-20241022"
	}

	timeout, err := time.ParseDuration(cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid timeout duration '%s': %w", cfg.Timeout, err)
	}

	provider := &ClaudeProvider{
		config:  cfg,
		client:  anthropic.NewClient(option.WithAPIKey(cfg.APIKey)),
		timeout: timeout,
		logger:  logger,
	}

	logger.Info().
		Str("model", cfg.Model).
		Dur("timeout", timeout).
		Msg("Claude refinement provider initialized")

	return provider, nil
}

func (p *ClaudeProvider) Name() string { return "claude" }

// Generate sends the prompt as a single user message and maps the response
// onto the provider-neutral candidate shape.
func (p *ClaudeProvider) Generate(ctx context.Context, prompt string, genCfg interfaces.GenerationConfig) (*interfaces.Candidate, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.config.Model),
		MaxTokens: int64(genCfg.MaxOutputTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if genCfg.Temperature > 0 {
		params.Temperature = anthropic.Float(float64(genCfg.Temperature))
	}

	resp, err := p.client.Messages.New(timeoutCtx, params)
	if err != nil {
		return nil, fmt.Errorf("Claude API call failed: %w", err)
	}

	if resp == nil {
		return nil, nil
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	return &interfaces.Candidate{
		Text:         text.String(),
		FinishReason: mapClaudeStopReason(resp.StopReason),
	}, nil
}

func mapClaudeStopReason(reason anthropic.StopReason) interfaces.FinishReason {
	switch reason {
	case anthropic.StopReasonEndTurn, anthropic.StopReasonStopSequence:
		return interfaces.FinishStop
	case anthropic.StopReasonMaxTokens:
		return interfaces.FinishMaxTokens
	default:
		return interfaces.FinishOther
	}
}
