package refine

import (
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/lector/internal/common"
	"github.com/ternarybob/lector/internal/interfaces"
)

// NewProvider creates the configured refinement provider. A nil provider
// (with nil error) means refinement is disabled and the gate falls back to
// cleaned text for every document.
func NewProvider(cfg *common.Config, logger arbor.ILogger) (interfaces.RefinementProvider, error) {
	if !cfg.Refine.Enabled {
		logger.Info().Msg("Remote refinement disabled by configuration")
		return nil, nil
	}

	logger.Info().Str("provider", cfg.Refine.Provider).Msg("Initializing refinement provider")

	switch cfg.Refine.Provider {
	case "gemini":
		if cfg.Gemini.APIKey == "" {
			logger.Warn().Msg("Gemini selected but no API key configured, refinement disabled")
			return nil, nil
		}
		return NewGeminiProvider(&cfg.Gemini, logger)

	case "claude":
		if cfg.Claude.APIKey == "" {
			logger.Warn().Msg("Claude selected but no API key configured, refinement disabled")
			return nil, nil
		}
		return NewClaudeProvider(&cfg.Claude, logger)

	default:
		return nil, fmt.Errorf("unsupported refinement provider '%s': must be 'gemini' or 'claude'", cfg.Refine.Provider)
	}
}
