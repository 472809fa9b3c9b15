package llm

import (
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scribo/internal/common"
	"github.com/ternarybob/scribo/internal/interfaces"
)

// NewTextService creates the text generation service selected by
// llm.default_provider.
func NewTextService(cfg *common.Config, logger arbor.ILogger) (interfaces.TextService, error) {
	provider := cfg.LLM.DefaultProvider
	if provider == "" {
		provider = common.LLMProviderGemini
	}

	logger.Info().Str("provider", string(provider)).Msg("Initializing text generation service")

	switch provider {
	case common.LLMProviderGemini:
		return NewGeminiService(&cfg.Gemini, logger)
	case common.LLMProviderClaude:
		return NewClaudeService(&cfg.Claude, logger)
	default:
		return nil, fmt.Errorf("unsupported LLM provider '%s': must be 'gemini' or 'claude'", provider)
	}
}
