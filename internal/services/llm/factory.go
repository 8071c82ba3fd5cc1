package llm

import (
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/vigil/internal/common"
	"github.com/ternarybob/vigil/internal/interfaces"
)

// ProviderType represents the AI provider type
type ProviderType string

const (
	// ProviderGemini uses Google Gemini API
	ProviderGemini ProviderType = "gemini"
	// ProviderClaude uses Anthropic Claude API
	ProviderClaude ProviderType = "claude"
)

// DetectProvider determines the provider type from a model string.
// Model strings can be:
//   - "claude-haiku-3-5-20241022" -> Claude
//   - "claude/claude-haiku-3-5-20241022" -> Claude (with prefix)
//   - "gemini-2.5-flash" -> Gemini
//   - "gemini/gemini-2.5-flash" -> Gemini (with prefix)
//   - Empty string -> the fallback provider
func DetectProvider(model string, fallback common.LLMProvider) ProviderType {
	if model == "" {
		return ProviderType(fallback)
	}

	model = strings.ToLower(model)

	// Check for explicit provider prefix
	if strings.HasPrefix(model, "claude/") || strings.HasPrefix(model, "anthropic/") {
		return ProviderClaude
	}
	if strings.HasPrefix(model, "gemini/") || strings.HasPrefix(model, "google/") {
		return ProviderGemini
	}

	// Check for model name patterns
	if strings.HasPrefix(model, "claude-") {
		return ProviderClaude
	}
	if strings.HasPrefix(model, "gemini-") {
		return ProviderGemini
	}

	// Default to configured provider
	return ProviderType(fallback)
}

// NormalizeModel removes the provider prefix from a model name if present
func NormalizeModel(model string) string {
	prefixes := []string{"claude/", "anthropic/", "gemini/", "google/"}
	for _, prefix := range prefixes {
		if strings.HasPrefix(strings.ToLower(model), prefix) {
			return model[len(prefix):]
		}
	}
	return model
}

// NewLLMService creates the LLM service for the configured default provider.
func NewLLMService(cfg *common.Config, kvStorage interfaces.KeyValueStorage, logger arbor.ILogger) (interfaces.LLMService, error) {
	provider := DetectProvider("", cfg.LLM.DefaultProvider)

	logger.Info().Str("provider", string(provider)).Msg("Initializing LLM service")

	switch provider {
	case ProviderClaude:
		return NewClaudeService(&cfg.Claude, kvStorage, logger)
	case ProviderGemini:
		return NewGeminiService(&cfg.Gemini, kvStorage, logger)
	default:
		return nil, fmt.Errorf("unsupported LLM provider '%s': must be 'gemini' or 'claude'", cfg.LLM.DefaultProvider)
	}
}
