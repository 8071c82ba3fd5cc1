package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ternarybob/vigil/internal/common"
)

func TestDetectProvider(t *testing.T) {
	tests := []struct {
		model string
		want  ProviderType
	}{
		{"claude-haiku-3-5-20241022", ProviderClaude},
		{"claude/claude-haiku-3-5-20241022", ProviderClaude},
		{"anthropic/claude-sonnet-4-20250514", ProviderClaude},
		{"gemini-2.5-flash", ProviderGemini},
		{"gemini/gemini-2.5-flash", ProviderGemini},
		{"google/gemini-2.0-flash", ProviderGemini},
		{"", ProviderGemini},
		{"some-unknown-model", ProviderGemini},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectProvider(tt.model, common.LLMProviderGemini))
		})
	}

	// Fallback provider wins when the model carries no hint.
	assert.Equal(t, ProviderClaude, DetectProvider("", common.LLMProviderClaude))
}

func TestNormalizeModel(t *testing.T) {
	assert.Equal(t, "claude-haiku-3-5-20241022", NormalizeModel("claude/claude-haiku-3-5-20241022"))
	assert.Equal(t, "gemini-2.5-flash", NormalizeModel("gemini/gemini-2.5-flash"))
	assert.Equal(t, "gemini-2.5-flash", NormalizeModel("gemini-2.5-flash"))
}
