package interfaces

import (
	"context"
)

// GenerateRequest carries a single completion request to an LLM provider.
type GenerateRequest struct {
	// Prompt is the user-role content of the request
	Prompt string

	// System is the system instruction, empty when the prompt stands alone
	System string

	// MaxTokens caps the response length; 0 uses the provider default
	MaxTokens int

	// Temperature controls sampling randomness (0 = deterministic)
	Temperature float64

	// ResponseJSON requests a bare JSON object response where the provider
	// supports structured output; responses are still parsed leniently
	ResponseJSON bool
}

// LLMService defines the interface for narrative and structured-data
// generation. Implementations wrap a single provider (Claude or Gemini);
// provider selection happens at construction.
type LLMService interface {
	// Generate produces a completion for the request. Rate-limit errors are
	// retried with backoff inside the implementation; the returned error is
	// terminal.
	Generate(ctx context.Context, req GenerateRequest) (string, error)

	// Provider returns the provider name ("claude" or "gemini")
	Provider() string

	// Model returns the configured model identifier
	Model() string
}
