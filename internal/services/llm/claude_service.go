package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/vigil/internal/common"
	"github.com/ternarybob/vigil/internal/interfaces"
)

// ClaudeService implements the LLMService interface using the Anthropic
// Claude API.
type ClaudeService struct {
	config  *common.ClaudeConfig
	logger  arbor.ILogger
	client  anthropic.Client
	timeout time.Duration
	retry   *RetryConfig
}

// NewClaudeService creates a new Claude LLM service instance.
//
// The API key is resolved with environment-first priority (ANTHROPIC_API_KEY,
// VIGIL_CLAUDE_API_KEY), then the KV store, then the config fallback.
func NewClaudeService(claudeConfig *common.ClaudeConfig, kvStorage interfaces.KeyValueStorage, logger arbor.ILogger) (*ClaudeService, error) {
	ctx := context.Background()
	apiKey, err := common.ResolveAPIKey(ctx, kvStorage, "anthropic_api_key", claudeConfig.APIKey)
	if err != nil {
		return nil, fmt.Errorf("Anthropic API key is required for Claude service (set via ANTHROPIC_API_KEY, VIGIL_CLAUDE_API_KEY, or claude.api_key in config): %w", err)
	}

	if claudeConfig.Model == "" {
		claudeConfig.Model = "claude-haiku-3-5-20241022"
	}

	timeout, err := time.ParseDuration(claudeConfig.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid timeout duration '%s': %w", claudeConfig.Timeout, err)
	}

	client := anthropic.NewClient(
		option.WithAPIKey(apiKey),
	)

	service := &ClaudeService{
		config:  claudeConfig,
		logger:  logger,
		client:  client,
		timeout: timeout,
		retry:   NewDefaultRetryConfig(),
	}

	logger.Debug().
		Str("model", claudeConfig.Model).
		Dur("timeout", timeout).
		Int("max_tokens", claudeConfig.MaxTokens).
		Msg("Claude LLM service initialized successfully")

	return service, nil
}

// Generate produces a completion for the request. Rate-limit errors are
// retried with backoff; the returned error is terminal.
func (s *ClaudeService) Generate(ctx context.Context, req interfaces.GenerateRequest) (string, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return "", fmt.Errorf("prompt cannot be empty for completion")
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = s.config.MaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(s.config.Model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
		Temperature: anthropic.Float(req.Temperature),
	}

	system := req.System
	if req.ResponseJSON {
		// Claude has no structured-output switch; instruct and parse leniently.
		if system != "" {
			system += "\n\n"
		}
		system += "Respond with a single valid JSON object and no other text."
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: system},
		}
	}

	startTime := time.Now()
	var resp *anthropic.Message
	err := retryCall(timeoutCtx, s.retry, func(attempt int, backoff time.Duration, callErr error) {
		s.logger.Warn().
			Int("attempt", attempt).
			Dur("backoff", backoff).
			Err(callErr).
			Msg("Retrying Claude API call")
	}, func() error {
		var callErr error
		resp, callErr = s.client.Messages.New(timeoutCtx, params)
		return callErr
	})
	if err != nil {
		s.logger.Error().
			Err(err).
			Int("prompt_length", len(req.Prompt)).
			Msg("Claude completion failed")
		return "", fmt.Errorf("Claude API call failed: %w", err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	if text.Len() == 0 {
		return "", fmt.Errorf("no response generated from Claude API")
	}

	s.logger.Debug().
		Int("prompt_length", len(req.Prompt)).
		Int("response_length", text.Len()).
		Dur("duration", time.Since(startTime)).
		Msg("Claude completion completed")

	return text.String(), nil
}

// Provider returns the provider name.
func (s *ClaudeService) Provider() string {
	return string(ProviderClaude)
}

// Model returns the configured model identifier.
func (s *ClaudeService) Model() string {
	return s.config.Model
}
