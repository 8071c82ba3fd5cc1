package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"google.golang.org/genai"

	"github.com/ternarybob/vigil/internal/common"
	"github.com/ternarybob/vigil/internal/interfaces"
)

// GeminiService implements the LLMService interface using the Google Gemini
// API via google.golang.org/genai.
type GeminiService struct {
	config  *common.GeminiConfig
	logger  arbor.ILogger
	client  *genai.Client
	timeout time.Duration
	retry   *RetryConfig
}

// NewGeminiService creates a new Gemini LLM service instance.
//
// The API key is resolved with environment-first priority (VIGIL_GEMINI_API_KEY,
// GEMINI_API_KEY), then the KV store, then the config fallback.
func NewGeminiService(geminiConfig *common.GeminiConfig, kvStorage interfaces.KeyValueStorage, logger arbor.ILogger) (*GeminiService, error) {
	ctx := context.Background()
	apiKey, err := common.ResolveAPIKey(ctx, kvStorage, "gemini_api_key", geminiConfig.APIKey)
	if err != nil {
		return nil, fmt.Errorf("Gemini API key is required for LLM service (set via GEMINI_API_KEY, VIGIL_GEMINI_API_KEY, or gemini.api_key in config): %w", err)
	}

	if geminiConfig.Model == "" {
		geminiConfig.Model = "gemini-2.5-flash"
	}

	timeout, err := time.ParseDuration(geminiConfig.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid timeout duration '%s': %w", geminiConfig.Timeout, err)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize genai client: %w", err)
	}

	service := &GeminiService{
		config:  geminiConfig,
		logger:  logger,
		client:  client,
		timeout: timeout,
		retry:   NewDefaultRetryConfig(),
	}

	logger.Debug().
		Str("model", geminiConfig.Model).
		Dur("timeout", timeout).
		Int("max_tokens", geminiConfig.MaxTokens).
		Msg("Gemini LLM service initialized successfully")

	return service, nil
}

// Generate produces a completion for the request. Rate-limit errors are
// retried with backoff, honoring the API-suggested retry delay when present.
func (s *GeminiService) Generate(ctx context.Context, req interfaces.GenerateRequest) (string, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return "", fmt.Errorf("prompt cannot be empty for completion")
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(req.Temperature)),
	}
	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxTokens)
	} else if s.config.MaxTokens > 0 {
		config.MaxOutputTokens = int32(s.config.MaxTokens)
	}
	if req.System != "" {
		config.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.ResponseJSON {
		config.ResponseMIMEType = "application/json"
	}

	contents := []*genai.Content{
		genai.NewContentFromText(req.Prompt, genai.RoleUser),
	}

	startTime := time.Now()
	var resp *genai.GenerateContentResponse
	err := retryCall(timeoutCtx, s.retry, func(attempt int, backoff time.Duration, callErr error) {
		s.logger.Warn().
			Int("attempt", attempt).
			Dur("backoff", backoff).
			Err(callErr).
			Msg("Retrying Gemini API call")
	}, func() error {
		var callErr error
		resp, callErr = s.client.Models.GenerateContent(timeoutCtx, s.config.Model, contents, config)
		return callErr
	})
	if err != nil {
		s.logger.Error().
			Err(err).
			Int("prompt_length", len(req.Prompt)).
			Msg("Gemini completion failed")
		return "", fmt.Errorf("Gemini API call failed: %w", err)
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("empty response from Gemini API")
	}

	responseText := resp.Text()
	if responseText == "" {
		return "", fmt.Errorf("empty text in Gemini response")
	}

	s.logger.Debug().
		Int("prompt_length", len(req.Prompt)).
		Int("response_length", len(responseText)).
		Dur("duration", time.Since(startTime)).
		Msg("Gemini completion completed")

	return responseText, nil
}

// Provider returns the provider name.
func (s *GeminiService) Provider() string {
	return string(ProviderGemini)
}

// Model returns the configured model identifier.
func (s *GeminiService) Model() string {
	return s.config.Model
}
