package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scribo/internal/common"
	"golang.org/x/time/rate"
)

// ClaudeService implements the TextService interface using the Anthropic
// Claude API.
type ClaudeService struct {
	config    *common.ClaudeConfig
	logger    arbor.ILogger
	client    *anthropic.Client
	timeout   time.Duration
	maxTokens int
	limiter   *rate.Limiter
}

// NewClaudeService creates a new Claude text service instance.
//
// Initialization resolves the API key from configuration, applies model,
// token and timeout defaults, and builds the Anthropic client.
func NewClaudeService(config *common.ClaudeConfig, logger arbor.ILogger) (*ClaudeService, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Anthropic API key is required for Claude service (set via ANTHROPIC_API_KEY, SCRIBO_CLAUDE_API_KEY, or claude.api_key in config)")
	}

	if config.Model == "" {
		config.Model = "claude-haiku-3-5-20241022"
	}

	timeout, err := time.ParseDuration(config.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid timeout duration '%s': %w", config.Timeout, err)
	}

	interval, err := time.ParseDuration(config.RateLimit)
	if err != nil {
		return nil, fmt.Errorf("invalid rate limit duration '%s': %w", config.RateLimit, err)
	}

	maxTokens := config.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 8192
	}

	client := anthropic.NewClient(
		option.WithAPIKey(config.APIKey),
	)

	service := &ClaudeService{
		config:    config,
		logger:    logger,
		client:    &client,
		timeout:   timeout,
		maxTokens: maxTokens,
		limiter:   rate.NewLimiter(rate.Every(interval), 1),
	}

	logger.Info().
		Str("model", config.Model).
		Dur("timeout", timeout).
		Int("max_tokens", maxTokens).
		Msg("Claude text service initialized")

	return service, nil
}

// Complete sends a system prompt and user prompt to Claude and returns the
// raw response text.
func (s *ClaudeService) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if strings.TrimSpace(userPrompt) == "" {
		return "", fmt.Errorf("user prompt cannot be empty")
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter wait failed: %w", err)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	startTime := time.Now()
	s.logger.Debug().
		Int("prompt_length", len(userPrompt)).
		Msg("Starting Claude completion")

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(s.config.Model),
		MaxTokens: int64(s.maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	}

	if s.config.Temperature > 0 {
		params.Temperature = anthropic.Float(float64(s.config.Temperature))
	}

	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: systemPrompt},
		}
	}

	resp, err := s.client.Messages.New(timeoutCtx, params)
	if err != nil {
		s.logger.Error().
			Err(err).
			Int("prompt_length", len(userPrompt)).
			Msg("Claude completion failed")
		return "", fmt.Errorf("claude completion failed: %w", err)
	}

	var response strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			response.WriteString(block.Text)
		}
	}

	if response.Len() == 0 {
		return "", fmt.Errorf("no response generated from Claude API")
	}

	s.logger.Debug().
		Int("response_length", response.Len()).
		Dur("duration", time.Since(startTime)).
		Msg("Claude completion finished")

	return response.String(), nil
}

// HealthCheck verifies the service can handle requests with a minimal probe.
func (s *ClaudeService) HealthCheck(ctx context.Context) error {
	if s.client == nil {
		return fmt.Errorf("anthropic client is not initialized")
	}

	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	response, err := s.Complete(probeCtx, "", "ping")
	if err != nil {
		return fmt.Errorf("claude probe failed: %w", err)
	}
	if strings.TrimSpace(response) == "" {
		return fmt.Errorf("claude probe returned empty response")
	}
	return nil
}

// Provider returns the provider name for status reporting.
func (s *ClaudeService) Provider() string {
	return string(common.LLMProviderClaude)
}

// Close releases resources.
func (s *ClaudeService) Close() error {
	s.logger.Info().Msg("Closing Claude text service")
	s.client = nil
	return nil
}
