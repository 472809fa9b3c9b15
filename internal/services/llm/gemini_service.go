package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scribo/internal/common"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// GeminiService implements the TextService interface using the Google Gemini
// API. Requests are paced by a rate limiter sized for the configured tier.
type GeminiService struct {
	config  *common.GeminiConfig
	logger  arbor.ILogger
	client  *genai.Client
	timeout time.Duration
	limiter *rate.Limiter
}

// NewGeminiService creates a new Gemini text service instance.
//
// Initialization resolves the API key from configuration, applies model and
// timeout defaults, and builds the genai client. Fails when no API key is
// available.
func NewGeminiService(config *common.GeminiConfig, logger arbor.ILogger) (*GeminiService, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Google API key is required for Gemini service (set via GEMINI_API_KEY, SCRIBO_GEMINI_API_KEY, or gemini.api_key in config)")
	}

	if config.Model == "" {
		config.Model = "gemini-2.0-flash"
	}

	timeout, err := time.ParseDuration(config.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid timeout duration '%s': %w", config.Timeout, err)
	}

	interval, err := time.ParseDuration(config.RateLimit)
	if err != nil {
		return nil, fmt.Errorf("invalid rate limit duration '%s': %w", config.RateLimit, err)
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize genai client: %w", err)
	}

	service := &GeminiService{
		config:  config,
		logger:  logger,
		client:  client,
		timeout: timeout,
		limiter: rate.NewLimiter(rate.Every(interval), 1),
	}

	logger.Info().
		Str("model", config.Model).
		Dur("timeout", timeout).
		Str("rate_limit", config.RateLimit).
		Msg("Gemini text service initialized")

	return service, nil
}

// Complete sends a system prompt and user prompt to the chat model and
// returns the raw response text.
func (s *GeminiService) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
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
		Msg("Starting Gemini completion")

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(s.config.Temperature),
	}
	if systemPrompt != "" {
		config.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}

	contents := []*genai.Content{
		{
			Role:  genai.RoleUser,
			Parts: []*genai.Part{genai.NewPartFromText(userPrompt)},
		},
	}

	resp, err := s.client.Models.GenerateContent(timeoutCtx, s.config.Model, contents, config)
	if err != nil {
		s.logger.Error().
			Err(err).
			Int("prompt_length", len(userPrompt)).
			Msg("Gemini completion failed")
		return "", fmt.Errorf("gemini completion failed: %w", err)
	}

	// Extract text from response - iterate candidates until non-empty text is found
	var response strings.Builder
	if resp != nil && len(resp.Candidates) > 0 {
		for _, candidate := range resp.Candidates {
			if candidate.Content == nil {
				continue
			}
			for _, part := range candidate.Content.Parts {
				if part.Text != "" {
					response.WriteString(part.Text)
				}
			}
			if response.Len() > 0 {
				break
			}
		}
	}

	if response.Len() == 0 {
		return "", fmt.Errorf("no response generated from Gemini model")
	}

	s.logger.Debug().
		Int("response_length", response.Len()).
		Dur("duration", time.Since(startTime)).
		Msg("Gemini completion finished")

	return response.String(), nil
}

// HealthCheck verifies the service can handle requests with a minimal probe.
func (s *GeminiService) HealthCheck(ctx context.Context) error {
	if s.client == nil {
		return fmt.Errorf("genai client is not initialized")
	}

	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	response, err := s.Complete(probeCtx, "", "ping")
	if err != nil {
		return fmt.Errorf("gemini probe failed: %w", err)
	}
	if strings.TrimSpace(response) == "" {
		return fmt.Errorf("gemini probe returned empty response")
	}
	return nil
}

// Provider returns the provider name for status reporting.
func (s *GeminiService) Provider() string {
	return string(common.LLMProviderGemini)
}

// Close releases resources. The genai.Client doesn't require explicit
// cleanup beyond clearing the reference.
func (s *GeminiService) Close() error {
	s.logger.Info().Msg("Closing Gemini text service")
	s.client = nil
	return nil
}
