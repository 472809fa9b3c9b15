package illustrator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scribo/internal/common"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the base URL for the image generation API.
	DefaultBaseURL = "https://api.openai.com/v1"

	// DefaultTimeout is the default HTTP timeout for image generation.
	DefaultTimeout = 90 * time.Second
)

// DalleClient implements the ImageGenerator interface against the OpenAI
// images API. The URL it returns is transient and expires within hours, so
// callers must persist it immediately.
type DalleClient struct {
	baseURL    string
	apiKey     string
	model      string
	size       string
	httpClient *http.Client
	logger     arbor.ILogger
	limiter    *rate.Limiter
}

// DalleOption configures the DalleClient.
type DalleOption func(*DalleClient)

// WithBaseURL sets a custom base URL.
func WithBaseURL(baseURL string) DalleOption {
	return func(c *DalleClient) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) DalleOption {
	return func(c *DalleClient) {
		c.httpClient = httpClient
	}
}

// NewDalleClient creates a new image generation client.
func NewDalleClient(config *common.ImagesConfig, logger arbor.ILogger, opts ...DalleOption) (*DalleClient, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("image API key is required (set via OPENAI_API_KEY, SCRIBO_IMAGES_API_KEY, or images.api_key in config)")
	}

	model := config.Model
	if model == "" {
		model = "dall-e-3"
	}
	size := config.Size
	if size == "" {
		size = "1024x1024"
	}

	timeout := DefaultTimeout
	if config.Timeout != "" {
		parsed, err := time.ParseDuration(config.Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid image timeout duration '%s': %w", config.Timeout, err)
		}
		timeout = parsed
	}

	c := &DalleClient{
		baseURL: DefaultBaseURL,
		apiKey:  config.APIKey,
		model:   model,
		size:    size,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
		// DALL-E 3 allows ~5 images per minute on the default tier
		limiter: rate.NewLimiter(rate.Every(12*time.Second), 1),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

type imageRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	N      int    `json:"n"`
	Size   string `json:"size"`
}

type imageResponse struct {
	Data []struct {
		URL string `json:"url"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// GenerateImage requests one image for the prompt and returns its transient
// URL.
func (c *DalleClient) GenerateImage(ctx context.Context, prompt string) (string, error) {
	if prompt == "" {
		return "", fmt.Errorf("image prompt cannot be empty")
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter wait failed: %w", err)
	}

	body, err := json.Marshal(imageRequest{
		Model:  c.model,
		Prompt: prompt,
		N:      1,
		Size:   c.size,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal image request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/images/generations", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create image request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	startTime := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("image generation request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read image response: %w", err)
	}

	var parsed imageResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse image response (HTTP %d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode != http.StatusOK {
		if parsed.Error != nil {
			return "", fmt.Errorf("image generation failed (HTTP %d): %s", resp.StatusCode, parsed.Error.Message)
		}
		return "", fmt.Errorf("image generation failed: HTTP %d", resp.StatusCode)
	}

	if len(parsed.Data) == 0 || parsed.Data[0].URL == "" {
		return "", fmt.Errorf("image generation returned no image URL")
	}

	c.logger.Debug().
		Str("model", c.model).
		Dur("duration", time.Since(startTime)).
		Msg("Image generated")

	return parsed.Data[0].URL, nil
}
