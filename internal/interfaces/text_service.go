package interfaces

import "context"

// TextService defines the text generation boundary. Implementations may use
// Gemini or Claude; the synthesizer only depends on this interface.
type TextService interface {
	// Complete sends a system prompt and a user prompt and returns the raw
	// model response text. Timeouts are applied by the implementation.
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)

	// HealthCheck verifies the service can handle requests.
	HealthCheck(ctx context.Context) error

	// Provider returns the provider name for status reporting.
	Provider() string

	// Close releases resources.
	Close() error
}
