package interfaces

import "context"

// ImageGenerator requests an illustration from an image generation service.
// The returned URL is transient and expires; callers that want a durable
// reference must persist it via an ImageStore immediately.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string) (string, error)
}

// ImageStore downloads a transient image URL and persists it locally,
// returning the durable URL it will be served from.
type ImageStore interface {
	FetchAndStore(ctx context.Context, sourceURL, idHint string) (string, error)
}
