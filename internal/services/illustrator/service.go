package illustrator

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scribo/internal/interfaces"
	"github.com/ternarybob/scribo/internal/models"
)

// Service runs the optional illustration stage. It never fails the
// pipeline: every degradation path resolves to "no image" or "transient
// URL" with a warning on the result.
type Service struct {
	generator interfaces.ImageGenerator
	store     interfaces.ImageStore
	logger    arbor.ILogger
}

// NewService creates a new illustrator service. generator may be nil when
// the illustration stage is disabled or unconfigured; the service then
// produces empty illustrations.
func NewService(generator interfaces.ImageGenerator, store interfaces.ImageStore, logger arbor.ILogger) *Service {
	return &Service{
		generator: generator,
		store:     store,
		logger:    logger,
	}
}

// Illustrate generates and persists an image for a synthesized article.
//
// Step 1 requests an image from the generation service; any failure there
// degrades to no image. Step 2 persists the transient URL; failure there
// degrades to the transient URL with a warning. Neither step can abort the
// pipeline run.
func (s *Service) Illustrate(ctx context.Context, title string, category models.Category, summary string) models.Illustration {
	if s.generator == nil {
		return models.Illustration{}
	}

	prompt := buildImagePrompt(title, string(category), summary)

	transientURL, err := s.generator.GenerateImage(ctx, prompt)
	if err != nil {
		s.logger.Info().
			Err(err).
			Str("title", title).
			Msg("Image generation failed, continuing without image")
		return models.Illustration{
			Warnings: []string{fmt.Sprintf("image generation failed: %v", err)},
		}
	}

	if s.store == nil {
		return models.Illustration{
			ImageURL: transientURL,
			Warnings: []string{"image persistence unavailable, using transient URL"},
		}
	}

	durableURL, err := s.store.FetchAndStore(ctx, transientURL, "article")
	if err != nil {
		// Transient URLs expire within hours, but an article with a stale
		// image link beats no article at all.
		s.logger.Warn().
			Err(err).
			Str("title", title).
			Msg("Image persistence failed, falling back to transient URL")
		return models.Illustration{
			ImageURL: transientURL,
			Warnings: []string{fmt.Sprintf("image persistence failed, using transient URL: %v", err)},
		}
	}

	s.logger.Debug().
		Str("image_url", durableURL).
		Msg("Illustration completed")

	return models.Illustration{ImageURL: durableURL}
}

// buildImagePrompt produces the fixed illustration prompt template.
func buildImagePrompt(title, category, summary string) string {
	return fmt.Sprintf(`Professional editorial illustration for a %s news article titled "%s". %s Clean, modern, medically accurate style. No text or lettering in the image.`, category, title, summary)
}
