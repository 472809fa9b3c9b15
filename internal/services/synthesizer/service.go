package synthesizer

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scribo/internal/interfaces"
	"github.com/ternarybob/scribo/internal/models"
)

// Service drives the text generation stage: it sends the fixed prompt
// template to the text service, parses the structured JSON response, and
// normalizes free-form fields. It never retries; retry policy belongs to
// the orchestrator.
type Service struct {
	text     interfaces.TextService
	validate *validator.Validate
	logger   arbor.ILogger
}

// NewService creates a new synthesizer service
func NewService(text interfaces.TextService, logger arbor.ILogger) *Service {
	return &Service{
		text:     text,
		validate: validator.New(),
		logger:   logger,
	}
}

// rawResponse matches the model output before normalization. Tags is
// deliberately untyped: the model occasionally returns a string or object
// there, which must degrade to an empty list rather than fail the run.
type rawResponse struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	Summary  string `json:"summary"`
	Tags     any    `json:"tags"`
	Category string `json:"category"`
}

// Synthesize generates a structured article draft from fragment text.
//
// Transport and parse errors wrap models.ErrGenerationService; a response
// with a blank title, content, or summary wraps
// models.ErrIncompleteGeneration. An unknown category or malformed tags
// value is normalized, not rejected.
func (s *Service) Synthesize(ctx context.Context, fragmentText string) (*models.SynthesisResult, error) {
	if strings.TrimSpace(fragmentText) == "" {
		return nil, fmt.Errorf("%w: fragment text is empty", models.ErrGenerationService)
	}

	response, err := s.text.Complete(ctx, systemPrompt, buildUserPrompt(fragmentText))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrGenerationService, err)
	}

	response = cleanMarkdownFences(response)

	var raw rawResponse
	if err := json.Unmarshal([]byte(response), &raw); err != nil {
		s.logger.Warn().
			Err(err).
			Int("response_length", len(response)).
			Msg("Failed to parse synthesis response as JSON")
		return nil, fmt.Errorf("%w: failed to parse response: %v", models.ErrGenerationService, err)
	}

	result := &models.SynthesisResult{
		Title:   strings.TrimSpace(raw.Title),
		Content: strings.TrimSpace(raw.Content),
		Summary: strings.TrimSpace(raw.Summary),
		Tags:    coerceTags(raw.Tags),
	}

	category, valid := models.NormalizeCategory(strings.ToLower(strings.TrimSpace(raw.Category)))
	if !valid {
		s.logger.Debug().
			Str("raw_category", raw.Category).
			Str("substituted", string(category)).
			Msg("Unknown category normalized to default")
	}
	result.Category = category

	if err := s.validate.Struct(result); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrIncompleteGeneration, err)
	}

	s.logger.Debug().
		Str("title", result.Title).
		Str("category", string(result.Category)).
		Int("tags", len(result.Tags)).
		Msg("Synthesis completed")

	return result, nil
}

// coerceTags converts whatever the model returned in the tags field into a
// string slice, substituting an empty list for anything malformed.
func coerceTags(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return []string{}
	}

	tags := make([]string, 0, len(items))
	for _, item := range items {
		tag, ok := item.(string)
		if !ok {
			continue
		}
		tag = strings.TrimSpace(tag)
		if tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

var fencePattern = regexp.MustCompile(`(?s)^\s*` + "```" + `(?:json|JSON)?\s*\n?(.*?)\n?\s*` + "```" + `\s*$`)

// cleanMarkdownFences removes markdown code fences from a model response
func cleanMarkdownFences(s string) string {
	s = strings.TrimSpace(s)

	if matches := fencePattern.FindStringSubmatch(s); len(matches) > 1 {
		s = matches[1]
	}

	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```JSON")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")

	return strings.TrimSpace(s)
}
