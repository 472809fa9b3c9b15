package synthesizer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scribo/internal/models"
)

type fakeTextService struct {
	response string
	err      error
}

func (f *fakeTextService) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func (f *fakeTextService) HealthCheck(ctx context.Context) error { return nil }
func (f *fakeTextService) Provider() string                      { return "fake" }
func (f *fakeTextService) Close() error                          { return nil }

const validResponse = `{
	"title": "Study Links Sleep to Heart Health",
	"content": "A large meta-analysis has found that regular sleep improves cardiovascular outcomes.",
	"summary": "Sleep duration correlates with lower cardiovascular risk.",
	"tags": ["sleep", "cardiology"],
	"category": "research"
}`

func TestSynthesizeParsesValidResponse(t *testing.T) {
	svc := NewService(&fakeTextService{response: validResponse}, arbor.NewLogger())

	result, err := svc.Synthesize(context.Background(), "fragment text")
	require.NoError(t, err)
	assert.Equal(t, "Study Links Sleep to Heart Health", result.Title)
	assert.Equal(t, models.CategoryResearch, result.Category)
	assert.Equal(t, []string{"sleep", "cardiology"}, result.Tags)
}

func TestSynthesizeStripsMarkdownFences(t *testing.T) {
	svc := NewService(&fakeTextService{response: "```json\n" + validResponse + "\n```"}, arbor.NewLogger())

	result, err := svc.Synthesize(context.Background(), "fragment text")
	require.NoError(t, err)
	assert.Equal(t, "Study Links Sleep to Heart Health", result.Title)
}

func TestSynthesizeNormalizesUnknownCategory(t *testing.T) {
	response := `{"title":"T","content":"C","summary":"S","tags":[],"category":"astrology"}`
	svc := NewService(&fakeTextService{response: response}, arbor.NewLogger())

	result, err := svc.Synthesize(context.Background(), "fragment text")
	require.NoError(t, err)
	assert.Equal(t, models.DefaultCategory, result.Category)
}

func TestSynthesizeCoercesMalformedTags(t *testing.T) {
	response := `{"title":"T","content":"C","summary":"S","tags":"not-a-list","category":"medical"}`
	svc := NewService(&fakeTextService{response: response}, arbor.NewLogger())

	result, err := svc.Synthesize(context.Background(), "fragment text")
	require.NoError(t, err)
	assert.Empty(t, result.Tags)
}

func TestSynthesizeRejectsIncompleteResponse(t *testing.T) {
	response := `{"title":"T","content":"","summary":"S","tags":[],"category":"medical"}`
	svc := NewService(&fakeTextService{response: response}, arbor.NewLogger())

	_, err := svc.Synthesize(context.Background(), "fragment text")
	assert.ErrorIs(t, err, models.ErrIncompleteGeneration)
}

func TestSynthesizeWrapsTransportError(t *testing.T) {
	svc := NewService(&fakeTextService{err: errors.New("connection refused")}, arbor.NewLogger())

	_, err := svc.Synthesize(context.Background(), "fragment text")
	assert.ErrorIs(t, err, models.ErrGenerationService)
}

func TestSynthesizeRejectsNonJSONResponse(t *testing.T) {
	svc := NewService(&fakeTextService{response: "Sorry, I cannot help with that."}, arbor.NewLogger())

	_, err := svc.Synthesize(context.Background(), "fragment text")
	assert.ErrorIs(t, err, models.ErrGenerationService)
}

func TestSynthesizeRejectsEmptyFragment(t *testing.T) {
	svc := NewService(&fakeTextService{response: validResponse}, arbor.NewLogger())

	_, err := svc.Synthesize(context.Background(), "   ")
	assert.ErrorIs(t, err, models.ErrGenerationService)
}

func TestCleanMarkdownFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, cleanMarkdownFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, cleanMarkdownFences("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, cleanMarkdownFences(`{"a":1}`))
}
