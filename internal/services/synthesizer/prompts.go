package synthesizer

import "fmt"

// systemPrompt fixes the writer persona for every synthesis request.
const systemPrompt = `You are a professional medical news writer. You write clear, accurate, reader-friendly articles from source material supplied to you. You always respond with valid JSON and nothing else.`

// buildUserPrompt embeds the fragment text into the fixed instruction block.
func buildUserPrompt(fragmentText string) string {
	return fmt.Sprintf(`Task: Write a complete medical news article based on the source material below.

Rules:
- The title must be specific and engaging, not clickbait
- The content must be a full article in Markdown, at least four paragraphs
- The summary must be two or three sentences capturing the key finding
- Choose exactly one category from: medical, health, research, news
- Suggest three to six short topical tags

Output Format (JSON only, no markdown fences):
{
  "title": "Article title",
  "content": "Full article body in Markdown",
  "summary": "Two to three sentence summary",
  "tags": ["tag1", "tag2", "tag3"],
  "category": "medical"
}

Source Material:
%s`, fragmentText)
}
