package insights

import (
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/moodatlas/mood-atlas/internal/app/models"
)

// ErrMalformedResponse marks an LLM reply that could not be parsed into
// the insight shape. The operation hard-fails; there is no degraded
// insight output.
var ErrMalformedResponse = fmt.Errorf("malformed AI response")

// extractText accumulates the text parts of the first candidate.
func extractText(response *genai.GenerateContentResponse) (string, error) {
	if response == nil || len(response.Candidates) == 0 || response.Candidates[0].Content == nil {
		return "", fmt.Errorf("empty LLM response: %w", ErrMalformedResponse)
	}

	var text strings.Builder
	for _, part := range response.Candidates[0].Content.Parts {
		if part.Text != "" {
			text.WriteString(part.Text)
		}
	}
	if text.Len() == 0 {
		return "", fmt.Errorf("no text parts in LLM response: %w", ErrMalformedResponse)
	}
	return text.String(), nil
}

// cleanJSON strips markdown code fences the model sometimes wraps its
// output in despite instructions.
func cleanJSON(raw string) string {
	cleaned := strings.ReplaceAll(raw, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	return strings.TrimSpace(cleaned)
}

// parseInsights decodes and validates the structured insight payload.
func parseInsights(raw string) (*models.Insights, error) {
	var parsed models.Insights
	if err := json.Unmarshal([]byte(cleanJSON(raw)), &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode insight JSON: %w", ErrMalformedResponse)
	}
	if parsed.Summary == "" || parsed.BestTime == "" || len(parsed.Suggestions) == 0 {
		return nil, fmt.Errorf("insight payload missing required fields: %w", ErrMalformedResponse)
	}
	return &parsed, nil
}
