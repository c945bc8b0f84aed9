package insights

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/moodatlas/mood-atlas/internal/app/models"
)

// recentWindow is how many of the user's latest entries feed the analysis.
const recentWindow = 5

var _ Service = (*ServiceImpl)(nil)

// EntrySource supplies the user's recent mood entries, newest first.
type EntrySource interface {
	ListEntries(ctx context.Context, userID string, since time.Time, limit int) ([]models.MoodEntry, error)
}

type Service interface {
	GenerateInsights(ctx context.Context, userID string) (*models.Insights, error)
}

type ServiceImpl struct {
	logger   *zap.Logger
	entries  EntrySource
	aiClient AIClient
}

func NewService(entries EntrySource, aiClient AIClient, logger *zap.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger:   logger,
		entries:  entries,
		aiClient: aiClient,
	}
}

// promptEntry is the per-entry shape embedded in the prompt.
type promptEntry struct {
	Score float64 `json:"score"`
	Time  string  `json:"time"`
	Date  string  `json:"date"`
	Note  string  `json:"note"`
}

// GenerateInsights analyzes the user's five most recent entries. A reply
// that cannot be parsed into the structured insight shape is an error;
// there is no partial or fallback insight.
func (s *ServiceImpl) GenerateInsights(ctx context.Context, userID string) (*models.Insights, error) {
	ctx, span := otel.Tracer("InsightsService").Start(ctx, "GenerateInsights")
	defer span.End()

	l := s.logger.With(zap.String("method", "GenerateInsights"), zap.String("userID", userID))

	recent, err := s.entries.ListEntries(ctx, userID, time.Time{}, recentWindow)
	if err != nil {
		l.Error("Failed to load recent entries", zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Repository operation failed")
		return nil, fmt.Errorf("failed to load recent entries: %w", err)
	}
	if len(recent) == 0 {
		return nil, fmt.Errorf("no mood entries to analyze: %w", models.ErrBadRequest)
	}

	prompt, err := buildPrompt(recent)
	if err != nil {
		return nil, err
	}

	startTime := time.Now()
	response, err := s.aiClient.GenerateResponse(ctx, prompt, &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](0.5),
	})
	span.SetAttributes(attribute.Int64("response.latency_ms", time.Since(startTime).Milliseconds()))
	if err != nil {
		l.Error("LLM request failed", zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "LLM request failed")
		return nil, fmt.Errorf("insight generation failed: %w", err)
	}

	text, err := extractText(response)
	if err != nil {
		l.Error("Empty LLM response")
		span.RecordError(err)
		span.SetStatus(codes.Error, "Empty LLM response")
		return nil, err
	}

	parsed, err := parseInsights(text)
	if err != nil {
		l.Error("Unparseable LLM response", zap.String("response", text), zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Unparseable LLM response")
		return nil, err
	}

	l.Info("Insights generated", zap.Int("entries", len(recent)))
	span.SetAttributes(attribute.Int("insights.entries", len(recent)))
	span.SetStatus(codes.Ok, "Insights generated")
	return parsed, nil
}

func buildPrompt(recent []models.MoodEntry) (string, error) {
	formatted := make([]promptEntry, 0, len(recent))
	for _, e := range recent {
		note := e.Note
		if note == "" {
			note = "No note"
		}
		formatted = append(formatted, promptEntry{
			Score: e.MoodScore,
			Time:  string(e.CheckInType),
			Date:  e.RecordedAt.Format("2006-01-02"),
			Note:  note,
		})
	}

	data, err := json.MarshalIndent(formatted, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal mood data: %w", err)
	}

	return fmt.Sprintf(`
You are a compassionate mood analyst. Analyze this user's last %d mood logs and provide insights.

Mood Data:
%s

Provide insights in VALID JSON format (no markdown, no code blocks, just pure JSON):
{
  "summary": "A brief 2-3 sentence summary of their recent mood patterns",
  "bestTime": "morning|evening|afternoon|consistent",
  "bestTimeExplanation": "Short explanation of when they feel best",
  "suggestions": [
    "Actionable suggestion 1",
    "Actionable suggestion 2",
    "Actionable suggestion 3"
  ],
  "emoji": "Choose one emoji that represents their overall mood trend"
}

Rules:
- Be warm, supportive, and human
- Make suggestions specific and actionable
- Keep summary under 50 words
- Analyze the check-in times to determine bestTime
- Return ONLY the JSON object, no other text
`, len(recent), string(data)), nil
}
