package insights

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/moodatlas/mood-atlas/internal/app/models"
)

// MockEntrySource is a mock implementation of the EntrySource interface
type MockEntrySource struct {
	mock.Mock
}

func (m *MockEntrySource) ListEntries(ctx context.Context, userID string, since time.Time, limit int) ([]models.MoodEntry, error) {
	args := m.Called(ctx, userID, since, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.MoodEntry), args.Error(1)
}

// MockAIClient is a mock implementation of the AIClient interface
type MockAIClient struct {
	mock.Mock
}

func (m *MockAIClient) GenerateResponse(ctx context.Context, prompt string, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	args := m.Called(ctx, prompt, config)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*genai.GenerateContentResponse), args.Error(1)
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []*genai.Part{{Text: text}}}},
		},
	}
}

const validInsightJSON = `{
  "summary": "Mornings are treating you well lately.",
  "bestTime": "morning",
  "bestTimeExplanation": "Your highest scores cluster in morning check-ins.",
  "suggestions": ["Keep the morning walk", "Wind down earlier", "Note what works"],
  "emoji": "🌅"
}`

func recentEntries() []models.MoodEntry {
	now := time.Now()
	return []models.MoodEntry{
		{MoodScore: 8, CheckInType: models.CheckInMorning, RecordedAt: now, Note: "slept well"},
		{MoodScore: 6, CheckInType: models.CheckInEvening, RecordedAt: now.AddDate(0, 0, -1)},
	}
}

func TestGenerateInsights(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		source := new(MockEntrySource)
		ai := new(MockAIClient)
		svc := NewService(source, ai, zap.NewNop())

		source.On("ListEntries", ctx, "user-1", time.Time{}, recentWindow).Return(recentEntries(), nil).Once()
		ai.On("GenerateResponse", ctx, mock.AnythingOfType("string"), mock.Anything).
			Return(textResponse(validInsightJSON), nil).Once()

		got, err := svc.GenerateInsights(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, "morning", got.BestTime)
		assert.Len(t, got.Suggestions, 3)
		assert.Equal(t, "🌅", got.Emoji)

		// The prompt carries the entry data.
		prompt := ai.Calls[0].Arguments.String(1)
		assert.Contains(t, prompt, `"score": 8`)
		assert.Contains(t, prompt, `"morning"`)
		assert.Contains(t, prompt, "No note")
	})

	t.Run("FencedJSONAccepted", func(t *testing.T) {
		source := new(MockEntrySource)
		ai := new(MockAIClient)
		svc := NewService(source, ai, zap.NewNop())

		source.On("ListEntries", ctx, "user-1", time.Time{}, recentWindow).Return(recentEntries(), nil).Once()
		ai.On("GenerateResponse", ctx, mock.Anything, mock.Anything).
			Return(textResponse("```json\n"+validInsightJSON+"\n```"), nil).Once()

		got, err := svc.GenerateInsights(ctx, "user-1")
		require.NoError(t, err)
		assert.NotEmpty(t, got.Summary)
	})

	t.Run("NoEntriesRejected", func(t *testing.T) {
		source := new(MockEntrySource)
		ai := new(MockAIClient)
		svc := NewService(source, ai, zap.NewNop())

		source.On("ListEntries", ctx, "user-1", time.Time{}, recentWindow).Return([]models.MoodEntry{}, nil).Once()

		_, err := svc.GenerateInsights(ctx, "user-1")
		assert.ErrorIs(t, err, models.ErrBadRequest)
		ai.AssertNotCalled(t, "GenerateResponse")
	})

	t.Run("MalformedResponseHardFails", func(t *testing.T) {
		for name, reply := range map[string]string{
			"NotJSON":       "I feel like you're doing great!",
			"MissingFields": `{"summary": "ok"}`,
			"EmptySummary":  `{"summary": "", "bestTime": "morning", "suggestions": ["a"]}`,
		} {
			t.Run(name, func(t *testing.T) {
				source := new(MockEntrySource)
				ai := new(MockAIClient)
				svc := NewService(source, ai, zap.NewNop())

				source.On("ListEntries", ctx, "user-1", time.Time{}, recentWindow).Return(recentEntries(), nil).Once()
				ai.On("GenerateResponse", ctx, mock.Anything, mock.Anything).
					Return(textResponse(reply), nil).Once()

				_, err := svc.GenerateInsights(ctx, "user-1")
				assert.ErrorIs(t, err, ErrMalformedResponse)
			})
		}
	})

	t.Run("EmptyCandidatesHardFails", func(t *testing.T) {
		source := new(MockEntrySource)
		ai := new(MockAIClient)
		svc := NewService(source, ai, zap.NewNop())

		source.On("ListEntries", ctx, "user-1", time.Time{}, recentWindow).Return(recentEntries(), nil).Once()
		ai.On("GenerateResponse", ctx, mock.Anything, mock.Anything).
			Return(&genai.GenerateContentResponse{}, nil).Once()

		_, err := svc.GenerateInsights(ctx, "user-1")
		assert.ErrorIs(t, err, ErrMalformedResponse)
	})
}

func TestCleanJSON(t *testing.T) {
	assert.Equal(t, `{"a":1}`, cleanJSON("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, cleanJSON("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, cleanJSON(`  {"a":1}  `))
}
