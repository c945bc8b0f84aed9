package insights

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"google.golang.org/genai"
)

// AIClient is the LLM surface the service needs; satisfied by GeminiClient
// and mocked in tests.
type AIClient interface {
	GenerateResponse(ctx context.Context, prompt string, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

const modelName = "gemini-2.0-flash"

// GeminiClient wraps the Gemini API for insight generation.
type GeminiClient struct {
	client *genai.Client
	model  string
}

func NewGeminiClient(ctx context.Context, apiKey string) (*GeminiClient, error) {
	ctx, span := otel.Tracer("GenerativeAI").Start(ctx, "NewGeminiClient")
	defer span.End()

	if apiKey == "" {
		err := fmt.Errorf("gemini API key is not set")
		span.RecordError(err)
		span.SetStatus(codes.Error, "API key not set")
		return nil, err
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to create Gemini client")
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	span.SetStatus(codes.Ok, "AI client created successfully")
	return &GeminiClient{client: client, model: modelName}, nil
}

func (ai *GeminiClient) GenerateResponse(ctx context.Context, prompt string, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	ctx, span := otel.Tracer("GenerativeAI").Start(ctx, "GenerateResponse")
	defer span.End()
	span.SetAttributes(
		attribute.Int("prompt.length", len(prompt)),
		attribute.String("model", ai.model),
	)

	response, err := ai.client.Models.GenerateContent(ctx, ai.model, genai.Text(prompt), config)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to generate content")
		return nil, err
	}

	span.SetStatus(codes.Ok, "Content generated successfully")
	return response, nil
}
