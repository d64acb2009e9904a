package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"google.golang.org/genai"

	"github.com/mikeboe/tradewise/pkg/metrics"
)

// LangChainClient generates structured suggestions through a langchaingo model.
// It only covers structured generation; images and grounded search stay on GoogleClient.
type LangChainClient struct {
	llm     llms.Model
	metrics *metrics.Metrics
}

func NewLangChainClient(llm llms.Model, m *metrics.Metrics) *LangChainClient {
	return &LangChainClient{llm: llm, metrics: m}
}

// NewLangChainGoogle builds a LangChainClient backed by the googleai provider.
func NewLangChainGoogle(ctx context.Context, apiKey string, model ModelType, m *metrics.Metrics) (*LangChainClient, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if model == "" {
		model = DefaultModel
	}

	// See https://ai.google.dev/gemini-api/docs/models/gemini for possible models
	llm, err := googleai.New(ctx, googleai.WithAPIKey(apiKey), googleai.WithDefaultModel(string(model)))
	if err != nil {
		return nil, fmt.Errorf("failed to init langchaingo googleai: %w", err)
	}

	return NewLangChainClient(llm, m), nil
}

// GenerateStructured appends the JSON schema to the prompt and runs it in JSON mode.
func (c *LangChainClient) GenerateStructured(ctx context.Context, prompt string, schema *genai.Schema) (string, error) {
	fullPrompt := prompt
	if schema != nil {
		schemaJSON, err := json.Marshal(schema)
		if err != nil {
			return "", fmt.Errorf("failed to encode response schema: %w", err)
		}
		fullPrompt = prompt + "\n\n# Response Format:\nReturn the JSON directly without any formatting or additional text. It must match this schema:\n" + string(schemaJSON)
	}

	start := time.Now()
	content, err := llms.GenerateFromSinglePrompt(ctx, c.llm, fullPrompt, llms.WithJSONMode())
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.metrics.RecordProviderRequest("suggest", status, time.Since(start))
	if err != nil {
		return "", fmt.Errorf("llm generation failed: %w", err)
	}

	return stripCodeFence(content), nil
}

// stripCodeFence removes a surrounding ```json fence some models add even in JSON mode.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
