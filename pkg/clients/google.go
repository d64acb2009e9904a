package clients

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/mikeboe/tradewise/pkg/metrics"
)

// ModelType names a Gemini or Imagen model.
type ModelType string

const (
	// DefaultModel is used for suggestions and grounded search if none is specified
	DefaultModel      ModelType = "gemini-2.5-flash"
	DefaultImageModel ModelType = "imagen-4.0-generate-001"
)

const (
	imageMIMEType    = "image/jpeg"
	imageAspectRatio = "4:3"
)

var (
	ErrMissingAPIKey = errors.New("google api key is not set")
	ErrEmptyResponse = errors.New("empty response")
)

// Image is a generated image as returned by the provider.
type Image struct {
	Bytes    []byte
	MIMEType string
}

// Citation is a grounding chunk. URI and Title may each be empty.
type Citation struct {
	URI   string
	Title string
}

// GroundedAnswer is the free-form text of a search-grounded call plus its citations.
type GroundedAnswer struct {
	Text      string
	Citations []Citation
}

type GoogleConfig struct {
	APIKey     string
	TextModel  ModelType
	ImageModel ModelType

	// BaseURL overrides the Gemini API endpoint.
	BaseURL string

	// RateLimit caps provider requests per second. Zero means unlimited.
	RateLimit float64
	Burst     int

	Metrics *metrics.Metrics
}

// GoogleClient talks to the Gemini API. One instance is shared by the whole process.
type GoogleClient struct {
	client     *genai.Client
	textModel  string
	imageModel string
	limiter    *rate.Limiter
	metrics    *metrics.Metrics
}

func NewGoogleClient(ctx context.Context, cfg GoogleConfig) (*GoogleClient, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.TextModel == "" {
		cfg.TextModel = DefaultModel
	}
	if cfg.ImageModel == "" {
		cfg.ImageModel = DefaultImageModel
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	return &GoogleClient{
		client:     client,
		textModel:  string(cfg.TextModel),
		imageModel: string(cfg.ImageModel),
		limiter:    limiter,
		metrics:    cfg.Metrics,
	}, nil
}

// GenerateStructured asks for a JSON response that follows schema and returns the raw text.
func (c *GoogleClient) GenerateStructured(ctx context.Context, prompt string, schema *genai.Schema) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter error: %w", err)
	}

	start := time.Now()
	resp, err := c.client.Models.GenerateContent(ctx, c.textModel, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
	})
	c.record("suggest", err, start)
	if err != nil {
		return "", fmt.Errorf("structured generation failed: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", ErrEmptyResponse
	}

	return resp.Text(), nil
}

// GenerateImage requests a single image. It returns nil without an error when the
// provider answered but produced no image.
func (c *GoogleClient) GenerateImage(ctx context.Context, prompt string) (*Image, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	start := time.Now()
	resp, err := c.client.Models.GenerateImages(ctx, c.imageModel, prompt, &genai.GenerateImagesConfig{
		NumberOfImages: 1,
		OutputMIMEType: imageMIMEType,
		AspectRatio:    imageAspectRatio,
	})
	c.record("image", err, start)
	if err != nil {
		return nil, fmt.Errorf("image generation failed: %w", err)
	}

	if resp == nil || len(resp.GeneratedImages) == 0 {
		return nil, nil
	}
	generated := resp.GeneratedImages[0]
	if generated == nil || generated.Image == nil || len(generated.Image.ImageBytes) == 0 {
		return nil, nil
	}

	mimeType := generated.Image.MIMEType
	if mimeType == "" {
		mimeType = imageMIMEType
	}
	return &Image{Bytes: generated.Image.ImageBytes, MIMEType: mimeType}, nil
}

// GroundedSearch runs prompt with the Google Search tool enabled and collects the
// web grounding chunks of the first candidate.
func (c *GoogleClient) GroundedSearch(ctx context.Context, prompt string) (*GroundedAnswer, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	start := time.Now()
	resp, err := c.client.Models.GenerateContent(ctx, c.textModel, genai.Text(prompt), &genai.GenerateContentConfig{
		Tools: []*genai.Tool{
			{GoogleSearch: &genai.GoogleSearch{}},
		},
	})
	c.record("grounded_search", err, start)
	if err != nil {
		return nil, fmt.Errorf("grounded search failed: %w", err)
	}

	answer := &GroundedAnswer{}
	if resp == nil || len(resp.Candidates) == 0 {
		return answer, nil
	}
	answer.Text = resp.Text()

	candidate := resp.Candidates[0]
	if candidate.GroundingMetadata == nil {
		return answer, nil
	}
	for _, chunk := range candidate.GroundingMetadata.GroundingChunks {
		if chunk == nil || chunk.Web == nil {
			continue
		}
		answer.Citations = append(answer.Citations, Citation{
			URI:   chunk.Web.URI,
			Title: chunk.Web.Title,
		})
	}

	return answer, nil
}

func (c *GoogleClient) record(operation string, err error, start time.Time) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.metrics.RecordProviderRequest(operation, status, time.Since(start))
}
