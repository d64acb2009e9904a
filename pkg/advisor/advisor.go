package advisor

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/mikeboe/tradewise/pkg/clients"
	"github.com/mikeboe/tradewise/pkg/product"
)

// StructuredGenerator returns the raw JSON text of a schema-constrained completion.
type StructuredGenerator interface {
	GenerateStructured(ctx context.Context, prompt string, schema *genai.Schema) (string, error)
}

// ImageGenerator returns a single image, or nil when the provider produced none.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string) (*clients.Image, error)
}

// GroundedSearcher runs a search-grounded completion.
type GroundedSearcher interface {
	GroundedSearch(ctx context.Context, prompt string) (*clients.GroundedAnswer, error)
}

// Advisor turns provider calls into products, images and buying options.
type Advisor struct {
	suggester  StructuredGenerator
	imager     ImageGenerator
	searcher   GroundedSearcher
	logger     *zap.Logger
	maxOptions int
}

func New(suggester StructuredGenerator, imager ImageGenerator, searcher GroundedSearcher, logger *zap.Logger, maxOptions int) *Advisor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxOptions <= 0 {
		maxOptions = product.MaxBuyingOptions
	}
	return &Advisor{
		suggester:  suggester,
		imager:     imager,
		searcher:   searcher,
		logger:     logger,
		maxOptions: maxOptions,
	}
}

// FetchSuggestions returns the products recommended for query, without images
// and with buying options pending.
func (a *Advisor) FetchSuggestions(ctx context.Context, query product.Query) ([]product.Product, error) {
	text, err := a.suggester.GenerateStructured(ctx, suggestionPrompt(query.String()), productListSchema())
	if err != nil {
		a.logger.Error("Suggestion request failed", zap.String("query", query.String()), zap.Error(err))
		return nil, &SuggestionFetchError{Query: query.String(), Err: err}
	}

	var products []product.Product
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &products); err != nil {
		a.logger.Error("Suggestion response is not a product list", zap.String("query", query.String()), zap.Error(err))
		return nil, &SuggestionFetchError{
			Query: query.String(),
			Err:   fmt.Errorf("%w: %v", ErrMalformedSuggestions, err),
		}
	}

	if products == nil {
		a.logger.Error("Suggestion response is null", zap.String("query", query.String()))
		return nil, &SuggestionFetchError{
			Query: query.String(),
			Err:   fmt.Errorf("%w: got null instead of a list", ErrMalformedSuggestions),
		}
	}

	bare := make([]product.Product, len(products))
	for i, p := range products {
		bare[i] = p.Bare()
	}

	a.logger.Debug("Fetched suggestions", zap.String("query", query.String()), zap.Int("count", len(bare)))
	return bare, nil
}

// GenerateImage returns a studio photo of the product as a data URI.
func (a *Advisor) GenerateImage(ctx context.Context, productName string) (string, error) {
	img, err := a.imager.GenerateImage(ctx, imagePrompt(productName))
	if err != nil {
		return "", &ImageGenerationError{Product: productName, Err: err}
	}
	if img == nil || len(img.Bytes) == 0 {
		return "", &ImageGenerationError{Product: productName, Err: ErrNoImage}
	}

	mimeType := img.MIMEType
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(img.Bytes), nil
}

// FindBuyingOptions returns up to maxOptions distinct retailer links for the product.
// A response without grounding data yields an empty, non-nil slice.
func (a *Advisor) FindBuyingOptions(ctx context.Context, productName string) ([]product.BuyingOption, error) {
	answer, err := a.searcher.GroundedSearch(ctx, buyingOptionsPrompt(productName))
	if err != nil {
		return nil, &BuyingOptionsError{Product: productName, Err: err}
	}
	if answer == nil {
		return []product.BuyingOption{}, nil
	}

	candidates := make([]product.BuyingOption, 0, len(answer.Citations))
	for _, c := range answer.Citations {
		candidates = append(candidates, product.BuyingOption{URI: c.URI, Title: c.Title})
	}
	return product.CollectBuyingOptions(candidates, a.maxOptions), nil
}
