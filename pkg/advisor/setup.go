package advisor

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mikeboe/tradewise/pkg/clients"
	"github.com/mikeboe/tradewise/pkg/config"
	"github.com/mikeboe/tradewise/pkg/metrics"
)

// NewFromConfig builds the provider clients once and wires them into an Advisor.
// Images and buying options always go through the Gemini API; suggestions use
// the configured backend.
func NewFromConfig(ctx context.Context, cfg *config.Config, logger *zap.Logger, m *metrics.Metrics) (*Advisor, error) {
	google, err := clients.NewGoogleClient(ctx, clients.GoogleConfig{
		APIKey:     cfg.GoogleApiKey,
		TextModel:  clients.ModelType(cfg.TextModel),
		ImageModel: clients.ModelType(cfg.ImageModel),
		RateLimit:  cfg.ProviderRateLimit,
		Burst:      cfg.ProviderBurst,
		Metrics:    m,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init google client: %w", err)
	}

	var suggester StructuredGenerator = google
	switch cfg.SuggestionBackend {
	case config.BackendGenAI, "":
	case config.BackendLangChain:
		lc, err := clients.NewLangChainGoogle(ctx, cfg.GoogleApiKey, clients.ModelType(cfg.TextModel), m)
		if err != nil {
			return nil, err
		}
		suggester = lc
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrInvalidBackend, cfg.SuggestionBackend)
	}

	if logger != nil {
		logger.Info("Advisor ready",
			zap.String("suggestion_backend", cfg.SuggestionBackend),
			zap.String("text_model", cfg.TextModel),
			zap.String("image_model", cfg.ImageModel),
		)
	}

	return New(suggester, google, google, logger, cfg.MaxBuyingOptions), nil
}
