package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/mikeboe/tradewise/pkg/product"
)

const (
	mcpServerName       = "tradewise-mcp"
	suggestProductsTool = "suggest_products"
)

type SuggestProductsInput struct {
	Query string `json:"query" jsonschema:"Description of the electronic device the user is looking for, e.g. a lightweight laptop for a college student"`
}

// SuggestedProduct is a product as returned over MCP. Image data is left out
// to keep tool results small.
type SuggestedProduct struct {
	Name           string                 `json:"name"`
	Category       string                 `json:"category"`
	KeySpecs       []string               `json:"key_specs"`
	Reasoning      string                 `json:"reasoning"`
	EstimatedPrice string                 `json:"estimated_price"`
	HasImage       bool                   `json:"has_image"`
	BuyingOptions  []product.BuyingOption `json:"buying_options"`
}

type SuggestProductsOutput struct {
	Query    string             `json:"query"`
	Products []SuggestedProduct `json:"products"`
}

// NewMCPServer exposes product suggestions as the suggest_products tool.
func NewMCPServer(s *Service, version string, logger *zap.Logger) *mcp.Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	server := mcp.NewServer(&mcp.Implementation{
		Name:    mcpServerName,
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        suggestProductsTool,
		Description: "Recommend 3 to 6 electronic devices for a description, with key specs, reasoning, an estimated price in INR and links to online retailers.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in SuggestProductsInput) (*mcp.CallToolResult, SuggestProductsOutput, error) {
		snap, err := s.Suggest(ctx, in.Query)
		if err != nil {
			logger.Warn("MCP suggest_products failed", zap.String("query", in.Query), zap.Error(err))
			if errors.Is(err, product.ErrEmptyQuery) {
				return nil, SuggestProductsOutput{}, errors.New(product.ValidationMessage)
			}
			return nil, SuggestProductsOutput{}, errors.New("failed to get product suggestions")
		}

		out := SuggestProductsOutput{
			Query:    snap.Query,
			Products: make([]SuggestedProduct, 0, len(snap.Products)),
		}
		for _, p := range snap.Products {
			out.Products = append(out.Products, toSuggestedProduct(p))
		}
		return nil, out, nil
	})

	return server
}

// NewMCPHandler serves server over the streamable HTTP transport.
func NewMCPHandler(server *mcp.Server) http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return server
	}, nil)
}

func toSuggestedProduct(p product.Product) SuggestedProduct {
	specs := p.KeySpecs
	if specs == nil {
		specs = []string{}
	}
	options := p.BuyingOptions.Items()
	if options == nil {
		options = []product.BuyingOption{}
	}
	return SuggestedProduct{
		Name:           p.Name,
		Category:       p.Category,
		KeySpecs:       specs,
		Reasoning:      p.Reasoning,
		EstimatedPrice: p.EstimatedPrice,
		HasImage:       p.ImageURL != "",
		BuyingOptions:  options,
	}
}
