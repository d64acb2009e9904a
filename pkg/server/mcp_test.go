package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikeboe/tradewise/pkg/product"
)

func connectMCP(t *testing.T, svc *Service) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	server := NewMCPServer(svc, "test", nil)
	_, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func decodeToolOutput(t *testing.T, res *mcp.CallToolResult) SuggestProductsOutput {
	t.Helper()
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)

	var out SuggestProductsOutput
	require.NoError(t, json.Unmarshal([]byte(text.Text), &out))
	return out
}

func TestMCPListTools(t *testing.T) {
	session := connectMCP(t, NewService(context.Background(), &stubFetcher{}, nil, nil))

	res, err := session.ListTools(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, res.Tools, 1)
	assert.Equal(t, suggestProductsTool, res.Tools[0].Name)
	assert.NotNil(t, res.Tools[0].InputSchema)
	assert.NotNil(t, res.Tools[0].OutputSchema)
}

func TestMCPSuggestProducts(t *testing.T) {
	session := connectMCP(t, NewService(context.Background(), &stubFetcher{products: sampleProducts}, nil, nil))

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      suggestProductsTool,
		Arguments: map[string]any{"query": "noise cancelling headphones"},
	})
	require.NoError(t, err)
	require.False(t, res.IsError)

	out := decodeToolOutput(t, res)
	assert.Equal(t, "noise cancelling headphones", out.Query)
	require.Len(t, out.Products, 2)

	first := out.Products[0]
	assert.Equal(t, "Sony WH-1000XM5", first.Name)
	assert.Equal(t, []string{"ANC", "30h battery", "LDAC"}, first.KeySpecs)
	assert.Equal(t, "₹29,990", first.EstimatedPrice)
	assert.True(t, first.HasImage)
	assert.Equal(t, []product.BuyingOption{{URI: "https://shop.example/Sony WH-1000XM5", Title: "shop.example"}}, first.BuyingOptions)
}

func TestMCPSuggestProductsEmptyQuery(t *testing.T) {
	session := connectMCP(t, NewService(context.Background(), &stubFetcher{products: sampleProducts}, nil, nil))

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      suggestProductsTool,
		Arguments: map[string]any{"query": "  "},
	})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	require.Len(t, res.Content, 1)
	assert.Equal(t, product.ValidationMessage, res.Content[0].(*mcp.TextContent).Text)
}

func TestMCPSuggestProductsProviderFailure(t *testing.T) {
	session := connectMCP(t, NewService(context.Background(), &stubFetcher{err: errors.New("boom")}, nil, nil))

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      suggestProductsTool,
		Arguments: map[string]any{"query": "a tablet"},
	})
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestMCPOverHTTP(t *testing.T) {
	r, _, _ := newTestRouter(t, &stubFetcher{products: sampleProducts})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	ctx := context.Background()
	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	session, err := client.Connect(ctx, &mcp.StreamableClientTransport{Endpoint: srv.URL + "/mcp"}, nil)
	require.NoError(t, err)
	defer session.Close()

	res, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      suggestProductsTool,
		Arguments: map[string]any{"query": "headphones"},
	})
	require.NoError(t, err)
	require.False(t, res.IsError)
	assert.Len(t, decodeToolOutput(t, res).Products, 2)
}
