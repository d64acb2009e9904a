package clients

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/mikeboe/tradewise/pkg/metrics"
)

// fakeGemini serves canned Gemini API responses keyed by the method suffix of the path.
type fakeGemini struct {
	mu        sync.Mutex
	responses map[string]string
	status    int
	paths     []string
	bodies    []map[string]any
}

func (f *fakeGemini) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	var decoded map[string]any
	_ = json.Unmarshal(body, &decoded)

	f.mu.Lock()
	f.paths = append(f.paths, r.URL.Path)
	f.bodies = append(f.bodies, decoded)
	status := f.status
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"error":{"code":400,"message":"API key not valid","status":"INVALID_ARGUMENT"}}`))
		return
	}

	for suffix, resp := range f.responses {
		if strings.HasSuffix(r.URL.Path, suffix) {
			_, _ = w.Write([]byte(resp))
			return
		}
	}
	w.WriteHeader(http.StatusNotFound)
	_, _ = w.Write([]byte(`{"error":{"code":404,"message":"not found","status":"NOT_FOUND"}}`))
}

func newTestClient(t *testing.T, fake *fakeGemini, m *metrics.Metrics) *GoogleClient {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	client, err := NewGoogleClient(context.Background(), GoogleConfig{
		APIKey:  "test-key",
		BaseURL: srv.URL,
		Metrics: m,
	})
	require.NoError(t, err)
	return client
}

func TestNewGoogleClientRequiresKey(t *testing.T) {
	_, err := NewGoogleClient(context.Background(), GoogleConfig{})
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestGenerateStructured(t *testing.T) {
	fake := &fakeGemini{responses: map[string]string{
		":generateContent": `{"candidates":[{"content":{"role":"model","parts":[{"text":"[{\"name\":\"GoPro HERO12\"}]"}]}}]}`,
	}}
	m := metrics.New()
	client := newTestClient(t, fake, m)

	schema := &genai.Schema{Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeObject}}
	text, err := client.GenerateStructured(context.Background(), "find a camera", schema)
	require.NoError(t, err)
	assert.Equal(t, `[{"name":"GoPro HERO12"}]`, text)

	require.Len(t, fake.paths, 1)
	assert.True(t, strings.HasSuffix(fake.paths[0], "models/"+string(DefaultModel)+":generateContent"), fake.paths[0])

	genCfg, ok := fake.bodies[0]["generationConfig"].(map[string]any)
	require.True(t, ok, "request must carry a generation config")
	assert.Equal(t, "application/json", genCfg["responseMimeType"])
	assert.NotNil(t, genCfg["responseSchema"])

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProviderRequestsTotal.WithLabelValues("suggest", "ok")))
}

func TestGenerateStructuredProviderError(t *testing.T) {
	fake := &fakeGemini{status: http.StatusBadRequest}
	m := metrics.New()
	client := newTestClient(t, fake, m)

	_, err := client.GenerateStructured(context.Background(), "find a camera", nil)
	require.Error(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProviderRequestsTotal.WithLabelValues("suggest", "error")))
}

func TestGenerateImage(t *testing.T) {
	imageBytes := []byte{0xff, 0xd8, 0xff, 0xe0}
	fake := &fakeGemini{responses: map[string]string{
		":predict": `{"predictions":[{"bytesBase64Encoded":"` + base64.StdEncoding.EncodeToString(imageBytes) + `","mimeType":"image/jpeg"}]}`,
	}}
	client := newTestClient(t, fake, nil)

	img, err := client.GenerateImage(context.Background(), "studio photo")
	require.NoError(t, err)
	require.NotNil(t, img)
	assert.Equal(t, imageBytes, img.Bytes)
	assert.Equal(t, "image/jpeg", img.MIMEType)

	require.Len(t, fake.paths, 1)
	assert.True(t, strings.HasSuffix(fake.paths[0], "models/"+string(DefaultImageModel)+":predict"), fake.paths[0])

	params, ok := fake.bodies[0]["parameters"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 1, params["sampleCount"])
	assert.Equal(t, "4:3", params["aspectRatio"])
}

func TestGenerateImageNoImages(t *testing.T) {
	fake := &fakeGemini{responses: map[string]string{
		":predict": `{"predictions":[]}`,
	}}
	client := newTestClient(t, fake, nil)

	img, err := client.GenerateImage(context.Background(), "studio photo")
	require.NoError(t, err)
	assert.Nil(t, img)
}

func TestGroundedSearch(t *testing.T) {
	fake := &fakeGemini{responses: map[string]string{
		":generateContent": `{"candidates":[{
			"content":{"role":"model","parts":[{"text":"Available at Amazon and Croma."}]},
			"groundingMetadata":{"groundingChunks":[
				{"web":{"uri":"https://amazon.in/gopro","title":"amazon.in"}},
				{"web":{"uri":"https://croma.com/gopro"}},
				{}
			]}
		}]}`,
	}}
	client := newTestClient(t, fake, nil)

	answer, err := client.GroundedSearch(context.Background(), "where to buy")
	require.NoError(t, err)
	assert.Equal(t, "Available at Amazon and Croma.", answer.Text)
	assert.Equal(t, []Citation{
		{URI: "https://amazon.in/gopro", Title: "amazon.in"},
		{URI: "https://croma.com/gopro"},
	}, answer.Citations)

	tools, ok := fake.bodies[0]["tools"].([]any)
	require.True(t, ok)
	require.Len(t, tools, 1)
	assert.Contains(t, tools[0], "googleSearch")
}

func TestGroundedSearchWithoutMetadata(t *testing.T) {
	fake := &fakeGemini{responses: map[string]string{
		":generateContent": `{"candidates":[{"content":{"role":"model","parts":[{"text":"No idea."}]}}]}`,
	}}
	client := newTestClient(t, fake, nil)

	answer, err := client.GroundedSearch(context.Background(), "where to buy")
	require.NoError(t, err)
	assert.Empty(t, answer.Citations)
}

func TestGoogleClientRateLimit(t *testing.T) {
	fake := &fakeGemini{responses: map[string]string{
		":generateContent": `{"candidates":[{"content":{"role":"model","parts":[{"text":"[]"}]}}]}`,
	}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	client, err := NewGoogleClient(context.Background(), GoogleConfig{
		APIKey:    "test-key",
		BaseURL:   srv.URL,
		RateLimit: 0.001,
		Burst:     1,
	})
	require.NoError(t, err)

	_, err = client.GenerateStructured(context.Background(), "first", nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = client.GenerateStructured(ctx, "second", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limiter")
	assert.Len(t, fake.paths, 1, "the throttled call must not reach the provider")
}
