package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/poiesic/folio/ai"
	"github.com/poiesic/folio/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeServer answers chat completions with the queued replies in order and
// embeddings with a fixed vector per input.
func fakeServer(t *testing.T, replies ...string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/chat/completions"):
			n := int(calls.Add(1)) - 1
			reply := replies[len(replies)-1]
			if n < len(replies) {
				reply = replies[n]
			}
			resp := map[string]any{
				"id":      "cmpl-1",
				"object":  "chat.completion",
				"created": 1,
				"model":   "test",
				"choices": []map[string]any{{
					"index":         0,
					"message":       map[string]any{"role": "assistant", "content": reply},
					"finish_reason": "stop",
				}},
				"usage": map[string]any{"prompt_tokens": 1, "completion_tokens": 1, "total_tokens": 2},
			}
			_ = json.NewEncoder(w).Encode(resp)
		case strings.HasSuffix(r.URL.Path, "/embeddings"):
			var req struct {
				Input []string `json:"input"`
			}
			_ = json.Unmarshal(body, &req)
			data := make([]map[string]any, len(req.Input))
			for i := range req.Input {
				data[i] = map[string]any{"object": "embedding", "index": i, "embedding": []float32{0.1, 0.2, 0.3}}
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"object": "list",
				"data":   data,
				"model":  "test",
				"usage":  map[string]any{"prompt_tokens": 1, "total_tokens": 1},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func testConfig(host string) *ai.Config {
	return ai.NewConfig(ai.WithHost(host), ai.WithAPIKey("test"))
}

func TestAnalyzeDocument(t *testing.T) {
	reply := `{"summary":"Key finding.","key_topics":["budget"],"document_type":"Financial","published_date":"06-30-2024"}`
	srv, calls := fakeServer(t, reply)

	analyst, err := NewAnalyst(testConfig(srv.URL))
	require.NoError(t, err)

	got, err := analyst.AnalyzeDocument(context.Background(), "# Budget 2024")
	require.NoError(t, err)

	assert.Equal(t, "Key finding.", got.Summary)
	assert.Equal(t, []string{"budget"}, got.KeyTopics)
	assert.Equal(t, core.DocumentTypeFinancial, got.DocumentType)
	assert.Equal(t, "06-30-2024", got.PublishedDate)
	assert.Equal(t, int32(1), calls.Load())
}

func TestAnalyzeDocumentRetriesMalformedJSON(t *testing.T) {
	good := `{"summary":"S","key_topics":[],"document_type":"Report","published_date":"00-00-0000"}`
	srv, calls := fakeServer(t, "not json at all", good)

	analyst, err := NewAnalyst(testConfig(srv.URL))
	require.NoError(t, err)

	got, err := analyst.AnalyzeDocument(context.Background(), "text")
	require.NoError(t, err)
	assert.Equal(t, "S", got.Summary)
	assert.Equal(t, int32(2), calls.Load())
}

func TestAnalyzeDocumentGivesUp(t *testing.T) {
	srv, calls := fakeServer(t, "still not json")

	analyst, err := NewAnalyst(testConfig(srv.URL))
	require.NoError(t, err)

	_, err = analyst.AnalyzeDocument(context.Background(), "text")
	assert.ErrorIs(t, err, ai.ErrMalformedAnalysis)
	assert.Equal(t, int32(decodeAttempts), calls.Load())
}

func TestMapAndReduce(t *testing.T) {
	srv, _ := fakeServer(t, "  extracted sentence.  ")

	analyst, err := NewAnalyst(testConfig(srv.URL))
	require.NoError(t, err)

	out, err := analyst.ExtractKeyContent(context.Background(), "section")
	require.NoError(t, err)
	assert.Equal(t, "extracted sentence.", out)

	out, err = analyst.CombineExtracts(context.Background(), "Section 1: a")
	require.NoError(t, err)
	assert.Equal(t, "extracted sentence.", out)
}

func TestEmbedder(t *testing.T) {
	srv, _ := fakeServer(t, "")

	embedder, err := NewEmbedder(testConfig(srv.URL))
	require.NoError(t, err)

	vectors, err := embedder.EmbedTexts(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Len(t, vectors[0], 3)

	vector, err := embedder.EmbedText(context.Background(), "a")
	require.NoError(t, err)
	assert.Len(t, vector, 3)
}

func TestNewProvider(t *testing.T) {
	t.Run("openai", func(t *testing.T) {
		p, err := NewProvider(testConfig("http://localhost:1"))
		require.NoError(t, err)
		assert.NotNil(t, p.Embedder())
		assert.NotNil(t, p.Analyst())
		assert.NoError(t, p.Close())
	})

	t.Run("azure", func(t *testing.T) {
		cfg := ai.NewConfig(
			ai.WithProvider(ai.ProviderAzure),
			ai.WithHost("https://res.openai.azure.com"),
			ai.WithAPIKey("key"),
			ai.WithAnalystModel("gpt-4o"),
		)
		_, err := NewProvider(cfg)
		assert.NoError(t, err)
	})

	t.Run("rejects gemini config", func(t *testing.T) {
		cfg := ai.NewConfig(ai.WithProvider(ai.ProviderGemini), ai.WithAPIKey("key"))
		_, err := NewProvider(cfg)
		assert.Error(t, err)
	})

	t.Run("invalid config", func(t *testing.T) {
		cfg := ai.NewConfig(ai.WithAnalystModel(""))
		_, err := NewProvider(cfg)
		assert.Error(t, err)
	})
}
