package folio

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/poiesic/folio/ai"
	"github.com/poiesic/folio/ai/mock"
	"github.com/poiesic/folio/config"
	"github.com/poiesic/folio/core"
	"github.com/poiesic/folio/tokens"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	tokens.UseOfflineBPE()
	os.Exit(m.Run())
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Index.Badger.Path = filepath.Join(t.TempDir(), "folio_db")
	return cfg
}

const twoPages = "# Report\n\nFirst page.<!-- PageBreak -->Second page."

func TestServicesPipeline(t *testing.T) {
	ctx := context.Background()
	s := NewServices(testConfig(t), WithAIProvider(mock.NewMockProvider()))
	defer s.Close()

	p1, err := s.Pipeline(ctx)
	require.NoError(t, err)
	p2, err := s.Pipeline(ctx)
	require.NoError(t, err)
	assert.Same(t, p1, p2, "pipeline is shared")

	result, err := p1.Ingest(ctx, []byte(twoPages), "text/markdown", "https://example.com/report.md")
	require.NoError(t, err)
	require.Len(t, result.Pages, 2)
	assert.Equal(t, core.BaseDocumentID("https://example.com/report.md", 1024), result.DocumentSummary.BaseDocumentID)
	assert.Equal(t, core.AnalysisSucceeded, result.DocumentSummary.Status)
}

func TestServicesIndexer(t *testing.T) {
	ctx := context.Background()
	s := NewServices(testConfig(t))
	defer s.Close()

	ix, err := s.Indexer(ctx)
	require.NoError(t, err)

	resp, err := ix.Index(ctx, []core.SearchDocument{{"id": "a"}, {"id": "b"}})
	require.NoError(t, err)
	assert.True(t, resp.OK())
	assert.Equal(t, 2, resp.Indexed)

	again, err := s.Indexer(ctx)
	require.NoError(t, err)
	assert.Same(t, ix, again)
}

func TestServicesConfigurationErrorsAreDeferred(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	cfg.Converter.Type = config.ConverterDocIntel
	cfg.Index.Type = config.IndexAzure

	s := NewServices(cfg, WithAIProvider(mock.NewMockProvider()))
	defer s.Close()

	_, err := s.Pipeline(ctx)
	assert.ErrorIs(t, err, config.ErrMissingSetting)
	assert.Contains(t, err.Error(), "DOC_INTEL_ENDPOINT")

	_, err = s.Indexer(ctx)
	assert.ErrorIs(t, err, config.ErrMissingSetting)
	assert.Contains(t, err.Error(), "AZURE_SEARCH_SERVICE_ENDPOINT")

	cfg.Converter.Endpoint = "https://di.example.com"
	cfg.Converter.APIKey = "key"
	_, err = s.Pipeline(ctx)
	assert.NoError(t, err, "configuration is re-read after a failure")
}

func TestServicesWithoutAnalyst(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	cfg.AI.Provider = "gemini"
	cfg.AI.APIKey = ""

	s := NewServices(cfg)
	defer s.Close()

	p, err := s.Pipeline(ctx)
	require.NoError(t, err)

	result, err := p.Ingest(ctx, []byte(twoPages), "text/markdown", "")
	require.NoError(t, err)
	assert.Len(t, result.Pages, 2)
	assert.Equal(t, core.AnalysisFailed, result.DocumentSummary.Status)
	assert.NotEmpty(t, result.DocumentSummary.Error)

	s.mu.Lock()
	s.provider = mock.NewMockProvider()
	s.mu.Unlock()

	result, err = p.Ingest(ctx, []byte(twoPages), "text/markdown", "")
	require.NoError(t, err)
	assert.Equal(t, core.AnalysisSucceeded, result.DocumentSummary.Status, "provider is retried after a failure")
}

func TestServicesArchiveAndEmbed(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	cfg.Ingestion.Archive = true
	cfg.Ingestion.Embed = true

	embedder := mock.NewMockEmbedder()
	provider := mock.NewMockProviderWithServices(embedder, mock.NewMockAnalyst())
	s := NewServices(cfg, WithAIProvider(provider))
	defer s.Close()

	p, err := s.Pipeline(ctx)
	require.NoError(t, err)
	result, err := p.Ingest(ctx, []byte(twoPages), "text/markdown", "/docs/report.md")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Pages[0].Vector)
	assert.Equal(t, 1, embedder.CallCount())

	archive, err := s.Archive()
	require.NoError(t, err)
	page, err := archive.GetPage(ctx, result.Pages[1].DocumentID)
	require.NoError(t, err)
	assert.Equal(t, "Second page.", page.Page.MarkdownContent)
}

func TestServicesReembed(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	cfg.Ingestion.Archive = true

	embedder := mock.NewMockEmbedder()
	embedder.Dimensions = 4
	s := NewServices(cfg, WithAIProvider(mock.NewMockProviderWithServices(embedder, mock.NewMockAnalyst())))
	defer s.Close()

	p, err := s.Pipeline(ctx)
	require.NoError(t, err)
	result, err := p.Ingest(ctx, []byte(twoPages), "text/markdown", "/docs/report.md")
	require.NoError(t, err)
	assert.Equal(t, 0, embedder.CallCount())

	var progress bytes.Buffer
	r, err := s.Reembedder(ctx, nil, &progress)
	require.NoError(t, err)
	stats, err := r.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Updated)
	assert.Contains(t, progress.String(), "Embedded: 2/2")

	archive, err := s.Archive()
	require.NoError(t, err)
	page, err := archive.GetPage(ctx, result.Pages[0].DocumentID)
	require.NoError(t, err)
	assert.Len(t, page.Page.Vector, 4)
}

func TestServicesFetcher(t *testing.T) {
	path := filepath.Join(t.TempDir(), "note.md")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o600))

	s := NewServices(testConfig(t))
	defer s.Close()

	obj, err := s.Fetcher(context.Background()).Fetch(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), obj.Data)
	assert.Equal(t, "text/markdown", obj.ContentType)
}

func TestAIConfig(t *testing.T) {
	cfg := AIConfig(config.AIConfig{
		Provider:       "azure",
		Host:           "https://res.openai.azure.com",
		APIKey:         "k",
		APIVersion:     "2024-10-21",
		AnalystModel:   "gpt-4o",
		EmbeddingModel: "embed",
		Temperature:    0.2,
		MaxTokens:      100,
	})
	assert.Equal(t, ai.ProviderAzure, cfg.Provider)
	assert.Equal(t, "https://res.openai.azure.com", cfg.EmbeddingHost)
	assert.Equal(t, "gpt-4o", cfg.AnalystModel)
	assert.NoError(t, cfg.Validate())
}

func TestServicesClose(t *testing.T) {
	s := NewServices(testConfig(t), WithAIProvider(mock.NewMockProvider()))
	_, err := s.Pipeline(context.Background())
	require.NoError(t, err)
	_, err = s.Indexer(context.Background())
	require.NoError(t, err)
	assert.NoError(t, s.Close())
}
