package gemini

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/generative-ai-go/genai"
	"github.com/poiesic/folio/ai"
	"google.golang.org/api/option"
)

// Provider implements ai.AIProvider on a single Gemini client.
type Provider struct {
	client   *genai.Client
	embedder *Embedder
	analyst  *Analyst
	logger   *slog.Logger
}

// NewProvider creates a Gemini-backed provider. The config must select
// ai.ProviderGemini and carry an API key.
func NewProvider(ctx context.Context, config *ai.Config) (ai.AIProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.Provider != ai.ProviderGemini {
		return nil, fmt.Errorf("gemini provider cannot serve %q", config.Provider)
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(config.APIKey))
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}

	return &Provider{
		client:   client,
		embedder: newEmbedder(client, config.EmbeddingModel),
		analyst:  newAnalyst(client, config),
		logger:   slog.Default().With("component", "gemini-provider"),
	}, nil
}

// Embedder returns the embedding service.
func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

// Analyst returns the document analysis service.
func (p *Provider) Analyst() ai.Analyst {
	return p.analyst
}

// Close releases the underlying client.
func (p *Provider) Close() error {
	p.logger.Debug("closing Gemini provider")
	return p.client.Close()
}
