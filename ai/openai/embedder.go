package openai

import (
	"context"
	"log/slog"

	"github.com/poiesic/folio/ai"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// Embedder implements ai.Embedder using an OpenAI-compatible embeddings endpoint.
type Embedder struct {
	embedder embeddings.Embedder
	logger   *slog.Logger
}

// newEmbedder creates a new embedder with the given configuration.
// Returns concrete type for internal use by Provider.
func newEmbedder(config *ai.Config) (*Embedder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	opts := append(clientOptions(config, config.EmbeddingHost),
		openai.WithModel(config.EmbeddingModel),
		openai.WithEmbeddingModel(config.EmbeddingModel),
	)
	client, err := openai.New(opts...)
	if err != nil {
		return nil, err
	}

	embedder, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, err
	}

	return &Embedder{
		embedder: embedder,
		logger:   slog.Default().With("component", "openai-embedder"),
	}, nil
}

// NewEmbedder creates a new embedder with the given configuration.
//
// Returns ai.Embedder interface to enforce abstraction.
func NewEmbedder(config *ai.Config) (ai.Embedder, error) {
	return newEmbedder(config)
}

// EmbedText embeds a single text.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, ai.ErrEmptyResponse
	}
	return vectors[0], nil
}

// EmbedTexts embeds texts in one request. Vectors come back in input order.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	vectors, err := e.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		e.logger.Error("embedding request failed", "texts", len(texts), "err", err)
		return nil, err
	}
	if len(vectors) > 0 {
		e.logger.Debug("embedded texts", "texts", len(texts), "dimensions", len(vectors[0]))
	}
	return vectors, nil
}
