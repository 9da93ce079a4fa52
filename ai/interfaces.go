package ai

import "context"

// Embedder generates vector embeddings from text.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Analyst runs the language-model calls behind document analysis.
// Implementations must be thread-safe for concurrent use.
type Analyst interface {
	// AnalyzeDocument produces the structured analysis of a document, or of
	// an extractive summary standing in for one.
	// Returns an error if the call fails or the response cannot be decoded.
	AnalyzeDocument(ctx context.Context, content string) (*Analysis, error)

	// ExtractKeyContent pulls the most important sentences, verbatim, out of
	// one section of a large document.
	ExtractKeyContent(ctx context.Context, section string) (string, error)

	// CombineExtracts organises labelled section extracts into a single
	// extractive summary.
	CombineExtracts(ctx context.Context, extracts string) (string, error)
}

// AIProvider aggregates AI services for convenient initialization and lifecycle management.
// A provider creates and manages Embedder and Analyst instances,
// ensuring they share configuration and resources appropriately.
type AIProvider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// Analyst returns the document analysis service.
	// The returned Analyst is safe for concurrent use.
	Analyst() Analyst

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
