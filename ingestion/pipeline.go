package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/folio/ai"
	"github.com/poiesic/folio/convert"
	"github.com/poiesic/folio/core"
	"github.com/poiesic/folio/storage"
	"github.com/poiesic/folio/tokens"
)

// DocumentAnalyzer produces the document-level summary. It must not fail;
// problems are reported through the analysis status.
type DocumentAnalyzer interface {
	Analyze(ctx context.Context, baseID, text string, pages []*core.PageRecord) *core.DocumentAnalysis
}

// Pipeline turns a document into page records and a document analysis.
type Pipeline struct {
	analyzer       DocumentAnalyzer
	converter      convert.Converter
	counter        tokens.Counter
	embedder       ai.Embedder
	embeddingPool  *ants.Pool
	embeddingProc  processor
	retry          retryPolicy
	archive        storage.PageArchive
	maxIDLength    int
	maxBatchTokens int
	maxBatchItems  int
	logger         *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent embedding batches.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		if p.embeddingPool != nil {
			p.embeddingPool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.embeddingPool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithConverter sets the service that turns raw documents into markdown.
// Required for Ingest; Process works without one.
func WithConverter(c convert.Converter) Option {
	return func(p *Pipeline) error {
		p.converter = c
		return nil
	}
}

// WithTokenCounter sets the page token counter.
// Default is tokens.Default().
func WithTokenCounter(counter tokens.Counter) Option {
	return func(p *Pipeline) error {
		if counter != nil {
			p.counter = counter
		}
		return nil
	}
}

// WithMaxIDLength bounds generated document and page identifiers.
// Default is core.DefaultMaxIDLength.
func WithMaxIDLength(n int) Option {
	return func(p *Pipeline) error {
		if n < 1 {
			return fmt.Errorf("max id length must be positive, got %d", n)
		}
		p.maxIDLength = n
		return nil
	}
}

// WithBatchLimits sets the embedding batch ceilings.
// Defaults are DefaultMaxBatchTokens and DefaultMaxBatchItems.
func WithBatchLimits(maxTokens, maxItems int) Option {
	return func(p *Pipeline) error {
		if maxTokens < 1 || maxItems < 1 {
			return fmt.Errorf("batch limits must be positive, got %d tokens and %d items", maxTokens, maxItems)
		}
		p.maxBatchTokens = maxTokens
		p.maxBatchItems = maxItems
		return nil
	}
}

// WithEmbedder enables the embedding stage: each batch of pages is embedded
// and the unit-normalized vectors are attached to the page records.
func WithEmbedder(embedder ai.Embedder) Option {
	return func(p *Pipeline) error {
		if embedder == nil {
			return ErrEmbedderRequired
		}
		p.embedder = embedder
		return nil
	}
}

// WithRetry sets how embedding calls are retried.
// Default is 3 attempts starting at a 500ms delay.
func WithRetry(attempts int, baseDelay time.Duration) Option {
	return func(p *Pipeline) error {
		if attempts <= 0 {
			return ErrInvalidMaxAttempts
		}
		p.retry = retryPolicy{attempts: attempts, baseDelay: baseDelay}
		return nil
	}
}

// WithArchive stores every processed page so that unchanged pages can be
// recognised on later ingestion of the same document.
func WithArchive(archive storage.PageArchive) Option {
	return func(p *Pipeline) error {
		p.archive = archive
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(analyzer DocumentAnalyzer, opts ...Option) (*Pipeline, error) {
	if analyzer == nil {
		return nil, ErrAnalyzerRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		analyzer:       analyzer,
		counter:        tokens.Default(),
		embeddingPool:  pool,
		retry:          defaultRetry,
		maxIDLength:    core.DefaultMaxIDLength,
		maxBatchTokens: DefaultMaxBatchTokens,
		maxBatchItems:  DefaultMaxBatchItems,
		logger:         slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}
	p.logger = p.logger.With("component", "ingestion")

	// Create processors after options are applied (so they get final config)
	if p.embedder != nil {
		proc, err := newEmbeddingProcessor(p.embedder, p.embeddingPool, p.retry, p.logger)
		if err != nil {
			p.Release()
			return nil, err
		}
		p.embeddingProc = proc
	}

	return p, nil
}

// Ingest converts a raw document and processes the resulting markdown.
// contentType may be empty, in which case the converter detects it.
// Conversion failures are wrapped in ErrConversionFailed.
func (p *Pipeline) Ingest(ctx context.Context, raw []byte, contentType, locator string) (*core.IngestionResult, error) {
	if len(raw) == 0 {
		return nil, ErrEmptyDocument
	}
	if p.converter == nil {
		return nil, ErrConverterRequired
	}

	p.logger.Info("converting document", "bytes", len(raw), "contentType", contentType, "locator", locator)
	markdown, err := p.converter.Convert(ctx, raw, contentType)
	if err != nil {
		p.logger.Error("document conversion failed", "err", err)
		return nil, fmt.Errorf("%w: %w", ErrConversionFailed, err)
	}

	return p.Process(ctx, markdown, locator), nil
}

// Process splits converted markdown into pages, runs the optional embedding
// and archive stages, and analyses the document. Stage failures are logged;
// the page records are always returned.
func (p *Pipeline) Process(ctx context.Context, markdown, locator string) *core.IngestionResult {
	baseID := core.BaseDocumentID(locator, p.maxIDLength)

	pages := SplitPages(markdown, baseID, p.counter, p.maxIDLength)
	AssignBatches(pages, p.maxBatchTokens, p.maxBatchItems)
	p.logger.Info("split document into pages", "documentId", baseID, "pages", len(pages))

	if p.embeddingProc != nil && len(pages) > 0 {
		if err := p.embeddingProc.process(ctx, pages); err != nil {
			p.logger.Warn("embedding stage incomplete", "documentId", baseID, "err", err)
		}
	}

	if p.archive != nil && len(pages) > 0 {
		stats, err := p.archive.ArchivePages(ctx, pages...)
		if err != nil {
			p.logger.Warn("page archive failed", "documentId", baseID, "err", err)
		} else {
			p.logger.Info("archived pages",
				"documentId", baseID,
				"created", stats.Created,
				"updated", stats.Updated,
				"unchanged", stats.Unchanged)
		}
	}

	analysis := p.analyzer.Analyze(ctx, baseID, markdown, pages)

	return &core.IngestionResult{
		DocumentSummary: analysis,
		Pages:           pages,
	}
}

// Release releases resources including worker pools.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.embeddingPool != nil {
		p.embeddingPool.Release()
	}
}
