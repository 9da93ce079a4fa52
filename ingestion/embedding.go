package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/folio/ai"
	"github.com/poiesic/folio/core"
)

// embeddingProcessor attaches vectors to pages, one embedder call per batch.
type embeddingProcessor struct {
	embedder ai.Embedder
	pool     *ants.Pool
	retry    retryPolicy
	logger   *slog.Logger
}

var _ processor = (*embeddingProcessor)(nil)

// newEmbeddingProcessor creates a new embedding processor.
func newEmbeddingProcessor(embedder ai.Embedder, pool *ants.Pool, retry retryPolicy, logger *slog.Logger) (*embeddingProcessor, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if pool == nil {
		return nil, fmt.Errorf("worker pool required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &embeddingProcessor{
		embedder: embedder,
		pool:     pool,
		retry:    retry,
		logger:   logger.With("processor", "embeddings"),
	}, nil
}

// process embeds every batch concurrently. Failed batches keep nil vectors
// and their errors are joined into the result.
func (ep *embeddingProcessor) process(ctx context.Context, pages []*core.PageRecord) error {
	groups := GroupByBatch(pages)
	ep.logger.Info("processing pages for embeddings", "pages", len(pages), "batches", len(groups))

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for _, group := range groups {
		task := func() {
			defer wg.Done()
			if err := ep.embedBatch(ctx, group); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("batch %d: %w", group[0].BatchIndex, err))
				mu.Unlock()
			}
		}
		wg.Add(1)
		if err := ep.pool.Submit(task); err != nil {
			task()
		}
	}
	wg.Wait()

	if len(errs) > 0 {
		ep.logger.Error("some embedding batches failed", "failed", len(errs), "batches", len(groups))
	}
	return errors.Join(errs...)
}

func (ep *embeddingProcessor) embedBatch(ctx context.Context, group []*core.PageRecord) error {
	return embedPages(ctx, ep.embedder, group, ep.retry, ep.logger)
}

// EmbedPages attaches normalized vectors to pages with one embedder call,
// retrying failed calls up to attempts times with exponential backoff.
func EmbedPages(ctx context.Context, embedder ai.Embedder, pages []*core.PageRecord, attempts int, baseDelay time.Duration) error {
	if embedder == nil {
		return ErrEmbedderRequired
	}
	policy := retryPolicy{attempts: attempts, baseDelay: baseDelay}
	return embedPages(ctx, embedder, pages, policy, slog.Default().With("component", "embedder"))
}

func embedPages(ctx context.Context, embedder ai.Embedder, pages []*core.PageRecord, retry retryPolicy, logger *slog.Logger) error {
	if len(pages) == 0 {
		return nil
	}
	texts := make([]string, len(pages))
	for i, p := range pages {
		texts[i] = p.MarkdownContent
	}

	var vectors [][]float32
	err := retry.do(ctx, logger, func() error {
		var embedErr error
		vectors, embedErr = embedder.EmbedTexts(ctx, texts)
		return embedErr
	})
	if err != nil {
		return err
	}
	if len(vectors) != len(pages) {
		return fmt.Errorf("%w: expected %d, received %d", ErrEmbeddingMismatch, len(pages), len(vectors))
	}

	for i, p := range pages {
		p.Vector = normalizeVector(vectors[i])
	}
	return nil
}

// defaultRetry is used when no retry policy is configured.
var defaultRetry = retryPolicy{attempts: 3, baseDelay: 500 * time.Millisecond}
