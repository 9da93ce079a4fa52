package indexing

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/folio/core"
	"github.com/poiesic/folio/storage"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds concurrent batch submissions.
const DefaultConcurrency = 4

// MultipleDatesWarning is reported when a request carries more than one
// distinct published date.
const MultipleDatesWarning = "Multiple distinct published_date values detected in request; documents will be indexed as provided."

// BatchSummary counts the batches of a request.
type BatchSummary struct {
	Count     int `json:"count"`
	TotalDocs int `json:"totalDocs"`
}

// Response reports the outcome of an indexing request.
type Response struct {
	Indexed  int                   `json:"indexed"`
	Failed   int                   `json:"failed"`
	Batches  BatchSummary          `json:"batches"`
	Results  []storage.IndexResult `json:"results"`
	Warnings []string              `json:"warnings,omitempty"`
}

// OK reports whether every document was indexed.
func (r *Response) OK() bool {
	return r.Failed == 0
}

// Indexer validates, batches and submits search documents.
type Indexer struct {
	client      storage.IndexClient
	maxDocs     int
	maxBytes    int
	dimensions  int
	concurrency int
	progress    *ProgressTracker
	logger      *slog.Logger
}

// Option configures an Indexer.
type Option func(*Indexer) error

// WithBatchLimits sets the per-request ceilings.
// Defaults are DefaultMaxDocs and DefaultMaxBytes.
func WithBatchLimits(maxDocs, maxBytes int) Option {
	return func(ix *Indexer) error {
		if maxDocs < 1 || maxBytes < 1 {
			return fmt.Errorf("batch limits must be positive, got %d docs and %d bytes", maxDocs, maxBytes)
		}
		ix.maxDocs = maxDocs
		ix.maxBytes = maxBytes
		return nil
	}
}

// WithVectorDimensions sets the required vector length.
// Default is core.DefaultVectorDimensions.
func WithVectorDimensions(dims int) Option {
	return func(ix *Indexer) error {
		if dims < 1 {
			return fmt.Errorf("vector dimensions must be positive, got %d", dims)
		}
		ix.dimensions = dims
		return nil
	}
}

// WithConcurrency sets how many batches are submitted at once.
// Default is DefaultConcurrency.
func WithConcurrency(n int) Option {
	return func(ix *Indexer) error {
		if n < 1 {
			n = 1
		}
		ix.concurrency = n
		return nil
	}
}

// WithProgress reports submitted documents to tracker.
func WithProgress(tracker *ProgressTracker) Option {
	return func(ix *Indexer) error {
		ix.progress = tracker
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(ix *Indexer) error {
		if logger == nil {
			logger = slog.Default()
		}
		ix.logger = logger
		return nil
	}
}

// NewIndexer creates an indexer submitting to client.
func NewIndexer(client storage.IndexClient, opts ...Option) (*Indexer, error) {
	if client == nil {
		return nil, ErrClientRequired
	}
	ix := &Indexer{
		client:      client,
		maxDocs:     DefaultMaxDocs,
		maxBytes:    DefaultMaxBytes,
		dimensions:  core.DefaultVectorDimensions,
		concurrency: DefaultConcurrency,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(ix); err != nil {
			return nil, err
		}
	}
	ix.logger = ix.logger.With("component", "indexer")
	return ix, nil
}

// Index submits docs. Documents carrying published_date have it normalized
// in place first. Validation problems are returned as a *ValidationError and
// nothing is submitted. Batch failures are reported in the response, never
// as an error.
func (ix *Indexer) Index(ctx context.Context, docs []core.SearchDocument) (*Response, error) {
	if len(docs) == 0 {
		return nil, ErrNoDocuments
	}

	warnings := normalizeDates(docs)

	if problems := core.ValidateSearchDocuments(docs, ix.dimensions); len(problems) > 0 {
		ix.logger.Warn("rejecting invalid documents", "docs", len(docs), "problems", len(problems))
		return nil, &ValidationError{Errors: problems}
	}

	batches := Batch(docs, ix.maxDocs, ix.maxBytes)
	ix.logger.Info("indexing documents", "docs", len(docs), "batches", len(batches))
	if ix.progress != nil {
		ix.progress.Start()
		defer ix.progress.Finish()
	}

	batchResults := make([][]storage.IndexResult, len(batches))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.concurrency)
	for i, batch := range batches {
		g.Go(func() error {
			batchResults[i] = ix.submit(gctx, i, batch)
			if ix.progress != nil {
				ix.progress.Increment(len(batch))
			}
			return nil
		})
	}
	_ = g.Wait()

	resp := &Response{
		Batches:  BatchSummary{Count: len(batches), TotalDocs: len(docs)},
		Results:  make([]storage.IndexResult, 0, len(docs)),
		Warnings: warnings,
	}
	for _, results := range batchResults {
		for _, r := range results {
			if r.Succeeded {
				resp.Indexed++
			} else {
				resp.Failed++
			}
			resp.Results = append(resp.Results, r)
		}
	}
	ix.logger.Info("indexing complete", "indexed", resp.Indexed, "failed", resp.Failed)
	return resp, nil
}

// submit sends one batch. A failed request marks the whole batch failed.
func (ix *Indexer) submit(ctx context.Context, index int, batch []core.SearchDocument) []storage.IndexResult {
	results, err := ix.client.MergeOrUpload(ctx, batch)
	if err != nil {
		ix.logger.Error("batch indexing error", "batch", index, "docs", len(batch), "err", err)
		return storage.FailAll(batch, err)
	}
	return results
}

// normalizeDates rewrites published_date on every document that has the
// field and returns a warning when more than one distinct date remains.
func normalizeDates(docs []core.SearchDocument) []string {
	distinct := map[string]struct{}{}
	for _, doc := range docs {
		raw, ok := doc[core.FieldPublishedDate]
		if !ok {
			continue
		}
		normalized := core.NormalizeDate(raw)
		if normalized == nil {
			doc[core.FieldPublishedDate] = nil
			continue
		}
		doc[core.FieldPublishedDate] = *normalized
		distinct[*normalized] = struct{}{}
	}
	if len(distinct) > 1 {
		return []string{MultipleDatesWarning}
	}
	return nil
}
