// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package reembed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/poiesic/folio/ai"
	"github.com/poiesic/folio/core"
	"github.com/poiesic/folio/indexing"
	"github.com/poiesic/folio/ingestion"
	"github.com/poiesic/folio/storage"
)

// Config holds configuration for the reembedding operation.
type Config struct {
	// BatchSize is the number of pages sent to the embedder per call
	BatchSize int

	// ReportInterval is how often to report progress (number of pages)
	ReportInterval int

	// MaxRetries is the maximum number of attempts per embedder call
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      100,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
	}
}

// Stats summarises a reembedding run.
type Stats struct {
	Pages   int
	Updated int
	Elapsed time.Duration
}

// Reembedder re-embeds every page of a page archive.
type Reembedder struct {
	archive  storage.PageArchive
	embedder ai.Embedder
	config   *Config
	progress io.Writer
	logger   *slog.Logger
}

// NewReembedder creates a new reembedder.
// progress: where to write progress output (typically os.Stderr)
func NewReembedder(archive storage.PageArchive, embedder ai.Embedder, config *Config, progress io.Writer) (*Reembedder, error) {
	if archive == nil {
		return nil, ErrArchiveRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	defaults := DefaultConfig()
	if config == nil {
		config = defaults
	}
	if config.BatchSize < 1 {
		config.BatchSize = defaults.BatchSize
	}
	if config.ReportInterval < 1 {
		config.ReportInterval = defaults.ReportInterval
	}
	if config.MaxRetries < 1 {
		config.MaxRetries = defaults.MaxRetries
	}
	if progress == nil {
		progress = io.Discard
	}

	return &Reembedder{
		archive:  archive,
		embedder: embedder,
		config:   config,
		progress: progress,
		logger:   slog.Default().With("component", "reembedder"),
	}, nil
}

// Run re-embeds all archived pages. The first batch that cannot be embedded
// or stored stops the run; pages from earlier batches keep their new vectors.
func (r *Reembedder) Run(ctx context.Context) (*Stats, error) {
	total, err := r.archive.CountPages(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count pages: %w", err)
	}

	stats := &Stats{Pages: total}
	if total == 0 {
		fmt.Fprintf(r.progress, "No pages found in archive (0 pages)\n")
		return stats, nil
	}

	fmt.Fprintf(r.progress, "Starting reembedding of %d pages (batch size: %d)\n", total, r.config.BatchSize)
	r.logger.Info("reembedding archived pages", "pages", total, "batchSize", r.config.BatchSize)

	tracker := indexing.NewProgressTracker(r.progress, total, r.config.ReportInterval).WithUnits("Embedded", "pages")
	tracker.Start()

	err = r.archive.ScanPages(ctx, r.config.BatchSize, func(batch []*storage.ArchivedPage) error {
		pages := make([]*core.PageRecord, len(batch))
		for i, archived := range batch {
			page := archived.Page
			pages[i] = &page
		}

		if err := ingestion.EmbedPages(ctx, r.embedder, pages, r.config.MaxRetries, r.config.RetryDelay); err != nil {
			return fmt.Errorf("failed to embed pages after %d attempts: %w", r.config.MaxRetries, err)
		}

		updated, err := r.archive.UpdateVectors(ctx, pages...)
		if err != nil {
			return fmt.Errorf("failed to update pages: %w", err)
		}
		stats.Updated += updated
		tracker.Increment(len(pages))
		return nil
	})
	if err != nil {
		r.logger.Error("reembedding stopped", "updated", stats.Updated, "err", err)
		return stats, err
	}

	stats.Elapsed = tracker.Elapsed()
	tracker.Finish()

	fmt.Fprintf(r.progress, "Reembedding complete. Processed %d pages in %v (%.1f pages/sec)\n",
		total, stats.Elapsed.Round(time.Millisecond), float64(total)/stats.Elapsed.Seconds())
	return stats, nil
}
