package storage

import (
	"context"

	"github.com/poiesic/folio/core"
)

// IndexClient submits search documents to an index.
// Implementations must be thread-safe and support concurrent access.
type IndexClient interface {
	// MergeOrUpload merges each document into the stored document with the
	// same key, or inserts it when none exists. Results are returned in input
	// order, one per document.
	MergeOrUpload(ctx context.Context, docs []core.SearchDocument) ([]IndexResult, error)

	// Close releases the client's resources.
	Close() error
}

// PageArchive keeps the latest version of every ingested page.
type PageArchive interface {
	// ArchivePages stores pages keyed by their document id. Pages whose
	// content fingerprint matches the stored one are counted as unchanged
	// and left untouched, unless the stored page has no vector and the new
	// one does.
	ArchivePages(ctx context.Context, pages ...*core.PageRecord) (*ArchiveStats, error)

	// GetPage retrieves an archived page.
	// Returns ErrNotFound if the page doesn't exist.
	GetPage(ctx context.Context, documentID string) (*ArchivedPage, error)

	// CountPages returns the number of archived pages.
	CountPages(ctx context.Context) (int, error)

	// ScanPages calls fn with archived pages in document id order, at most
	// batchSize at a time. Iteration stops at the first error from fn.
	ScanPages(ctx context.Context, batchSize int, fn func([]*ArchivedPage) error) error

	// UpdateVectors replaces the stored vectors of already archived pages.
	// Content and fingerprints are left as they are; pages that are not
	// archived are skipped. Returns the number of pages updated.
	UpdateVectors(ctx context.Context, pages ...*core.PageRecord) (int, error)

	// Close releases the archive's resources.
	Close() error
}
