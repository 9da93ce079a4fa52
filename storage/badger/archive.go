package badger

import (
	"bytes"
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/folio/core"
	"github.com/poiesic/folio/storage"
)

// PageArchive implements storage.PageArchive for BadgerDB.
type PageArchive struct {
	backend *Backend
}

var _ storage.PageArchive = (*PageArchive)(nil)

func newPageArchive(backend *Backend) (*PageArchive, error) {
	if backend == nil || backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}
	return &PageArchive{backend: backend}, nil
}

// NewPageArchive creates a page archive on an open backend.
//
// Returns storage.PageArchive interface to enforce abstraction.
func NewPageArchive(backend *Backend) (storage.PageArchive, error) {
	return newPageArchive(backend)
}

// Close is a no-op; the backend is owned by the caller.
func (a *PageArchive) Close() error {
	return nil
}

// ArchivePages stores pages keyed by document id, skipping pages whose
// content fingerprint is unchanged.
func (a *PageArchive) ArchivePages(ctx context.Context, pages ...*core.PageRecord) (*storage.ArchiveStats, error) {
	if a.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}

	stats := &storage.ArchiveStats{}
	now := time.Now().UTC()
	err := a.backend.writeBatch(ctx, len(pages), func(tx *badger.Txn, i int) error {
		page := pages[i]
		key := makePageKey(page.DocumentID)
		fingerprint := core.Fingerprint(page.MarkdownContent)

		old, err := readPage(tx, key)
		if err != nil {
			return err
		}
		if old != nil && old.Fingerprint == fingerprint && (len(old.Page.Vector) > 0 || len(page.Vector) == 0) {
			stats.Unchanged++
			return nil
		}

		record := &storage.ArchivedPage{
			Page:        *page,
			Fingerprint: fingerprint,
			ArchivedAt:  now,
		}
		if err := tx.Set(key, storage.MarshalArchivedPage(record)); err != nil {
			return err
		}
		if old == nil {
			stats.Created++
		} else {
			stats.Updated++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// GetPage retrieves an archived page.
func (a *PageArchive) GetPage(ctx context.Context, documentID string) (*storage.ArchivedPage, error) {
	var page *storage.ArchivedPage
	err := a.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		page, err = readPage(tx, makePageKey(documentID))
		return err
	}, false)
	if err != nil {
		return nil, err
	}
	if page == nil {
		return nil, storage.ErrNotFound
	}
	return page, nil
}

// CountPages returns the number of archived pages.
func (a *PageArchive) CountPages(ctx context.Context) (int, error) {
	if a.backend.IsClosed() {
		return 0, storage.ErrStorageClosed
	}

	count := 0
	err := a.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = pagePrefix()
		it := tx.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			count++
		}
		return nil
	}, false)
	return count, err
}

// ScanPages iterates archived pages in key order. Each batch is read in its
// own transaction, so fn may write to the archive.
func (a *PageArchive) ScanPages(ctx context.Context, batchSize int, fn func([]*storage.ArchivedPage) error) error {
	if a.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	if batchSize < 1 {
		batchSize = 1
	}

	var cursor []byte
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		var batch []*storage.ArchivedPage
		var last []byte
		err := a.backend.WithTx(func(tx *badger.Txn) error {
			opts := badger.DefaultIteratorOptions
			opts.Prefix = pagePrefix()
			it := tx.NewIterator(opts)
			defer it.Close()

			if cursor == nil {
				it.Rewind()
			} else {
				it.Seek(cursor)
				if it.Valid() && bytes.Equal(it.Item().Key(), cursor) {
					it.Next()
				}
			}
			for ; it.Valid() && len(batch) < batchSize; it.Next() {
				item := it.Item()
				err := item.Value(func(val []byte) error {
					page, err := storage.UnmarshalArchivedPage(val)
					if err != nil {
						return err
					}
					batch = append(batch, page)
					return nil
				})
				if err != nil {
					return err
				}
				last = item.KeyCopy(nil)
			}
			return nil
		}, false)
		if err != nil {
			return err
		}
		if len(batch) == 0 {
			return nil
		}
		if err := fn(batch); err != nil {
			return err
		}
		if len(batch) < batchSize {
			return nil
		}
		cursor = last
	}
}

// UpdateVectors rewrites the vectors of archived pages in place.
func (a *PageArchive) UpdateVectors(ctx context.Context, pages ...*core.PageRecord) (int, error) {
	if a.backend.IsClosed() {
		return 0, storage.ErrStorageClosed
	}

	updated := 0
	err := a.backend.writeBatch(ctx, len(pages), func(tx *badger.Txn, i int) error {
		old, err := readPage(tx, makePageKey(pages[i].DocumentID))
		if err != nil {
			return err
		}
		if old == nil {
			return nil
		}
		old.Page.Vector = pages[i].Vector
		if err := tx.Set(makePageKey(pages[i].DocumentID), storage.MarshalArchivedPage(old)); err != nil {
			return err
		}
		updated++
		return nil
	})
	if err != nil {
		return 0, err
	}
	return updated, nil
}

// readPage returns nil, nil when the key is absent.
func readPage(tx *badger.Txn, key []byte) (*storage.ArchivedPage, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var page *storage.ArchivedPage
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		page, unmarshalErr = storage.UnmarshalArchivedPage(val)
		return unmarshalErr
	})
	return page, err
}
