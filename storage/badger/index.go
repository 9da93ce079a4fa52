package badger

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/folio/core"
	"github.com/poiesic/folio/storage"
)

// IndexStore implements storage.IndexClient on BadgerDB. Documents are
// stored as JSON under their key.
type IndexStore struct {
	backend *Backend
}

var _ storage.IndexClient = (*IndexStore)(nil)

func newIndexStore(backend *Backend) (*IndexStore, error) {
	if backend == nil || backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}
	return &IndexStore{backend: backend}, nil
}

// NewIndexStore creates an index store on an open backend.
//
// Returns storage.IndexClient interface to enforce abstraction.
func NewIndexStore(backend *Backend) (storage.IndexClient, error) {
	return newIndexStore(backend)
}

// Close is a no-op; the backend is owned by the caller.
func (s *IndexStore) Close() error {
	return nil
}

// MergeOrUpload merges each document over the stored document with the same
// key. New documents report 201, merged ones 200.
func (s *IndexStore) MergeOrUpload(ctx context.Context, docs []core.SearchDocument) ([]storage.IndexResult, error) {
	if s.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}

	results := make([]storage.IndexResult, len(docs))
	err := s.backend.writeBatch(ctx, len(docs), func(tx *badger.Txn, i int) error {
		doc := docs[i]
		key := doc.Key()
		if key == "" {
			results[i] = storage.MissingKey(doc)
			return nil
		}

		dbKey := makeIndexDocumentKey(key)
		stored, err := readDocument(tx, dbKey)
		if err != nil {
			results[i] = storage.Failed(key, storage.Status(http.StatusInternalServerError), err)
			return nil
		}

		status := http.StatusCreated
		merged := make(core.SearchDocument, len(doc))
		if stored != nil {
			status = http.StatusOK
			for k, v := range stored {
				merged[k] = v
			}
		}
		for k, v := range doc {
			merged[k] = v
		}

		body, err := json.Marshal(merged)
		if err != nil {
			results[i] = storage.Failed(key, storage.Status(http.StatusBadRequest), err)
			return nil
		}
		if err := tx.Set(dbKey, body); err != nil {
			return err
		}
		results[i] = storage.Succeeded(key, status)
		return nil
	})
	if err != nil {
		s.backend.logger.Error("index batch write failed", "docs", len(docs), "err", err)
		return nil, fmt.Errorf("%w: %w", storage.ErrRequestFailed, err)
	}
	return results, nil
}

// GetDocument retrieves a stored document by key.
// Returns storage.ErrNotFound if the document doesn't exist.
func (s *IndexStore) GetDocument(ctx context.Context, key string) (core.SearchDocument, error) {
	var doc core.SearchDocument
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		doc, err = readDocument(tx, makeIndexDocumentKey(key))
		return err
	}, false)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, storage.ErrNotFound
	}
	return doc, nil
}

// readDocument returns nil, nil when the key is absent.
func readDocument(tx *badger.Txn, key []byte) (core.SearchDocument, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var doc core.SearchDocument
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &doc)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrSerializationFailed, err)
	}
	return doc, nil
}
