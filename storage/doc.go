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
// Package storage provides the storage abstraction layer for folio.
//
// This package defines the index client and page archive interfaces that
// decouple storage backends from the ingestion and indexing pipelines.
// Backends live in subpackages:
//
//   - badger: embedded store, also provides the page archive
//   - mongo: MongoDB bulk upserts
//   - postgres: Postgres with pgvector
//   - azure: Azure AI Search REST API
//
// # Constructor Return Type Pattern
//
// Public constructors return interfaces:
//
//	client, err := badger.NewIndexStore(backend)  // returns storage.IndexClient
//
// Internal package constructors (newIndexStore, newPageArchive, etc.) may
// return concrete types since they're only used within the implementation package.
//
// # Merge semantics
//
// Every IndexClient implements mergeOrUpload: a document whose key is
// already stored has the supplied fields merged over the stored ones, any
// other document is inserted. Re-indexing the same documents is idempotent.
//
// # Partial failure
//
// MergeOrUpload reports one IndexResult per document in input order. A
// returned error means the whole request failed and no per-document outcome
// is known; callers then mark every document of the batch as failed.
//
// # Thread Safety
//
// All implementations must be thread-safe and support
// concurrent access from multiple goroutines.
package storage
