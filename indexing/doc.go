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
// Package indexing submits pre-built search documents to an index.
//
// An Indexer normalizes published dates, validates every document, packs
// the documents into batches that respect the index service's per-request
// document count and byte size ceilings, and submits the batches
// concurrently. A batch that fails as a whole marks each of its documents
// as failed; other batches are unaffected.
package indexing
