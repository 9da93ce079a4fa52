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


// Package ingestion provides pipeline orchestration for turning documents into page records.
//
// The Pipeline type manages the ingestion workflow for a document, including:
//   - Converting the raw document to markdown
//   - Splitting the markdown into page records with stable identifiers
//   - Assigning pages to token-bounded embedding batches
//   - Optionally embedding each batch concurrently and archiving the pages
//   - Producing the document-level analysis
//
// Embedding batches are processed concurrently using a worker pool.
// Failures in the optional stages are logged but do not fail the ingestion.
package ingestion
