// Package reembed recomputes the vectors of archived pages, typically after
// the embedding model or its deployment has changed.
//
// Pages are read from a storage.PageArchive in batches, embedded with one
// embedder call per batch (retried with exponential backoff), normalized to
// unit length and written back without touching their content or
// fingerprints. Progress is reported the same way the indexing command
// reports it.
package reembed
