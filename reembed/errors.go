package reembed

import "errors"

var (
	// ErrArchiveRequired is returned when no page archive is configured.
	ErrArchiveRequired = errors.New("page archive required")

	// ErrEmbedderRequired is returned when no embedder is configured.
	ErrEmbedderRequired = errors.New("embedder required")
)
